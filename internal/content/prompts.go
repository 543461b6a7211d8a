package content

import (
	"fmt"

	"genna-quiz-service/internal/domain"
)

// QuestionsPerSet is how many questions one quiz session asks.
const QuestionsPerSet = 5

var focusTopics = []string{
	"Current Genna 2024/2025 celebrations in Ethiopia",
	"Traditional foods like Doro Wat and Genna fasting rules",
	"Lalibela Christmas services traditions",
	"Biblical prophecies of the Nativity",
	"The history of YeGenna Chewata game",
}

const groundingInstruction = `You are a careful researcher of Ethiopian Orthodox Tewahedo traditions.
Verify every historical and cultural claim against current web sources before answering.
Whenever the schema has a "sources" field, list the pages you relied on with their title and full URL.`

func questionsPrompt(d domain.Difficulty, focus string) string {
	return fmt.Sprintf(`Generate %d distinct multiple-choice questions about Ethiopian Christmas (Genna).
Current Focus: %s.
Difficulty: %s.

CRITICAL: Use web search to ensure all historical and cultural facts are 100%% accurate and up-to-date.
Include at least 2 questions about specific Bible verses.
Give every question 4 options with ids "a" to "d".

Output JSON format.`, QuestionsPerSet, focus, d)
}

const liveFactsPrompt = `Find 3 interesting real-time or recent facts about Ethiopian Christmas (Genna) celebrations, traditions, or news using web search. Return a JSON array with 'fact' and 'source_title' and 'source_uri'.`

func leaderboardPrompt(userScore int) string {
	return fmt.Sprintf(`Generate 8 realistic Ethiopian profiles for a leaderboard around score %d. Output JSON.`, userScore)
}

const learnPrompt = `Generate 3 educational content cards about Genna traditions using web search for accuracy. Use the categories Scripture, Tradition and History.`

func factCheckPrompt(answer, question string) string {
	return fmt.Sprintf(`Fact check the answer: %q for the question: %q. Use web search for verified details. Provide a concise verification summary in "text".`, answer, question)
}

func hintPrompt(question string) string {
	return fmt.Sprintf(`Provide a helpful cultural hint or context for: %q. DO NOT give the answer. Use web search to provide verified cultural details in "text".`, question)
}
