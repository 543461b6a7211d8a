// Package content generates quiz questions, facts, leaderboard bots, learn
// cards, fact checks and hints with a generative model.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"genna-quiz-service/internal/domain"
)

const (
	factCheckFallback = "Verification complete using real-time search."
	hintFallback      = "Consulting historical archives..."
)

// LeaderboardBot is a fabricated competitor returned by Leaderboard.
type LeaderboardBot struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Verification is the text and citations of a fact check or hint.
type Verification struct {
	Text    string                   `json:"text"`
	Sources []domain.GroundingSource `json:"sources"`
}

// Client is the content-generation client. Every call is independent and stateless.
type Client struct {
	llm     completer
	retrier Retrier
	titles  *TitleResolver
	pick    func(n int) int
}

// Options tunes a Client; zero values select the defaults.
type Options struct {
	Model   string
	Retrier *Retrier
	Titles  *TitleResolver
}

// NewClient builds a Gemini-backed client. An empty apiKey is accepted here;
// every call then fails with domain.ErrMissingAPIKey.
func NewClient(apiKey string, opts Options) *Client {
	return newClient(&geminiCompleter{apiKey: apiKey, model: opts.Model}, opts)
}

func newClient(llm completer, opts Options) *Client {
	c := &Client{
		llm:     llm,
		retrier: DefaultRetrier(),
		titles:  opts.Titles,
		pick:    rand.Intn,
	}
	if opts.Retrier != nil {
		c.retrier = *opts.Retrier
	}
	if c.titles == nil {
		c.titles = NewTitleResolver(nil)
	}
	return c
}

// Close releases the underlying SDK client.
func (c *Client) Close() error {
	return c.llm.close()
}

// GenerateQuestions returns a fresh question set for the difficulty.
func (c *Client) GenerateQuestions(ctx context.Context, d domain.Difficulty) ([]domain.Question, error) {
	return WithRetry(ctx, c.retrier, func(ctx context.Context) ([]domain.Question, error) {
		focus := focusTopics[c.pick(len(focusTopics))]
		out, err := c.llm.complete(ctx, request{prompt: questionsPrompt(d, focus), schema: questionsSchema, grounded: true})
		if err != nil {
			return nil, err
		}
		var raw []domain.Question
		if err := decode(out.text, &raw); err != nil {
			return nil, fmt.Errorf("decode questions: %w", err)
		}
		questions := sanitizeQuestions(raw)
		for i := range questions {
			sources := MergeSources(0, questions[i].Sources, out.sources)
			questions[i].Sources = c.titles.Fill(ctx, sources)
		}
		return questions, nil
	})
}

// LiveFacts returns three recent facts for the home view.
func (c *Client) LiveFacts(ctx context.Context) ([]domain.LiveFact, error) {
	return WithRetry(ctx, c.retrier, func(ctx context.Context) ([]domain.LiveFact, error) {
		out, err := c.llm.complete(ctx, request{prompt: liveFactsPrompt, schema: liveFactsSchema, grounded: true})
		if err != nil {
			return nil, err
		}
		var raw []struct {
			Fact        string `json:"fact"`
			SourceTitle string `json:"source_title"`
			SourceURI   string `json:"source_uri"`
		}
		if err := decode(out.text, &raw); err != nil {
			return nil, fmt.Errorf("decode live facts: %w", err)
		}
		facts := make([]domain.LiveFact, 0, len(raw))
		for _, item := range raw {
			if strings.TrimSpace(item.Fact) == "" {
				continue
			}
			fact := domain.LiveFact{Fact: item.Fact}
			if item.SourceURI != "" {
				fact.Source = &domain.GroundingSource{Title: item.SourceTitle, URI: item.SourceURI}
			}
			facts = append(facts, fact)
		}
		return facts, nil
	})
}

// Leaderboard fabricates competitors scored around userScore.
func (c *Client) Leaderboard(ctx context.Context, userScore int) ([]LeaderboardBot, error) {
	return WithRetry(ctx, c.retrier, func(ctx context.Context) ([]LeaderboardBot, error) {
		out, err := c.llm.complete(ctx, request{prompt: leaderboardPrompt(userScore), schema: leaderboardSchema})
		if err != nil {
			return nil, err
		}
		var bots []LeaderboardBot
		if err := decode(out.text, &bots); err != nil {
			return nil, fmt.Errorf("decode leaderboard: %w", err)
		}
		return bots, nil
	})
}

// LearnContent returns the educational cards of the learn archive.
func (c *Client) LearnContent(ctx context.Context) ([]domain.LearnContent, error) {
	return WithRetry(ctx, c.retrier, func(ctx context.Context) ([]domain.LearnContent, error) {
		out, err := c.llm.complete(ctx, request{prompt: learnPrompt, schema: learnSchema, grounded: true})
		if err != nil {
			return nil, err
		}
		var cards []domain.LearnContent
		if err := decode(out.text, &cards); err != nil {
			return nil, fmt.Errorf("decode learn content: %w", err)
		}
		for i := range cards {
			cards[i].Category = NormalizeCategory(string(cards[i].Category))
		}
		return cards, nil
	})
}

// FactCheck verifies answer as the solution of question. It is not retried.
func (c *Client) FactCheck(ctx context.Context, answer, question string) (Verification, error) {
	return c.verify(ctx, factCheckPrompt(answer, question), factCheckFallback)
}

// Hint returns a non-revealing clue for question. It is not retried.
func (c *Client) Hint(ctx context.Context, question string) (Verification, error) {
	return c.verify(ctx, hintPrompt(question), hintFallback)
}

func (c *Client) verify(ctx context.Context, prompt, fallback string) (Verification, error) {
	out, err := c.llm.complete(ctx, request{prompt: prompt, schema: verificationSchema, grounded: true})
	if err != nil {
		return Verification{}, err
	}
	var v Verification
	if err := decode(out.text, &v); err != nil {
		// A plain-text answer is still a usable verification.
		v = Verification{Text: strings.TrimSpace(out.text)}
	}
	if strings.TrimSpace(v.Text) == "" {
		v.Text = fallback
	}
	v.Sources = c.titles.Fill(ctx, MergeSources(0, v.Sources, out.sources))
	return v, nil
}

// NormalizeCategory maps free-form model output onto the three learn categories.
func NormalizeCategory(raw string) domain.LearnCategory {
	for _, c := range domain.LearnCategories() {
		if strings.EqualFold(strings.TrimSpace(raw), string(c)) {
			return c
		}
	}
	return domain.CategoryTradition
}

// decode parses model JSON, tolerating a surrounding markdown code fence.
func decode(text string, v any) error {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		text = "[]"
	}
	return json.Unmarshal([]byte(text), v)
}

// sanitizeQuestions drops unanswerable questions and fills missing ids.
func sanitizeQuestions(raw []domain.Question) []domain.Question {
	out := make([]domain.Question, 0, len(raw))
	seen := map[int]bool{}
	for _, q := range raw {
		if strings.TrimSpace(q.Prompt) == "" || len(q.Options) < 2 {
			continue
		}
		if _, ok := q.Option(q.CorrectID); !ok {
			continue
		}
		if q.ID == 0 || seen[q.ID] {
			q.ID = len(out) + 1
			for seen[q.ID] {
				q.ID++
			}
		}
		seen[q.ID] = true
		out = append(out, q)
	}
	return out
}
