package app

import (
	"context"
	"log"

	"genna-quiz-service/internal/content"
	"genna-quiz-service/internal/domain"
)

// ArchiveSource provides the home facts and the learn cards.
type ArchiveSource interface {
	LiveFacts(ctx context.Context) ([]domain.LiveFact, error)
	LearnContent(ctx context.Context) ([]domain.LearnContent, error)
}

// ContentService serves the standalone content screens and the ad-hoc
// fact-check and hint calls used outside a quiz session.
type ContentService struct {
	archive ArchiveSource
	quiz    QuizContent
}

func NewContentService(archive ArchiveSource, quiz QuizContent) *ContentService {
	return &ContentService{archive: archive, quiz: quiz}
}

func (s *ContentService) LiveFacts(ctx context.Context) ([]domain.LiveFact, error) {
	facts, err := s.archive.LiveFacts(ctx)
	if err != nil {
		log.Printf("live facts failed: %v", err)
		return nil, err
	}
	return facts, nil
}

// Learn returns the cards in the category named by filter ("All" or "" for every card).
func (s *ContentService) Learn(ctx context.Context, filter string) ([]domain.LearnContent, error) {
	category, err := domain.ParseLearnFilter(filter)
	if err != nil {
		return nil, err
	}
	cards, err := s.archive.LearnContent(ctx)
	if err != nil {
		log.Printf("learn content failed: %v", err)
		return nil, err
	}
	if category == "" {
		return cards, nil
	}
	filtered := make([]domain.LearnContent, 0, len(cards))
	for _, c := range cards {
		if c.Category == category {
			filtered = append(filtered, c)
		}
	}
	return filtered, nil
}

// FactCheck never fails: an upstream error becomes the placeholder text.
func (s *ContentService) FactCheck(ctx context.Context, answer, question string) domain.FactCheckResult {
	v, err := s.quiz.FactCheck(ctx, answer, question)
	if err != nil {
		log.Printf("fact check failed: %v", err)
		v = content.Verification{Text: FactCheckUnavailable}
	}
	return domain.FactCheckResult{Text: v.Text, Sources: content.MergeSources(0, v.Sources)}
}

// Hint never fails; known sources are listed ahead of the hint's own.
func (s *ContentService) Hint(ctx context.Context, question string, known []domain.GroundingSource) domain.HintResult {
	v, err := s.quiz.Hint(ctx, question)
	if err != nil {
		log.Printf("hint failed: %v", err)
		v = content.Verification{Text: HintUnavailable}
	}
	return domain.HintResult{Text: v.Text, Sources: content.MergeSources(maxHintLinks, known, v.Sources)}
}
