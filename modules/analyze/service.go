package analyze

import (
	"context"
	"fmt"
	"log"

	"github.com/metnitcs/esay-ai-shop/modules/common/model"
)

const defaultPrompt = "Analyze this image in detail."

// Analyzer is the slice of the Gemini client this module consumes.
type Analyzer interface {
	AnalyzeImage(ctx context.Context, prompt string, image *model.EmbeddedImage) (string, error)
}

// Ledger is the credit slice: balance gate plus the fixed analysis debit.
type Ledger interface {
	Balance(userID string) (float64, error)
	Debit(userID string, amount float64) (float64, error)
}

// Service runs one-shot multimodal image analysis with a fixed credit cost.
type Service struct {
	analyzer Analyzer
	ledger   Ledger
	cost     float64
}

func NewService(analyzer Analyzer, ledger Ledger, cost float64) *Service {
	return &Service{
		analyzer: analyzer,
		ledger:   ledger,
		cost:     cost,
	}
}

// Analyze gates on balance, runs the multimodal call and debits on success.
func (s *Service) Analyze(ctx context.Context, userID, prompt string, image *model.EmbeddedImage) (string, error) {
	balance, err := s.ledger.Balance(userID)
	if err != nil {
		return "", err
	}
	if balance < s.cost {
		return "", &model.ValidationError{
			Field:  "credits",
			Reason: fmt.Sprintf("insufficient credits, analysis costs %g credits", s.cost),
		}
	}

	if prompt == "" {
		prompt = defaultPrompt
	}

	result, err := s.analyzer.AnalyzeImage(ctx, prompt, image)
	if err != nil {
		return "", err
	}

	if _, err := s.ledger.Debit(userID, s.cost); err != nil {
		log.Printf("⚠️ Analysis debit failed: %v", err)
		return "", err
	}

	return result, nil
}
