package content

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"genna-quiz-service/internal/domain"
)

// request is one schema-constrained completion.
type request struct {
	prompt   string
	schema   *genai.Schema
	grounded bool
}

// completion is the raw model output plus the citations found in its metadata.
type completion struct {
	text    string
	sources []domain.GroundingSource
}

type completer interface {
	complete(ctx context.Context, req request) (completion, error)
	close() error
}

// geminiCompleter talks to the Gemini API. The SDK client is created on first
// use so a missing key fails the call, not process start-up.
//
// Grounded requests do not attach a googleSearch tool, which this SDK does
// not offer. They are approximated: a system instruction asks the model to
// answer from sources it can cite, and the citations come back through
// CitationMetadata on the candidates.
type geminiCompleter struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

func (g *geminiCompleter) genaiClient() (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.apiKey == "" {
		return nil, domain.ErrMissingAPIKey
	}
	if g.client != nil {
		return g.client, nil
	}
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("create generative client: %w", err)
	}
	g.client = client
	return client, nil
}

func (g *geminiCompleter) complete(ctx context.Context, req request) (completion, error) {
	client, err := g.genaiClient()
	if err != nil {
		return completion{}, err
	}

	model := client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = req.schema
	if req.grounded {
		model.SystemInstruction = genai.NewUserContent(genai.Text(groundingInstruction))
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.prompt))
	if err != nil {
		return completion{}, err
	}
	return completion{text: responseText(resp), sources: citationSources(resp)}, nil
}

func (g *geminiCompleter) close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client == nil {
		return nil
	}
	err := g.client.Close()
	g.client = nil
	return err
}

func responseText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	if resp != nil && len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				text.WriteString(string(txt))
			}
		}
	}
	return text.String()
}

func citationSources(resp *genai.GenerateContentResponse) []domain.GroundingSource {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].CitationMetadata == nil {
		return nil
	}
	var out []domain.GroundingSource
	for _, cs := range resp.Candidates[0].CitationMetadata.CitationSources {
		if cs == nil || cs.URI == nil || *cs.URI == "" {
			continue
		}
		out = append(out, domain.GroundingSource{URI: *cs.URI})
	}
	return out
}
