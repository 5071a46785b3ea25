package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/sony/gobreaker"

	"github.com/Denno-Labs/Logistria/internal/core"
	"github.com/Denno-Labs/Logistria/internal/resilience"
)

// Advisor produces rework guidance for failed quality checks. Its output is
// advisory only: whatever comes back is stored verbatim in the qc log, and a
// dead capability degrades to an explicit error document so the rework
// transition itself is never blocked. Calls are retried and guarded by a
// circuit breaker the same way the orchestrator's are.
type Advisor struct {
	client  *openai.Client
	model   shared.ResponsesModel
	retry   resilience.RetryConfig
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewAdvisor(apiKey string, logger *slog.Logger) *Advisor {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Advisor{
		client:  &client,
		model:   shared.ResponsesModel(shared.ChatModelGPT4o),
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewBreaker("rework-advisor", logger),
		logger:  logger,
	}
}

// Advise implements core.ReworkAdvisor. The return value is always a JSON
// document: the model's own JSON when it produced one, the raw text wrapped
// under raw_suggestions otherwise, or an error marker on failure.
func (a *Advisor) Advise(ctx context.Context, req core.ReworkAdviceRequest) string {
	prompt := fmt.Sprintf(`You are a manufacturing quality engineer.
A batch failed its quality check and is being sent back to assembly for rework.
Production: %s, product: %s, quantity: %s.
Inspector notes: %s
Respond with JSON: {"root_cause_hypotheses": [...], "rework_steps": [...], "prevention": [...]}.`,
		req.ProductionID, req.ProductID, req.Quantity.String(), req.Notes)

	params := responses.ResponseNewParams{
		Model: a.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
	}

	var content string
	err := resilience.Do(ctx, a.retry, a.logger, "rework advice", func(ctx context.Context) error {
		result, err := a.breaker.Execute(func() (any, error) {
			resp, err := a.client.Responses.New(ctx, params)
			if err != nil {
				return nil, fmt.Errorf("openai responses error: %w", err)
			}
			content := resp.OutputText()
			if content == "" {
				return nil, fmt.Errorf("empty response content")
			}
			return content, nil
		})
		if err != nil {
			return err
		}
		content = result.(string)
		return nil
	})
	if err != nil {
		a.logger.Error("rework advisor unavailable",
			"production_id", req.ProductionID, "error", err)
		return errorDocument(err)
	}

	if json.Valid([]byte(content)) {
		return content
	}

	// Free-text advice still gets stored, wrapped into a JSON envelope.
	wrapped, err := json.Marshal(map[string]string{"raw_suggestions": content})
	if err != nil {
		return errorDocument(err)
	}
	return string(wrapped)
}

func errorDocument(err error) string {
	doc, _ := json.Marshal(map[string]string{
		"error":  "advisor unavailable",
		"detail": err.Error(),
	})
	return string(doc)
}
