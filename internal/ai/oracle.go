package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
	"github.com/sony/gobreaker"

	"github.com/Denno-Labs/Logistria/internal/core"
	"github.com/Denno-Labs/Logistria/internal/resilience"
)

// planDocument is the strict output contract for the orchestrator model. The
// schema is generated from these tags, so the model cannot return a shape the
// procurement layer does not understand.
type planDocument struct {
	ProcurementPlan        []planItem `json:"procurement_plan" jsonschema_description:"One sourcing decision per material that triggered a reorder"`
	OverallSupplyChainRisk string     `json:"overall_supply_chain_risk" jsonschema_description:"LOW, MEDIUM or HIGH across the whole plan"`
	StrategicSummary       string     `json:"strategic_summary" jsonschema_description:"Short narrative of the replenishment strategy"`
}

type planItem struct {
	MaterialID         string  `json:"material_id" jsonschema_description:"Material being replenished"`
	SelectedSupplier   string  `json:"selected_supplier" jsonschema_description:"Supplier id chosen from the ranked candidates"`
	QuantityToOrder    float64 `json:"quantity_to_order" jsonschema_description:"Units to order, from the reorder recommendation"`
	RiskLevel          string  `json:"risk_level" jsonschema_description:"LOW, MEDIUM or HIGH for this line"`
	ConfidenceLevel    float64 `json:"confidence_level" jsonschema_description:"Confidence in this sourcing decision, 0.0-1.0"`
	MitigationStrategy string  `json:"mitigation_strategy" jsonschema_description:"How to reduce the stated risk"`
	Reasoning          string  `json:"reasoning" jsonschema_description:"Why this supplier and quantity"`
}

// Orchestrator asks the language model to turn reorder decisions and supplier
// rankings into a procurement plan. Calls are retried and guarded by a
// circuit breaker; a response that is not the contracted JSON document is an
// error, never a silently empty plan.
type Orchestrator struct {
	client  *openai.Client
	model   shared.ResponsesModel
	retry   resilience.RetryConfig
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

func NewOrchestrator(apiKey string, logger *slog.Logger) *Orchestrator {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Orchestrator{
		client:  &client,
		model:   shared.ResponsesModel(shared.ChatModelGPT4o),
		retry:   resilience.DefaultRetryConfig(),
		breaker: resilience.NewBreaker("strategic-orchestrator", logger),
		logger:  logger,
	}
}

// Orchestrate implements core.StrategicOrchestrator.
func (o *Orchestrator) Orchestrate(ctx context.Context, req core.OrchestrationRequest) (*core.OrchestrationResult, error) {
	contextJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return nil, &core.OracleError{Op: "strategic orchestration", Err: fmt.Errorf("marshal request: %w", err)}
	}

	prompt := fmt.Sprintf(`You are a supply chain strategist for a manufacturing plant.
A production run has consumed raw materials and some of them fell to or below their reorder points.
Build a procurement plan from the context below.
Rules:
1. Produce exactly one plan line per material in inventory_analysis.
2. selected_supplier MUST be a supplier_id from that material's ranking; prefer the top-ranked unless risk justifies otherwise.
3. quantity_to_order MUST match the recommended quantity from the inventory analysis.
4. Rate each line's risk_level LOW, MEDIUM or HIGH and give a concrete mitigation_strategy.
5. Keep reasoning factual and grounded in the provided scores.

Context:
%s`, contextJSON)

	schemaMap, err := planSchema()
	if err != nil {
		return nil, &core.OracleError{Op: "strategic orchestration", Err: err}
	}

	params := responses.ResponseNewParams{
		Model: o.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "procurement_plan",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A strategic procurement plan for triggered material reorders"),
				},
			},
		},
	}

	var doc planDocument
	err = resilience.Do(ctx, o.retry, o.logger, "strategic orchestration", func(ctx context.Context) error {
		result, err := o.breaker.Execute(func() (any, error) {
			resp, err := o.client.Responses.New(ctx, params)
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
		if err := json.Unmarshal([]byte(result.(string)), &doc); err != nil {
			return fmt.Errorf("failed to parse plan document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, &core.OracleError{Op: "strategic orchestration", Err: err}
	}

	plan := &core.OrchestrationResult{
		OverallSupplyChainRisk: doc.OverallSupplyChainRisk,
		StrategicSummary:       doc.StrategicSummary,
	}
	for _, item := range doc.ProcurementPlan {
		plan.ProcurementPlan = append(plan.ProcurementPlan, core.ProcurementPlanItem{
			MaterialID:         item.MaterialID,
			SelectedSupplier:   item.SelectedSupplier,
			QuantityToOrder:    item.QuantityToOrder,
			RiskLevel:          item.RiskLevel,
			ConfidenceLevel:    item.ConfidenceLevel,
			MitigationStrategy: item.MitigationStrategy,
			Reasoning:          item.Reasoning,
		})
	}
	return plan, nil
}

// planSchema reflects the strict output schema from the plan document struct.
func planSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(planDocument{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}
