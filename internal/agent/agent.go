package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/mohammad-safakhou/deepresearch/internal/helpers"
	"github.com/mohammad-safakhou/deepresearch/internal/telemetry"
	"github.com/mohammad-safakhou/deepresearch/provider"
)

// ErrSchemaValidation marks a model response that did not match the agent's
// output schema. Fatal to the enclosing agent call; no retry is performed.
var ErrSchemaValidation = errors.New("schema validation error")

// mustSchema compiles a JSON schema literal at init time.
func mustSchema(raw string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid agent schema: %v", err))
	}
	return s
}

// runStructured performs one schema-validated model call: generate, pull the
// JSON payload out of the response, validate it against the agent's output
// schema, then unmarshal into out.
func runStructured(ctx context.Context, p provider.Provider, tele *telemetry.Telemetry, agentName, systemPrompt, userPrompt string, schema *gojsonschema.Schema, out any) error {
	raw, inTok, outTok, err := p.GenerateWithTokens(ctx, []provider.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	})
	if err != nil {
		return fmt.Errorf("%s: generate: %w", agentName, err)
	}
	tele.RecordLLMUsage(p.Model(), agentName, inTok, outTok)

	payload, err := helpers.ExtractJSON(raw)
	if err != nil {
		return fmt.Errorf("%w: %s returned no JSON payload: %v", ErrSchemaValidation, agentName, err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(payload))
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaValidation, agentName, err)
	}
	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("%w: %s: %s", ErrSchemaValidation, agentName, strings.Join(problems, "; "))
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrSchemaValidation, agentName, err)
	}
	return nil
}
