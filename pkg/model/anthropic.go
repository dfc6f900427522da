package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/kurobyte/agentos/pkg/kernel"
)

// Anthropic implements kernel.ModelClient over the Claude Messages API
type Anthropic struct {
	client anthropic.Client
	cfg    Config
}

// NewAnthropic creates an Anthropic-backed model client
func NewAnthropic(cfg Config) *Anthropic {
	return &Anthropic{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
	}
}

// Invoke sends messages to Claude. With an output schema, the response is
// constrained through a forced tool whose input schema is the caller's
// schema, and the tool input JSON is returned verbatim.
func (a *Anthropic) Invoke(ctx context.Context, messages []kernel.Message, outputSchema json.RawMessage) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Model),
		MaxTokens: int64(a.cfg.MaxTokens),
	}

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.MessageParam{
				Role: anthropic.MessageParamRoleAssistant,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(msg.Content),
				},
			})
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(
				anthropic.NewTextBlock(msg.Content),
			))
		}
	}

	if a.cfg.Temperature > 0 {
		params.Temperature = anthropic.Float(a.cfg.Temperature)
	}

	if len(outputSchema) > 0 {
		tool, err := schemaTool(outputSchema)
		if err != nil {
			return "", err
		}
		params.Tools = []anthropic.ToolUnionParam{{OfTool: tool}}
	}

	response, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}

	content := ""
	for _, block := range response.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			content += b.Text
		case anthropic.ToolUseBlock:
			if b.Name == structuredOutputTool {
				return b.JSON.Input.Raw(), nil
			}
		}
	}

	return content, nil
}

// schemaTool converts a JSON schema document into the forced output tool
func schemaTool(outputSchema json.RawMessage) (*anthropic.ToolParam, error) {
	var schema map[string]interface{}
	if err := json.Unmarshal(outputSchema, &schema); err != nil {
		return nil, fmt.Errorf("invalid output schema: %w", err)
	}

	tool := &anthropic.ToolParam{
		Name:        structuredOutputTool,
		Description: anthropic.String("Produce the final answer matching the required schema."),
		InputSchema: anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
		},
	}

	if required, ok := schema["required"].([]interface{}); ok {
		names := make([]string, len(required))
		for i, v := range required {
			names[i], _ = v.(string)
		}
		tool.InputSchema.Required = names
	}

	return tool, nil
}
