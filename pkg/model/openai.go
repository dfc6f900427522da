package model

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/kurobyte/agentos/pkg/kernel"
)

// OpenAI implements kernel.ModelClient over the chat completions API
type OpenAI struct {
	client openai.Client
	cfg    Config
}

// NewOpenAI creates an OpenAI-backed model client
func NewOpenAI(cfg Config) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		cfg:    cfg,
	}
}

// Invoke sends messages to the model. With an output schema, a function
// tool carries the schema and the tool-call arguments are returned verbatim.
func (o *OpenAI) Invoke(ctx context.Context, messages []kernel.Message, outputSchema json.RawMessage) (string, error) {
	converted := []openai.ChatCompletionMessageParamUnion{}
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			converted = append(converted, openai.SystemMessage(msg.Content))
		case "assistant":
			converted = append(converted, openai.AssistantMessage(msg.Content))
		default:
			converted = append(converted, openai.UserMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(o.cfg.Model),
		Messages: converted,
	}
	if o.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.cfg.MaxTokens))
	}
	if o.cfg.Temperature > 0 {
		params.Temperature = openai.Float(o.cfg.Temperature)
	}

	if len(outputSchema) > 0 {
		var schema map[string]interface{}
		if err := json.Unmarshal(outputSchema, &schema); err != nil {
			return "", fmt.Errorf("invalid output schema: %w", err)
		}
		params.Tools = []openai.ChatCompletionToolParam{{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        structuredOutputTool,
				Description: openai.String("Produce the final answer matching the required schema."),
				Parameters:  openai.FunctionParameters(schema),
			},
		}}
	}

	response, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned")
	}

	choice := response.Choices[0]
	for _, tc := range choice.Message.ToolCalls {
		if tc.Function.Name == structuredOutputTool {
			return tc.Function.Arguments, nil
		}
	}

	return choice.Message.Content, nil
}
