// Package storefront runs the customer-facing shopkeeper: an Anthropic
// model driving the order tools over a conversational loop.
package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/adalundhe/shopkeep/core/skills"
)

const (
	// DefaultModel handles customer conversations.
	DefaultModel = "claude-sonnet-4-20250514"

	// DefaultMaxOutputTokens per assistant turn.
	DefaultMaxOutputTokens = 4096

	// maxToolRounds bounds a single turn so a misbehaving tool loop
	// cannot spin forever.
	maxToolRounds = 10
)

// MessagesClient is the slice of the Anthropic API the agent uses,
// extracted so tests can swap in a mock.
type MessagesClient interface {
	New(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error)
}

type realMessagesClient struct {
	messages *anthropic.MessageService
}

func (r *realMessagesClient) New(ctx context.Context, params anthropic.MessageNewParams) (*anthropic.Message, error) {
	return r.messages.New(ctx, params)
}

// AgentConfig configures the shopkeeper agent.
type AgentConfig struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	SystemPrompt string
	Logger       *slog.Logger
}

// Agent holds the conversation with one customer. It is not safe for
// concurrent use; run one Agent per session.
type Agent struct {
	client   MessagesClient
	registry *skills.Registry
	logger   *slog.Logger

	model        string
	maxTokens    int64
	systemPrompt string

	history []anthropic.MessageParam
}

// NewAgent builds the shopkeeper over the given tool registry.
func NewAgent(cfg AgentConfig, registry *skills.Registry) *Agent {
	opts := []option.RequestOption{}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	agent := NewAgentWithClient(cfg, registry, &realMessagesClient{messages: &client.Messages})
	return agent
}

// NewAgentWithClient builds an agent over an explicit API client.
func NewAgentWithClient(cfg AgentConfig, registry *skills.Registry, client MessagesClient) *Agent {
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens == 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	systemPrompt := cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = DefaultSystemPrompt
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		client:       client,
		registry:     registry,
		logger:       logger,
		model:        model,
		maxTokens:    maxTokens,
		systemPrompt: systemPrompt,
	}
}

// Chat sends one customer message and runs the model until it stops
// asking for tools, returning the assistant's final text.
func (a *Agent) Chat(ctx context.Context, userMessage string) (string, error) {
	a.history = append(a.history, anthropic.NewUserMessage(
		anthropic.NewTextBlock(userMessage),
	))

	for round := 0; round < maxToolRounds; round++ {
		msg, err := a.client.New(ctx, anthropic.MessageNewParams{
			Model:     anthropic.Model(a.model),
			MaxTokens: a.maxTokens,
			System: []anthropic.TextBlockParam{
				{Text: a.systemPrompt},
			},
			Messages: a.history,
			Tools:    a.toolParams(),
		})
		if err != nil {
			return "", fmt.Errorf("shopkeeper turn: %w", err)
		}

		a.history = append(a.history, msg.ToParam())

		if msg.StopReason != anthropic.StopReasonToolUse {
			return collectText(msg), nil
		}

		results, err := a.runTools(ctx, msg)
		if err != nil {
			return "", err
		}
		a.history = append(a.history, anthropic.NewUserMessage(results...))
	}

	return "", fmt.Errorf("tool loop exceeded %d rounds", maxToolRounds)
}

// Reset drops the conversation history.
func (a *Agent) Reset() {
	a.history = nil
}

// runTools executes every tool_use block and packages the results.
func (a *Agent) runTools(ctx context.Context, msg *anthropic.Message) ([]anthropic.ContentBlockParamUnion, error) {
	var results []anthropic.ContentBlockParamUnion

	for _, block := range msg.Content {
		tu, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok {
			continue
		}

		input, err := tu.Input.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("tool %s input: %w", tu.Name, err)
		}

		a.logger.Info("tool call", "tool", tu.Name)
		result := a.registry.Invoke(ctx, tu.Name, input)

		payload, isError := renderToolResult(result)
		results = append(results, anthropic.NewToolResultBlock(tu.ID, payload, isError))
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("tool_use stop with no tool_use blocks")
	}
	return results, nil
}

// renderToolResult serializes an invocation for the model. Business
// failures travel inside the payload; isError is reserved for invocation
// breakage like an unknown tool.
func renderToolResult(result *skills.Result) (string, bool) {
	if !result.Success {
		payload, err := json.Marshal(map[string]any{"error": result.Error})
		if err != nil {
			return result.Error, true
		}
		return string(payload), true
	}

	payload, err := json.Marshal(result.Data)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error()), true
	}
	return string(payload), false
}

func (a *Agent) toolParams() []anthropic.ToolUnionParam {
	all := a.registry.GetAll()
	params := make([]anthropic.ToolUnionParam, len(all))
	for i, skill := range all {
		params[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        skill.Name,
				Description: anthropic.String(skill.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       "object",
					Properties: skill.InputSchema.Properties,
					Required:   skill.InputSchema.Required,
				},
			},
		}
	}
	return params
}

func collectText(msg *anthropic.Message) string {
	var text string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += tb.Text
		}
	}
	return text
}
