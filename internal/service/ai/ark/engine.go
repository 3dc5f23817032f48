// Package ark implements the generation engine on Volcengine Ark through the
// eino chain API. Ark has no file-upload surface, so attachments travel inline:
// UploadFile returns a reference carrying the raw bytes and Send renders them
// into the prompt text.
package ark

import (
	"context"
	"fmt"
	"strings"

	einoark "github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/datapilot-ai/backend/internal/service/ai"
)

// Config carries the Ark credentials and sampling settings.
type Config struct {
	APIKey            string
	AccessKey         string
	SecretKey         string
	Model             string
	BaseURL           string
	Region            string
	SystemInstruction string
	Temperature       float64
}

// Engine drives an Ark chat model through a compiled eino chain.
type Engine struct {
	cfg      Config
	runnable compose.Runnable[map[string]any, *schema.Message]
}

// New builds the chat model and compiles the prompt chain once for the process.
func New(ctx context.Context, cfg Config) (*Engine, error) {
	temperature := float32(cfg.Temperature)
	chatModel, err := einoark.NewChatModel(ctx, &einoark.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		Region:      cfg.Region,
		APIKey:      cfg.APIKey,
		AccessKey:   cfg.AccessKey,
		SecretKey:   cfg.SecretKey,
		Model:       cfg.Model,
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("create ark chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chat chain: %w", err)
	}

	return &Engine{cfg: cfg, runnable: runnable}, nil
}

// UploadFile keeps the payload inline; there is no provider-side file store.
func (e *Engine) UploadFile(_ context.Context, data []byte, name, mimeType string) (ai.FileRef, error) {
	return ai.FileRef{Name: name, MIMEType: mimeType, Inline: data}, nil
}

// NewConversation starts an empty provider-side dialogue.
func (e *Engine) NewConversation(_ context.Context) (ai.Conversation, error) {
	return &conversation{engine: e}, nil
}

type conversation struct {
	engine  *Engine
	history []*schema.Message
}

func (c *conversation) Send(ctx context.Context, parts []ai.Part) (ai.Reply, error) {
	query := renderParts(parts)

	input := map[string]any{
		"system":  c.engine.cfg.SystemInstruction,
		"history": c.history,
		"query":   query,
	}

	response, err := c.engine.runnable.Invoke(ctx, input)
	if err != nil {
		return ai.Reply{}, fmt.Errorf("run chat chain: %w", err)
	}

	c.history = append(c.history,
		schema.UserMessage(query),
		schema.AssistantMessage(response.Content, nil),
	)

	return ai.Reply{Text: response.Content}, nil
}

// renderParts flattens the ordered content parts into one user query, fencing
// inline file payloads so the model can tell artifact from instruction.
func renderParts(parts []ai.Part) string {
	var builder strings.Builder
	for _, part := range parts {
		if part.File != nil {
			builder.WriteString(fmt.Sprintf("Contents of uploaded file %s (%s):\n```\n",
				part.File.Name, part.File.MIMEType))
			builder.Write(part.File.Inline)
			builder.WriteString("\n```\n")
			continue
		}
		builder.WriteString(part.Text)
	}
	return builder.String()
}
