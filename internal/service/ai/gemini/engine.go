// Package gemini implements the generation engine on the Gemini REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/datapilot-ai/backend/internal/service/ai"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com"

// Config carries the immutable per-process engine settings.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	SystemInstruction string
	Temperature       float64
	Timeout           time.Duration
}

// Engine talks to the Gemini API: file uploads via the resumable upload
// protocol and generation via models:generateContent. Conversation history is
// held client-side and replayed on every call, which is how the provider's
// chat surface works underneath as well.
type Engine struct {
	cfg    Config
	client *http.Client
}

// New creates a Gemini engine from config, filling in defaults.
func New(cfg Config) *Engine {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		// Generation may legitimately take a while; the cap is a safety net,
		// not a latency promise.
		timeout = 5 * time.Minute
	}
	return &Engine{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type geminiPart struct {
	Text     string          `json:"text,omitempty"`
	FileData *geminiFileData `json:"file_data,omitempty"`
}

type geminiFileData struct {
	FileURI  string `json:"file_uri"`
	MIMEType string `json:"mime_type,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *geminiContent   `json:"system_instruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content *geminiContent `json:"content"`
	} `json:"candidates"`
}

type uploadStartRequest struct {
	File struct {
		DisplayName string `json:"display_name"`
	} `json:"file"`
}

type uploadResponse struct {
	File struct {
		Name     string `json:"name"`
		URI      string `json:"uri"`
		MIMEType string `json:"mimeType"`
	} `json:"file"`
}

// UploadFile pushes raw bytes to the Gemini files API and returns the opaque
// reference that generation calls can cite.
func (e *Engine) UploadFile(ctx context.Context, data []byte, name, mimeType string) (ai.FileRef, error) {
	var start uploadStartRequest
	start.File.DisplayName = name
	payload, err := json.Marshal(start)
	if err != nil {
		return ai.FileRef{}, err
	}

	// Step 1: open a resumable upload and learn the upload URL.
	startURL := fmt.Sprintf("%s/upload/v1beta/files?key=%s", e.cfg.BaseURL, e.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, startURL, bytes.NewReader(payload))
	if err != nil {
		return ai.FileRef{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", mimeType)

	resp, err := e.client.Do(req)
	if err != nil {
		return ai.FileRef{}, fmt.Errorf("start upload: %w", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ai.FileRef{}, fmt.Errorf("start upload: unexpected status %d", resp.StatusCode)
	}
	uploadURL := resp.Header.Get("X-Goog-Upload-URL")
	if uploadURL == "" {
		return ai.FileRef{}, fmt.Errorf("start upload: missing upload url")
	}

	// Step 2: send the bytes and finalize in one shot.
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return ai.FileRef{}, err
	}
	req.Header.Set("Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.Header.Set("X-Goog-Upload-Offset", "0")

	resp, err = e.client.Do(req)
	if err != nil {
		return ai.FileRef{}, fmt.Errorf("finalize upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ai.FileRef{}, fmt.Errorf("finalize upload: unexpected status %d", resp.StatusCode)
	}

	var uploaded uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return ai.FileRef{}, fmt.Errorf("decode upload response: %w", err)
	}
	if uploaded.File.URI == "" {
		return ai.FileRef{}, fmt.Errorf("upload response missing file uri")
	}

	return ai.FileRef{
		URI:      uploaded.File.URI,
		Name:     name,
		MIMEType: uploaded.File.MIMEType,
	}, nil
}

// NewConversation starts an empty provider-side dialogue.
func (e *Engine) NewConversation(_ context.Context) (ai.Conversation, error) {
	return &conversation{engine: e}, nil
}

// conversation replays its full held history on every generateContent call.
// Turn serialization is the caller's job; the registry holds one turn lock per
// session.
type conversation struct {
	engine  *Engine
	history []geminiContent
}

func (c *conversation) Send(ctx context.Context, parts []ai.Part) (ai.Reply, error) {
	userTurn := geminiContent{Role: "user"}
	for _, part := range parts {
		if part.File != nil {
			userTurn.Parts = append(userTurn.Parts, geminiPart{
				FileData: &geminiFileData{FileURI: part.File.URI, MIMEType: part.File.MIMEType},
			})
			continue
		}
		userTurn.Parts = append(userTurn.Parts, geminiPart{Text: part.Text})
	}

	request := generateRequest{
		SystemInstruction: &geminiContent{
			Parts: []geminiPart{{Text: c.engine.cfg.SystemInstruction}},
		},
		Contents:         append(append([]geminiContent{}, c.history...), userTurn),
		GenerationConfig: generationConfig{Temperature: c.engine.cfg.Temperature},
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return ai.Reply{}, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.engine.cfg.BaseURL, c.engine.cfg.Model, c.engine.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return ai.Reply{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.engine.client.Do(req)
	if err != nil {
		return ai.Reply{}, fmt.Errorf("generate content: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return ai.Reply{}, fmt.Errorf("generate content: status %d: %s", resp.StatusCode, body)
	}

	var generated generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&generated); err != nil {
		return ai.Reply{}, fmt.Errorf("decode generation response: %w", err)
	}

	text := ""
	if len(generated.Candidates) > 0 && generated.Candidates[0].Content != nil {
		for _, part := range generated.Candidates[0].Content.Parts {
			text += part.Text
		}
	}

	c.history = append(c.history, userTurn, geminiContent{
		Role:  "model",
		Parts: []geminiPart{{Text: text}},
	})

	return ai.Reply{Text: text}, nil
}
