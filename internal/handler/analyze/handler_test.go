package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/datapilot-ai/backend/internal/service/ai"
	"github.com/datapilot-ai/backend/internal/service/analyst"
	chatservice "github.com/datapilot-ai/backend/internal/service/chat"
	"github.com/datapilot-ai/backend/internal/store"
)

type fakeEngine struct {
	reply   string
	sendErr error
	sent    [][]ai.Part
}

func (e *fakeEngine) UploadFile(_ context.Context, data []byte, name, mimeType string) (ai.FileRef, error) {
	return ai.FileRef{URI: "fake://" + name, Name: name, MIMEType: mimeType, Inline: data}, nil
}

func (e *fakeEngine) NewConversation(_ context.Context) (ai.Conversation, error) {
	return &fakeConversation{engine: e}, nil
}

type fakeConversation struct {
	engine *fakeEngine
}

func (c *fakeConversation) Send(_ context.Context, parts []ai.Part) (ai.Reply, error) {
	if c.engine.sendErr != nil {
		return ai.Reply{}, c.engine.sendErr
	}
	c.engine.sent = append(c.engine.sent, parts)
	return ai.Reply{Text: c.engine.reply}, nil
}

func setupRouter(engine *fakeEngine) (*chi.Mux, *chatservice.Registry) {
	registry := chatservice.NewRegistry(store.NewMemory(), engine)
	svc := analyst.NewService(registry, engine, nil)

	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r, registry
}

type analyzePayload struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

func TestAnalyzeNewSession(t *testing.T) {
	r, registry := setupRouter(&fakeEngine{reply: "Looks like steady growth."})

	form := url.Values{"text": {"Summarize this data"}}
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload analyzePayload
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.SessionID == "" {
		t.Fatal("expected generated session id in response")
	}
	if payload.Response != "Looks like steady growth." {
		t.Fatalf("unexpected response text: %q", payload.Response)
	}

	transcript, err := registry.Transcript(req.Context(), payload.SessionID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(transcript) != 2 {
		t.Fatalf("expected 2 recorded messages, got %d", len(transcript))
	}
}

func TestAnalyzeMissingText(t *testing.T) {
	r, _ := setupRouter(&fakeEngine{})

	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestAnalyzeMultipartWithFile(t *testing.T) {
	engine := &fakeEngine{reply: "Total is 42."}
	r, registry := setupRouter(engine)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("text", "What's the total?"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	part, err := writer.CreateFormFile("file", "sales.csv")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("region,amount\nwest,42\n")); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var payload analyzePayload
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	transcript, _ := registry.Transcript(req.Context(), payload.SessionID)
	if len(transcript) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(transcript))
	}
	if transcript[0].Attachment != "sales.csv" {
		t.Fatalf("expected recorded attachment name, got %q", transcript[0].Attachment)
	}
	if transcript[0].Text != "What's the total?" {
		t.Fatalf("transcript must hold the raw user text, got %q", transcript[0].Text)
	}

	// The preamble goes to the provider only.
	if len(engine.sent) != 1 || len(engine.sent[0]) != 2 {
		t.Fatalf("expected [file, text] sent to provider, got %+v", engine.sent)
	}
	if !strings.Contains(engine.sent[0][1].Text, "sales.csv") {
		t.Fatalf("expected preamble naming the file, got %q", engine.sent[0][1].Text)
	}
}

func TestAnalyzeSessionContinuity(t *testing.T) {
	r, _ := setupRouter(&fakeEngine{reply: "ok"})

	send := func(sessionID string) analyzePayload {
		form := url.Values{"text": {"hello"}}
		if sessionID != "" {
			form.Set("session_id", sessionID)
		}
		req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		var payload analyzePayload
		if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		return payload
	}

	first := send("")
	second := send(first.SessionID)
	if second.SessionID != first.SessionID {
		t.Fatalf("expected stable session id, got %s then %s", first.SessionID, second.SessionID)
	}
}

func TestAnalyzeGenerationFailure(t *testing.T) {
	r, _ := setupRouter(&fakeEngine{sendErr: errors.New("model down")})

	form := url.Values{"text": {"hello"}}
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.Code)
	}
}
