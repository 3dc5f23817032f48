package ark

import (
	"context"
	"strings"
	"testing"

	"github.com/datapilot-ai/backend/internal/service/ai"
)

func TestUploadFileKeepsPayloadInline(t *testing.T) {
	engine := &Engine{}

	ref, err := engine.UploadFile(context.Background(), []byte("region,amount\nwest,42\n"), "sales.csv", "text/csv")
	if err != nil {
		t.Fatalf("UploadFile err: %v", err)
	}
	if ref.Name != "sales.csv" || ref.MIMEType != "text/csv" {
		t.Fatalf("unexpected ref metadata: %+v", ref)
	}
	if string(ref.Inline) != "region,amount\nwest,42\n" {
		t.Fatalf("expected payload carried inline, got %q", ref.Inline)
	}
	if ref.URI != "" {
		t.Fatalf("expected no remote uri, got %q", ref.URI)
	}
}

func TestRenderPartsInlinesFileIntoQuery(t *testing.T) {
	ref := ai.FileRef{
		Name:     "sales.csv",
		MIMEType: "text/csv",
		Inline:   []byte("region,amount\nwest,42\n"),
	}
	query := renderParts([]ai.Part{ai.File(ref), ai.Text("What's the total?")})

	if !strings.Contains(query, "Contents of uploaded file sales.csv (text/csv):") {
		t.Fatalf("expected file header in query, got %q", query)
	}
	if !strings.Contains(query, "region,amount\nwest,42\n") {
		t.Fatalf("expected raw payload in query, got %q", query)
	}
	if !strings.HasSuffix(query, "What's the total?") {
		t.Fatalf("expected user text after the file block, got %q", query)
	}
	// The payload is fenced so the model can tell artifact from instruction.
	if strings.Count(query, "```") != 2 {
		t.Fatalf("expected a fenced file block, got %q", query)
	}
}

func TestRenderPartsTextOnly(t *testing.T) {
	query := renderParts([]ai.Part{ai.Text("Summarize this data")})
	if query != "Summarize this data" {
		t.Fatalf("expected text passed through verbatim, got %q", query)
	}
}
