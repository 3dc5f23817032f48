// Package ai defines the contract between the conversation core and the
// generative-model provider. The provider's conversational state is opaque:
// the core reaches it only through file uploads and message sends.
package ai

import "context"

// FileRef identifies an artifact previously handed to the provider. Providers
// without a file API set Inline and render the payload into the prompt at send
// time.
type FileRef struct {
	URI      string
	Name     string
	MIMEType string
	Inline   []byte
}

// Part is one element of an ordered prompt: a file reference or plain text.
type Part struct {
	Text string
	File *FileRef
}

// Text builds a plain-text part.
func Text(s string) Part {
	return Part{Text: s}
}

// File builds a part referencing an uploaded artifact.
func File(ref FileRef) Part {
	return Part{File: &ref}
}

// Reply is the model output for one turn. Text may be empty; absence of text
// is valid output, not a failure.
type Reply struct {
	Text string
}

// Conversation is the provider-side dialogue state for one session. The
// provider's memory of the exchange is a non-authoritative replica; the
// registry's transcript is the source of truth.
type Conversation interface {
	Send(ctx context.Context, parts []Part) (Reply, error)
}

// Engine is a generative-model provider. Implementations are configured once
// at startup with a fixed system instruction and sampling temperature shared
// by all sessions.
type Engine interface {
	UploadFile(ctx context.Context, data []byte, name, mimeType string) (FileRef, error)
	NewConversation(ctx context.Context) (Conversation, error)
}
