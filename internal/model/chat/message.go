package chat

// Senders recorded in transcripts.
const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Message is one half of a conversational turn. Appended exactly once,
// never mutated.
type Message struct {
	Sender string `json:"sender"`
	Text   string `json:"text"`
	// Attachment is the uploaded file name, set only on user messages
	// that carried an upload.
	Attachment string `json:"file,omitempty"`
}
