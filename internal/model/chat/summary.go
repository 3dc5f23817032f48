package chat

// Summary is the sidebar view of a session: a short title derived from the
// identifier and a preview of the latest message.
type Summary struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	Preview   string `json:"preview"`
}
