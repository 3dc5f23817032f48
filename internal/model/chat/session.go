package chat

import "time"

// Session captures one analytics conversation, scoped to the process lifetime.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}
