package entity

import "time"

const (
	MessageKindText    = "text"
	MessageKindSticker = "sticker"
)

// ChatMessage is subordinate to a session and ordered by creation time.
// The creation timestamp is assigned by the store at write time, and the
// payload is plain text or a sticker reference, never both.
type ChatMessage struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Kind      string    `json:"kind"`
	Text      string    `json:"text,omitempty"`
	Sticker   string    `json:"sticker,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
