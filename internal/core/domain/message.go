package domain

import "time"

// Message is a direct message exchanged between two accounts.
type Message struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// HasContent reports whether the message carries text or an image.
func (m *Message) HasContent() bool {
	return m.Text != "" || m.Image != ""
}

// Kind labels the payload shape: "text", "image" or "mixed".
func (m *Message) Kind() string {
	switch {
	case m.Text != "" && m.Image != "":
		return "mixed"
	case m.Image != "":
		return "image"
	default:
		return "text"
	}
}
