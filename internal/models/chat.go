package models

import "time"

type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

// Question is a daily prompt belonging to exactly one session.
type Question struct {
	ID         int       `json:"id"`
	SessionID  string    `json:"session_id"`
	Text       string    `json:"text"`
	Day        string    `json:"day"` // YYYY-MM-DD format
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
}

// Answer is the patient's free-text response to a question.
type Answer struct {
	ID         int       `json:"id"`
	QuestionID int       `json:"question_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// ChatMessage is a role-tagged display entry derived from a question or its
// answer. It is a read-optimized cache: when it disagrees with the question
// and answer tables, those tables win.
type ChatMessage struct {
	ID         int       `json:"id"`
	Role       Role      `json:"role"`
	Content    string    `json:"content"`
	QuestionID *int      `json:"question_id,omitempty"`
	Day        string    `json:"day"` // YYYY-MM-DD format
	CreatedAt  time.Time `json:"created_at"`
}

// IsUser reports whether the message was authored by the patient.
func (m ChatMessage) IsUser() bool {
	return m.Role == RoleUser
}
