package models

import "time"

// Session represents one bounded period of symptom tracking for a patient
type Session struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"session_id"`
	PatientID string    `json:"patient_id"`
	StartDate string    `json:"start_date"` // YYYY-MM-DD format
	EndDate   *string   `json:"end_date,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Closed reports whether the tracking period has ended.
func (s Session) Closed() bool {
	return s.EndDate != nil
}
