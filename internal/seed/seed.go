package seed

import (
	"fmt"
	"time"

	"github.com/lulu-health/lulu/internal/models"
	"github.com/lulu-health/lulu/internal/storage"
)

// DefaultSessionID identifies the session created by seeding when the patient
// has no active session yet.
const DefaultSessionID = "mock-session-1"

// DefaultQuestions is today's baseline symptom check-in, asked in order.
var DefaultQuestions = []string{
	"How did you sleep last night?",
	"On a scale of 1 to 10, how would you rate your pain today?",
	"Have you experienced any shortness of breath today?",
	"Have you felt nauseous or had trouble eating?",
	"How would you describe your energy level today?",
	"Have you noticed any new or worsening symptoms?",
}

// Run seeds the store in the background and reports the result on the
// returned channel. The channel carries exactly one value and is buffered, so
// the result can be collected late or never.
func Run(store storage.Provider, patientID, day string) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- Seed(store, patientID, day)
	}()
	return done
}

// Seed ensures the patient has an active session and that the given day has a
// question set. It is idempotent: existing sessions and questions are left
// untouched.
func Seed(store storage.Provider, patientID, day string) error {
	session, err := store.GetActiveSession(patientID)
	if err != nil {
		session = models.Session{
			SessionID: DefaultSessionID,
			PatientID: patientID,
			StartDate: day,
			Active:    true,
			CreatedAt: time.Now().UTC(),
		}
		if err := store.SaveSession(session); err != nil {
			return fmt.Errorf("failed to seed session: %w", err)
		}
	}

	existing, err := store.GetQuestionsForDay(session.SessionID, day)
	if err != nil {
		return fmt.Errorf("failed to check seeded questions: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	questions := make([]models.Question, 0, len(DefaultQuestions))
	now := time.Now().UTC()
	for i, text := range DefaultQuestions {
		questions = append(questions, models.Question{
			SessionID:  session.SessionID,
			Text:       text,
			Day:        day,
			OrderIndex: i,
			CreatedAt:  now,
		})
	}
	if err := store.SaveQuestions(questions); err != nil {
		return fmt.Errorf("failed to seed questions: %w", err)
	}
	return nil
}
