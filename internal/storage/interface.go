package storage

import "github.com/lulu-health/lulu/internal/models"

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Sessions
	SaveSession(models.Session) error
	GetSession(sessionID string) (models.Session, error)
	GetActiveSession(patientID string) (models.Session, error)
	GetAllSessions() ([]models.Session, error)
	CloseSession(sessionID, endDate string) error
	DeleteSession(sessionID string) error

	// Questions
	SaveQuestions([]models.Question) error
	GetQuestion(id int) (models.Question, error)
	GetQuestionsForDay(sessionID, day string) ([]models.Question, error)
	GetQuestionsInRange(sessionID, startDay, endDay string) ([]models.Question, error)

	// Answers
	SaveAnswer(models.Answer) error
	GetAnswersForQuestion(questionID int) ([]models.Answer, error)
	GetAnsweredDays(sessionID string) ([]string, error)

	// Chat message cache
	ReplaceMessagesForDay(day string, msgs []models.ChatMessage) error
	GetMessagesForDay(day string) ([]models.ChatMessage, error)

	// Utils
	GetConfigPath() string
}
