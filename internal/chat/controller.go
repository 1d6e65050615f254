package chat

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode"

	"github.com/lulu-health/lulu/internal/backend"
	"github.com/lulu-health/lulu/internal/models"
	"github.com/lulu-health/lulu/internal/storage"
	"github.com/lulu-health/lulu/internal/validation"
)

// Backend is the slice of the REST client the controller needs. Declared here
// so tests can substitute a fake.
type Backend interface {
	InitDailySession(ctx context.Context, userID int, patientDescription *string) error
	NextQuestion(ctx context.Context, userID int, patientDescription *string) (backend.NextQuestion, error)
	SubmitAnswer(ctx context.Context, userID, questionID int, answerText string) error
	Messages(ctx context.Context, userID int) ([]backend.Message, error)
}

// Snapshot is an immutable view of the flow state, safe to hand to the UI.
type Snapshot struct {
	Messages         []models.ChatMessage
	ActiveQuestionID *int
	ActiveQuestion   string
	Exhausted        bool
	LastError        *FlowError
}

// Controller drives the daily question and answer session. All operations are
// serialized by an internal mutex: overlapping calls from the UI and the
// seeding goroutine never interleave mid-flow.
//
// Advance is the only writer of the active question pointer. A nil pointer
// means either "no more questions today" or "last fetch failed"; the two are
// distinguished internally by the exhausted flag so a retry can be offered
// for the latter.
type Controller struct {
	mu      sync.Mutex
	store   storage.Provider
	backend Backend

	userID             int
	patientDescription *string
	sessionID          string
	day                string

	messages         []models.ChatMessage
	activeQuestionID *int
	activeQuestion   string
	exhausted        bool
	lastError        *FlowError
	initialized      bool
}

// NewController wires a flow controller for one patient day. day is
// YYYY-MM-DD and scopes the local message cache.
func NewController(store storage.Provider, client Backend, userID int, patientDescription *string, sessionID, day string) *Controller {
	return &Controller{
		store:              store,
		backend:            client,
		userID:             userID,
		patientDescription: patientDescription,
		sessionID:          sessionID,
		day:                day,
	}
}

// Initialize asks the backend to prepare today's questions, loads the chat
// log, and fetches the first unanswered question. Calling it again after a
// successful run is a no-op returning the current state. After a failed run
// the flow has not advanced and the call may be repeated to retry.
func (c *Controller) Initialize(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		return c.snapshotLocked()
	}

	c.lastError = nil
	if err := c.backend.InitDailySession(ctx, c.userID, c.patientDescription); err != nil {
		c.lastError = newFlowError(KindInitialization, displayText(err), err)
		return c.snapshotLocked()
	}
	c.initialized = true
	c.reloadMessagesLocked(ctx)
	c.advanceLocked(ctx)
	return c.snapshotLocked()
}

// Advance fetches the next unanswered question and makes it active.
func (c *Controller) Advance(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = nil
	c.advanceLocked(ctx)
	return c.snapshotLocked()
}

// Submit records the patient's answer to the active question, then refreshes
// the log and advances to the next question. Validation failures short
// circuit before any network call; the caller keeps the typed text and may
// retry.
func (c *Controller) Submit(ctx context.Context, questionID int, answerText string) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = nil

	if err := validation.AnswerText(answerText); err != nil {
		c.lastError = newFlowError(KindValidation, displayText(err), err)
		return c.snapshotLocked()
	}
	if c.activeQuestionID == nil || *c.activeQuestionID != questionID {
		c.lastError = newFlowError(KindValidation, "Question is no longer active", nil)
		return c.snapshotLocked()
	}

	if err := c.backend.SubmitAnswer(ctx, c.userID, questionID, answerText); err != nil {
		c.lastError = newFlowError(KindSubmitAnswer, displayText(err), err)
		return c.snapshotLocked()
	}

	if err := c.store.SaveAnswer(models.Answer{
		QuestionID: questionID,
		Text:       answerText,
		CreatedAt:  time.Now().UTC(),
	}); err != nil {
		c.lastError = newFlowError(KindStore, "Failed to save answer locally", err)
	}

	// The backend accepted the answer; refresh and advance are best effort
	// and each records its own failure without undoing the submit.
	c.reloadMessagesLocked(ctx)
	c.advanceLocked(ctx)
	c.reloadMessagesLocked(ctx)
	return c.snapshotLocked()
}

// ReloadMessages replaces the in-memory chat log from the backend, falling
// back to a reconstruction from local questions and answers when the backend
// is unreachable.
func (c *Controller) ReloadMessages(ctx context.Context) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastError = nil
	c.reloadMessagesLocked(ctx)
	return c.snapshotLocked()
}

// Snapshot returns the current flow state without touching the backend.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) advanceLocked(ctx context.Context) {
	q, err := c.backend.NextQuestion(ctx, c.userID, c.patientDescription)
	switch {
	case errors.Is(err, backend.ErrNoMoreQuestions):
		c.activeQuestionID = nil
		c.activeQuestion = ""
		c.exhausted = true
	case err != nil:
		c.activeQuestionID = nil
		c.activeQuestion = ""
		c.exhausted = false
		c.lastError = newFlowError(KindFetchQuestion, displayText(err), err)
	default:
		id := q.QuestionID
		c.activeQuestionID = &id
		c.activeQuestion = q.Text
		c.exhausted = false
		if err := c.store.SaveQuestions([]models.Question{{
			ID:        q.QuestionID,
			SessionID: c.sessionID,
			Text:      q.Text,
			Day:       c.day,
			CreatedAt: time.Now().UTC(),
		}}); err != nil {
			c.lastError = newFlowError(KindStore, "Failed to save question locally", err)
		}
	}
}

func (c *Controller) reloadMessagesLocked(ctx context.Context) {
	remote, err := c.backend.Messages(ctx, c.userID)
	if err != nil {
		c.lastError = newFlowError(KindLoadMessages, displayText(err), err)
		c.messages = c.reconstructLocked()
		return
	}

	msgs := make([]models.ChatMessage, 0, len(remote))
	for _, m := range remote {
		msgs = append(msgs, models.ChatMessage{
			ID:         m.ID,
			Role:       models.Role(m.Role),
			Content:    m.Content,
			QuestionID: m.QuestionID,
			Day:        c.day,
			CreatedAt:  parseMessageTime(m.CreatedAt),
		})
	}
	c.messages = msgs

	if err := c.store.ReplaceMessagesForDay(c.day, msgs); err != nil {
		c.lastError = newFlowError(KindStore, "Failed to cache messages locally", err)
	}
}

// reconstructLocked rebuilds the chat log from the question and answer
// tables: each question as an assistant message followed by its answers as
// user messages, oldest first.
func (c *Controller) reconstructLocked() []models.ChatMessage {
	questions, err := c.store.GetQuestionsForDay(c.sessionID, c.day)
	if err != nil {
		return c.messages
	}

	var msgs []models.ChatMessage
	for _, q := range questions {
		qid := q.ID
		msgs = append(msgs, models.ChatMessage{
			Role:       models.RoleAssistant,
			Content:    q.Text,
			QuestionID: &qid,
			Day:        c.day,
			CreatedAt:  q.CreatedAt,
		})
		answers, err := c.store.GetAnswersForQuestion(q.ID)
		if err != nil {
			continue
		}
		for _, a := range answers {
			msgs = append(msgs, models.ChatMessage{
				Role:       models.RoleUser,
				Content:    a.Text,
				QuestionID: &qid,
				Day:        c.day,
				CreatedAt:  a.CreatedAt,
			})
		}
	}
	return msgs
}

func (c *Controller) snapshotLocked() Snapshot {
	msgs := make([]models.ChatMessage, len(c.messages))
	copy(msgs, c.messages)

	var active *int
	if c.activeQuestionID != nil {
		id := *c.activeQuestionID
		active = &id
	}

	return Snapshot{
		Messages:         msgs,
		ActiveQuestionID: active,
		ActiveQuestion:   c.activeQuestion,
		Exhausted:        c.exhausted,
		LastError:        c.lastError,
	}
}

func parseMessageTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// displayText turns an error into a user-facing sentence.
func displayText(err error) string {
	s := err.Error()
	if s == "" {
		return "Something went wrong"
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

var _ Backend = (*backend.Client)(nil)
