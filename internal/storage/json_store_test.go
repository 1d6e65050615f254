package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lulu-health/lulu/internal/models"
)

func setupTestJSONStore(t *testing.T) *JSONStore {
	t.Helper()
	store := NewJSONStore(filepath.Join(t.TempDir(), "lulu.json"))
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	return store
}

func TestJSONInitTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lulu.json")
	store := NewJSONStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := NewJSONStore(path).Init(); err == nil {
		t.Error("expected error initializing twice")
	}
}

func TestJSONLoadWithoutInit(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "lulu.json"))
	if err := store.Load(); err == nil {
		t.Fatal("expected error loading uninitialized storage")
	}
}

func TestJSONPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lulu.json")
	store := NewJSONStore(path)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	if err := store.Load(); err != nil {
		t.Fatalf("failed to load store: %v", err)
	}
	saveTestSession(t, store, "sess-1")
	if err := store.SaveQuestions([]models.Question{
		{ID: 42, SessionID: "sess-1", Text: "How did you sleep?", Day: "2026-08-30"},
	}); err != nil {
		t.Fatalf("SaveQuestions failed: %v", err)
	}

	reopened := NewJSONStore(path)
	if err := reopened.Load(); err != nil {
		t.Fatalf("failed to reload store: %v", err)
	}
	q, err := reopened.GetQuestion(42)
	if err != nil {
		t.Fatalf("GetQuestion failed after reopen: %v", err)
	}
	if q.Text != "How did you sleep?" {
		t.Errorf("unexpected question text: %q", q.Text)
	}
}

func TestJSONSessionLifecycle(t *testing.T) {
	store := setupTestJSONStore(t)
	saveTestSession(t, store, "sess-1")

	session, err := store.GetActiveSession("user-1")
	if err != nil {
		t.Fatalf("GetActiveSession failed: %v", err)
	}
	if session.SessionID != "sess-1" {
		t.Errorf("unexpected session: %s", session.SessionID)
	}

	if err := store.CloseSession("sess-1", "2026-08-31"); err != nil {
		t.Fatalf("CloseSession failed: %v", err)
	}
	if _, err := store.GetActiveSession("user-1"); err == nil {
		t.Error("closed session still active")
	}

	if err := store.SaveQuestions([]models.Question{
		{ID: 1, SessionID: "sess-1", Text: "q1", Day: "2026-08-30"},
	}); err != nil {
		t.Fatalf("SaveQuestions failed: %v", err)
	}
	if err := store.SaveAnswer(models.Answer{QuestionID: 1, Text: "fine"}); err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}
	qid := 1
	if err := store.ReplaceMessagesForDay("2026-08-30", []models.ChatMessage{
		{Role: models.RoleAssistant, Content: "q1", QuestionID: &qid},
	}); err != nil {
		t.Fatalf("ReplaceMessagesForDay failed: %v", err)
	}

	if err := store.DeleteSession("sess-1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := store.GetSession("sess-1"); err == nil {
		t.Error("deleted session still visible")
	}
	if _, err := store.GetQuestion(1); err == nil {
		t.Error("question survived session delete")
	}
	if answers, err := store.GetAnswersForQuestion(1); err != nil || len(answers) != 0 {
		t.Errorf("answers survived session delete: %v %v", answers, err)
	}
	if cached, err := store.GetMessagesForDay("2026-08-30"); err != nil || len(cached) != 0 {
		t.Errorf("cached messages survived session delete: %v %v", cached, err)
	}
	if err := store.DeleteSession("sess-1"); err == nil {
		t.Error("expected error deleting an unknown session")
	}
}

func TestJSONQuestionIDAllocation(t *testing.T) {
	store := setupTestJSONStore(t)
	saveTestSession(t, store, "sess-1")

	// A backend-assigned id must push the local counter past it.
	if err := store.SaveQuestions([]models.Question{
		{ID: 10, SessionID: "sess-1", Text: "backend", Day: "2026-08-30", OrderIndex: 0},
		{SessionID: "sess-1", Text: "local", Day: "2026-08-30", OrderIndex: 1},
	}); err != nil {
		t.Fatalf("SaveQuestions failed: %v", err)
	}

	questions, err := store.GetQuestionsForDay("sess-1", "2026-08-30")
	if err != nil {
		t.Fatalf("GetQuestionsForDay failed: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if q.Text == "local" && q.ID <= 10 {
			t.Errorf("locally assigned id %d collides with backend ids", q.ID)
		}
	}
}

func TestJSONAnswersSortedByTime(t *testing.T) {
	store := setupTestJSONStore(t)
	saveTestSession(t, store, "sess-1")
	if err := store.SaveQuestions([]models.Question{
		{ID: 1, SessionID: "sess-1", Text: "q1", Day: "2026-08-30"},
	}); err != nil {
		t.Fatalf("SaveQuestions failed: %v", err)
	}

	now := time.Now().UTC()
	if err := store.SaveAnswer(models.Answer{QuestionID: 1, Text: "later", CreatedAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}
	if err := store.SaveAnswer(models.Answer{QuestionID: 1, Text: "earlier", CreatedAt: now}); err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}

	answers, err := store.GetAnswersForQuestion(1)
	if err != nil {
		t.Fatalf("GetAnswersForQuestion failed: %v", err)
	}
	if len(answers) != 2 || answers[0].Text != "earlier" {
		t.Errorf("answers not sorted by time: %+v", answers)
	}
}

func TestJSONMessageCache(t *testing.T) {
	store := setupTestJSONStore(t)

	qid := 42
	if err := store.ReplaceMessagesForDay("2026-08-30", []models.ChatMessage{
		{Role: models.RoleAssistant, Content: "How did you sleep?", QuestionID: &qid},
	}); err != nil {
		t.Fatalf("ReplaceMessagesForDay failed: %v", err)
	}
	if err := store.ReplaceMessagesForDay("2026-08-30", []models.ChatMessage{
		{Role: models.RoleAssistant, Content: "How did you sleep?", QuestionID: &qid},
		{Role: models.RoleUser, Content: "slept well", QuestionID: &qid},
	}); err != nil {
		t.Fatalf("ReplaceMessagesForDay failed: %v", err)
	}

	got, err := store.GetMessagesForDay("2026-08-30")
	if err != nil {
		t.Fatalf("GetMessagesForDay failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected replacement, got %d messages", len(got))
	}
}
