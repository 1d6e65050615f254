package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestNextQuestionOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/next-question" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req["user_id"] != float64(1) {
			t.Errorf("expected user_id 1, got %v", req["user_id"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"question_id": 42, "text": "How did you sleep?"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	q, err := client.NextQuestion(context.Background(), 1, nil)
	if err != nil {
		t.Fatalf("NextQuestion failed: %v", err)
	}
	if q.QuestionID != 42 {
		t.Errorf("expected question id 42, got %d", q.QuestionID)
	}
	if q.Text != "How did you sleep?" {
		t.Errorf("unexpected question text: %q", q.Text)
	}
}

func TestNextQuestionExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.NextQuestion(context.Background(), 1, nil)
	if !errors.Is(err, ErrNoMoreQuestions) {
		t.Fatalf("expected ErrNoMoreQuestions, got %v", err)
	}
}

func TestNextQuestionServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.NextQuestion(context.Background(), 1, nil)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if errors.Is(err, ErrNoMoreQuestions) {
		t.Fatal("500 must not be reported as exhaustion")
	}
}

func TestSubmitAnswer(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/answer" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.SubmitAnswer(context.Background(), 1, 42, "slept well"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if got["question_id"] != float64(42) {
		t.Errorf("expected question_id 42, got %v", got["question_id"])
	}
	if got["answer_text"] != "slept well" {
		t.Errorf("expected answer_text 'slept well', got %v", got["answer_text"])
	}
}

func TestSubmitAnswerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.SubmitAnswer(context.Background(), 1, 42, "slept well")
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("user_id") != "1" {
			t.Errorf("expected user_id=1, got %s", r.URL.Query().Get("user_id"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "role": "assistant", "content": "How did you sleep?", "question_id": 42, "created_at": "2026-08-30T08:00:00Z"},
			{"id": 2, "role": "user", "content": "slept well", "question_id": 42, "created_at": "2026-08-30T08:01:00Z"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	msgs, err := client.Messages(context.Background(), 1)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "assistant" || msgs[1].Role != "user" {
		t.Errorf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[0].QuestionID == nil || *msgs[0].QuestionID != 42 {
		t.Errorf("expected question_id 42, got %v", msgs[0].QuestionID)
	}
}

func TestMessagesNon2xxIsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	msgs, err := client.Messages(context.Background(), 1)
	if err != nil {
		t.Fatalf("expected nil error for non-2xx, got %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected empty message list, got %d entries", len(msgs))
	}
}

func TestInitDailySession(t *testing.T) {
	desc := "post-op recovery"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/init_daily_session" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req["patient_description"] != desc {
			t.Errorf("expected patient_description %q, got %v", desc, req["patient_description"])
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if err := client.InitDailySession(context.Background(), 1, &desc); err != nil {
		t.Fatalf("InitDailySession failed: %v", err)
	}
}

func TestReportJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req["start_date"] != "2026-08-01" {
			t.Errorf("expected start_date 2026-08-01, got %v", req["start_date"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"data": map[string]map[string]string{
				"How did you sleep?": {"A1": "2026-08-01 08:00, slept well"},
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	report, err := client.ReportJSON(context.Background(), 1, "2026-08-01", "2026-08-31")
	if err != nil {
		t.Fatalf("ReportJSON failed: %v", err)
	}
	if report.Status != "ok" {
		t.Errorf("expected status ok, got %s", report.Status)
	}
	if len(report.Data["How did you sleep?"]) != 1 {
		t.Errorf("expected 1 answer for question, got %d", len(report.Data["How did you sleep?"]))
	}
}

func TestReportPDF(t *testing.T) {
	content := []byte("%PDF-1.4 fake")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write(content)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "report.pdf")
	client := NewClient(server.URL)
	if err := client.ReportPDF(context.Background(), 1, "", "", dest); err != nil {
		t.Fatalf("ReportPDF failed: %v", err)
	}

	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("failed to read downloaded report: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("downloaded report does not match served content")
	}
}
