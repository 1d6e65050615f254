package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"
)

// ErrNoMoreQuestions is returned by NextQuestion when every question for the
// day has been answered (HTTP 204). It is a terminal state, not a failure.
var ErrNoMoreQuestions = errors.New("no more questions for today")

const (
	initTimeout     = 15 * time.Second
	questionTimeout = 10 * time.Second
	answerTimeout   = 10 * time.Second
	messagesTimeout = 8 * time.Second
	reportTimeout   = 60 * time.Second
)

// Client wraps the symptom-journal REST backend. All calls honor the passed
// context and additionally enforce a per-endpoint timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

type initSessionRequest struct {
	UserID             int     `json:"user_id"`
	PatientDescription *string `json:"patient_description"`
}

type nextQuestionRequest struct {
	UserID             int     `json:"user_id"`
	PatientDescription *string `json:"patient_description"`
}

// NextQuestion is the backend's answer to "what should the patient be asked
// next".
type NextQuestion struct {
	QuestionID int    `json:"question_id"`
	Text       string `json:"text"`
}

type answerRequest struct {
	UserID     int    `json:"user_id"`
	QuestionID int    `json:"question_id"`
	AnswerText string `json:"answer_text"`
}

// Message is one entry of the backend's chat log.
type Message struct {
	ID         int    `json:"id"`
	Role       string `json:"role"`
	Content    string `json:"content"`
	QuestionID *int   `json:"question_id"`
	CreatedAt  string `json:"created_at"`
}

type reportRequest struct {
	UserID    int     `json:"user_id"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

// Report is the per-question answer timeline returned by the backend:
// question text -> {"A1": "timestamp, answer", ...}.
type Report struct {
	Status    string                       `json:"status"`
	Data      map[string]map[string]string `json:"data"`
	DateRange struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"date_range"`
}

// InitDailySession asks the backend to ensure today's question set exists for
// the user. The call is idempotent on the backend side: repeating it for a
// day that already has questions does not duplicate them.
func (c *Client) InitDailySession(ctx context.Context, userID int, patientDescription *string) error {
	ctx, cancel := context.WithTimeout(ctx, initTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/init_daily_session", initSessionRequest{
		UserID:             userID,
		PatientDescription: patientDescription,
	})
	if err != nil {
		return fmt.Errorf("init session failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("init session failed: %d", resp.StatusCode)
	}
	return nil
}

// NextQuestion returns the next unanswered question for the user, or
// ErrNoMoreQuestions when the day is exhausted.
func (c *Client) NextQuestion(ctx context.Context, userID int, patientDescription *string) (NextQuestion, error) {
	ctx, cancel := context.WithTimeout(ctx, questionTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/chat/next-question", nextQuestionRequest{
		UserID:             userID,
		PatientDescription: patientDescription,
	})
	if err != nil {
		return NextQuestion{}, fmt.Errorf("fetch question failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return NextQuestion{}, ErrNoMoreQuestions
	case resp.StatusCode == http.StatusOK:
		var q NextQuestion
		if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
			return NextQuestion{}, fmt.Errorf("fetch question failed: %w", err)
		}
		return q, nil
	default:
		return NextQuestion{}, fmt.Errorf("fetch question failed: %d", resp.StatusCode)
	}
}

// SubmitAnswer records the patient's answer to a question.
func (c *Client) SubmitAnswer(ctx context.Context, userID, questionID int, answerText string) error {
	ctx, cancel := context.WithTimeout(ctx, answerTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/chat/answer", answerRequest{
		UserID:     userID,
		QuestionID: questionID,
		AnswerText: answerText,
	})
	if err != nil {
		return fmt.Errorf("submit answer failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("submit answer failed: %d", resp.StatusCode)
	}
	return nil
}

// Messages fetches the full chat log for the user, oldest first. A non-2xx
// status yields an empty list rather than an error; only transport failures
// are reported.
func (c *Client) Messages(ctx context.Context, userID int) ([]Message, error) {
	ctx, cancel := context.WithTimeout(ctx, messagesTimeout)
	defer cancel()

	u := fmt.Sprintf("%s/chat/messages?user_id=%s", c.baseURL, url.QueryEscape(strconv.Itoa(userID)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("load messages failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("load messages failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return []Message{}, nil
	}

	var msgs []Message
	if err := json.NewDecoder(resp.Body).Decode(&msgs); err != nil {
		return nil, fmt.Errorf("load messages failed: %w", err)
	}
	return msgs, nil
}

// ReportJSON asks the backend for the answer timeline over a date range.
// Dates are YYYY-MM-DD; either may be empty for an open end.
func (c *Client) ReportJSON(ctx context.Context, userID int, startDate, endDate string) (Report, error) {
	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/generate_report_json", reportRequest{
		UserID:    userID,
		StartDate: optional(startDate),
		EndDate:   optional(endDate),
	})
	if err != nil {
		return Report{}, fmt.Errorf("generate report failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Report{}, fmt.Errorf("generate report failed: %d", resp.StatusCode)
	}

	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return Report{}, fmt.Errorf("generate report failed: %w", err)
	}
	return report, nil
}

// ReportPDF downloads the physician-ready PDF report into destPath.
func (c *Client) ReportPDF(ctx context.Context, userID int, startDate, endDate, destPath string) error {
	ctx, cancel := context.WithTimeout(ctx, reportTimeout)
	defer cancel()

	resp, err := c.post(ctx, "/generate_report_pdf", reportRequest{
		UserID:    userID,
		StartDate: optional(startDate),
		EndDate:   optional(endDate),
	})
	if err != nil {
		return fmt.Errorf("download report failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("download report failed: %d", resp.StatusCode)
	}

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write report file: %w", err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, endpoint string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
