package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/lulu-health/lulu/internal/models"
)

// jsonStoreData is the on-disk shape of the JSON store.
type jsonStoreData struct {
	Version    int                             `json:"version"`
	Sessions   map[string]models.Session       `json:"sessions"`
	Questions  map[int]models.Question         `json:"questions"`
	Answers    map[int]models.Answer           `json:"answers"`
	Messages   map[string][]models.ChatMessage `json:"messages"`
	NextQID    int                             `json:"next_question_id"`
	NextAnsID  int                             `json:"next_answer_id"`
	NextMsgID  int                             `json:"next_message_id"`
	NextRowID  int64                           `json:"next_row_id"`
}

// JSONStore is a file-backed Provider used when the config path ends in
// .json. It keeps the whole journal in memory and rewrites the file on every
// mutation, which is fine for one day's worth of Q&A.
type JSONStore struct {
	path string
	data *jsonStoreData
}

func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

func (s *JSONStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return fmt.Errorf("storage already initialized at %s", s.path)
	}

	s.data = newJSONStoreData()
	return s.save()
}

func (s *JSONStore) Load() error {
	if s.data != nil {
		return nil
	}

	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'lulu init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	data := &jsonStoreData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}

	// Ensure maps are initialized
	if data.Sessions == nil {
		data.Sessions = make(map[string]models.Session)
	}
	if data.Questions == nil {
		data.Questions = make(map[int]models.Question)
	}
	if data.Answers == nil {
		data.Answers = make(map[int]models.Answer)
	}
	if data.Messages == nil {
		data.Messages = make(map[string][]models.ChatMessage)
	}

	s.data = data
	return nil
}

func (s *JSONStore) Close() error {
	return nil
}

func newJSONStoreData() *jsonStoreData {
	return &jsonStoreData{
		Version:   1,
		Sessions:  make(map[string]models.Session),
		Questions: make(map[int]models.Question),
		Answers:   make(map[int]models.Answer),
		Messages:  make(map[string][]models.ChatMessage),
		NextQID:   1,
		NextAnsID: 1,
		NextMsgID: 1,
		NextRowID: 1,
	}
}

func (s *JSONStore) save() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

func (s *JSONStore) loaded() error {
	if s.data == nil {
		return fmt.Errorf("storage not loaded")
	}
	return nil
}

func (s *JSONStore) SaveSession(session models.Session) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	if existing, ok := s.data.Sessions[session.SessionID]; ok {
		session.ID = existing.ID
	} else {
		session.ID = s.data.NextRowID
		s.data.NextRowID++
	}
	s.data.Sessions[session.SessionID] = session
	return s.save()
}

func (s *JSONStore) GetSession(sessionID string) (models.Session, error) {
	if err := s.loaded(); err != nil {
		return models.Session{}, err
	}
	session, ok := s.data.Sessions[sessionID]
	if !ok {
		return models.Session{}, fmt.Errorf("session not found")
	}
	return session, nil
}

func (s *JSONStore) GetActiveSession(patientID string) (models.Session, error) {
	if err := s.loaded(); err != nil {
		return models.Session{}, err
	}
	var found *models.Session
	for _, session := range s.data.Sessions {
		if session.PatientID != patientID || !session.Active {
			continue
		}
		if found == nil || session.CreatedAt.After(found.CreatedAt) {
			copied := session
			found = &copied
		}
	}
	if found == nil {
		return models.Session{}, fmt.Errorf("session not found")
	}
	return *found, nil
}

func (s *JSONStore) GetAllSessions() ([]models.Session, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	sessions := make([]models.Session, 0, len(s.data.Sessions))
	for _, session := range s.data.Sessions {
		sessions = append(sessions, session)
	}
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].StartDate < sessions[j].StartDate
	})
	return sessions, nil
}

func (s *JSONStore) CloseSession(sessionID, endDate string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	session, ok := s.data.Sessions[sessionID]
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	session.EndDate = &endDate
	session.Active = false
	s.data.Sessions[sessionID] = session
	return s.save()
}

// DeleteSession removes a session and cascades to its questions, their
// answers, and any cached chat messages tied to those questions.
func (s *JSONStore) DeleteSession(sessionID string) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if _, ok := s.data.Sessions[sessionID]; !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	removed := make(map[int]bool)
	for id, q := range s.data.Questions {
		if q.SessionID != sessionID {
			continue
		}
		removed[id] = true
		for ansID, a := range s.data.Answers {
			if a.QuestionID == id {
				delete(s.data.Answers, ansID)
			}
		}
		delete(s.data.Questions, id)
	}

	for day, msgs := range s.data.Messages {
		kept := make([]models.ChatMessage, 0, len(msgs))
		for _, m := range msgs {
			if m.QuestionID != nil && removed[*m.QuestionID] {
				continue
			}
			kept = append(kept, m)
		}
		if len(kept) == 0 {
			delete(s.data.Messages, day)
		} else {
			s.data.Messages[day] = kept
		}
	}

	delete(s.data.Sessions, sessionID)
	return s.save()
}

func (s *JSONStore) SaveQuestions(questions []models.Question) error {
	if err := s.loaded(); err != nil {
		return err
	}
	for _, q := range questions {
		if q.ID == 0 {
			q.ID = s.data.NextQID
			s.data.NextQID++
		} else if q.ID >= s.data.NextQID {
			s.data.NextQID = q.ID + 1
		}
		if q.CreatedAt.IsZero() {
			q.CreatedAt = time.Now().UTC()
		}
		s.data.Questions[q.ID] = q
	}
	return s.save()
}

func (s *JSONStore) GetQuestion(id int) (models.Question, error) {
	if err := s.loaded(); err != nil {
		return models.Question{}, err
	}
	q, ok := s.data.Questions[id]
	if !ok {
		return models.Question{}, fmt.Errorf("question not found: %d", id)
	}
	return q, nil
}

func (s *JSONStore) GetQuestionsForDay(sessionID, day string) ([]models.Question, error) {
	return s.GetQuestionsInRange(sessionID, day, day)
}

func (s *JSONStore) GetQuestionsInRange(sessionID, startDay, endDay string) ([]models.Question, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var questions []models.Question
	for _, q := range s.data.Questions {
		if q.SessionID == sessionID && q.Day >= startDay && q.Day <= endDay {
			questions = append(questions, q)
		}
	}
	sort.Slice(questions, func(i, j int) bool {
		if questions[i].Day != questions[j].Day {
			return questions[i].Day < questions[j].Day
		}
		return questions[i].OrderIndex < questions[j].OrderIndex
	})
	return questions, nil
}

func (s *JSONStore) SaveAnswer(answer models.Answer) error {
	if err := s.loaded(); err != nil {
		return err
	}
	if answer.ID == 0 {
		answer.ID = s.data.NextAnsID
		s.data.NextAnsID++
	} else if answer.ID >= s.data.NextAnsID {
		s.data.NextAnsID = answer.ID + 1
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}
	s.data.Answers[answer.ID] = answer
	return s.save()
}

func (s *JSONStore) GetAnswersForQuestion(questionID int) ([]models.Answer, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	var answers []models.Answer
	for _, a := range s.data.Answers {
		if a.QuestionID == questionID {
			answers = append(answers, a)
		}
	}
	sort.Slice(answers, func(i, j int) bool {
		return answers[i].CreatedAt.Before(answers[j].CreatedAt)
	})
	return answers, nil
}

func (s *JSONStore) GetAnsweredDays(sessionID string) ([]string, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for _, a := range s.data.Answers {
		q, ok := s.data.Questions[a.QuestionID]
		if ok && q.SessionID == sessionID {
			seen[q.Day] = true
		}
	}
	days := make([]string, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	sort.Strings(days)
	return days, nil
}

func (s *JSONStore) ReplaceMessagesForDay(day string, msgs []models.ChatMessage) error {
	if err := s.loaded(); err != nil {
		return err
	}
	stored := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		m.ID = s.data.NextMsgID
		s.data.NextMsgID++
		m.Day = day
		if m.CreatedAt.IsZero() {
			m.CreatedAt = time.Now().UTC()
		}
		stored = append(stored, m)
	}
	s.data.Messages[day] = stored
	return s.save()
}

func (s *JSONStore) GetMessagesForDay(day string) ([]models.ChatMessage, error) {
	if err := s.loaded(); err != nil {
		return nil, err
	}
	msgs := s.data.Messages[day]
	out := make([]models.ChatMessage, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// GetConfigPath returns the path to the underlying storage file.
//
// Concurrency note:
//   - JSONStore is not safe for concurrent use by multiple goroutines without
//     external synchronization.
//   - Running multiple lulu processes sharing the same storage path is not
//     supported and may lead to data loss.
func (s *JSONStore) GetConfigPath() string {
	return s.path
}
