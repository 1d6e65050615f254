package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/lulu-health/lulu/internal/migration"
	"github.com/lulu-health/lulu/internal/models"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
	}
}

func (s *SQLiteStore) Init() error {
	// Create config directory if it doesn't exist
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'lulu init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	runner := migration.NewRunner(s.db, s.migrationFS())
	if err := runner.Validate(); err != nil {
		return err
	}

	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) migrationFS() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// The migrations directory is compiled into the binary; a failure
		// here means a broken build, not a runtime condition.
		panic(err)
	}
	return sub
}

func (s *SQLiteStore) runMigrations() error {
	runner := migration.NewRunner(s.db, s.migrationFS())
	_, err := runner.Apply(nil)
	return err
}

func (s *SQLiteStore) SaveSession(session models.Session) error {
	var endDate sql.NullString
	if session.EndDate != nil {
		endDate = sql.NullString{String: *session.EndDate, Valid: true}
	}

	createdAt := session.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO sessions (session_id, patient_id, start_date, end_date, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			patient_id = excluded.patient_id,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			active = excluded.active`,
		session.SessionID, session.PatientID, session.StartDate, endDate,
		session.Active, createdAt.Format(time.RFC3339),
	)
	return err
}

func (s *SQLiteStore) GetSession(sessionID string) (models.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, patient_id, start_date, end_date, active, created_at
		FROM sessions WHERE session_id = ?`, sessionID)
	return scanSession(row)
}

func (s *SQLiteStore) GetActiveSession(patientID string) (models.Session, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, patient_id, start_date, end_date, active, created_at
		FROM sessions
		WHERE patient_id = ? AND active = 1
		ORDER BY created_at DESC LIMIT 1`, patientID)
	return scanSession(row)
}

func (s *SQLiteStore) GetAllSessions() ([]models.Session, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, patient_id, start_date, end_date, active, created_at
		FROM sessions ORDER BY start_date ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (s *SQLiteStore) CloseSession(sessionID, endDate string) error {
	res, err := s.db.Exec(
		"UPDATE sessions SET end_date = ?, active = 0 WHERE session_id = ?",
		endDate, sessionID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

// DeleteSession removes a session and cascades to its questions, their
// answers, and any cached chat messages tied to those questions. The cascade
// is explicit so it holds even on a connection opened without the
// foreign_keys pragma.
func (s *SQLiteStore) DeleteSession(sessionID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow("SELECT COUNT(*) FROM sessions WHERE session_id = ?", sessionID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	if _, err := tx.Exec(
		"DELETE FROM chat_messages WHERE question_id IN (SELECT id FROM questions WHERE session_id = ?)",
		sessionID,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"DELETE FROM answers WHERE question_id IN (SELECT id FROM questions WHERE session_id = ?)",
		sessionID,
	); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM questions WHERE session_id = ?", sessionID); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM sessions WHERE session_id = ?", sessionID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) SaveQuestions(questions []models.Question) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	withID, err := tx.Prepare(`
		INSERT OR REPLACE INTO questions (id, session_id, text, day, order_index, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer withID.Close()

	withoutID, err := tx.Prepare(`
		INSERT INTO questions (session_id, text, day, order_index, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer withoutID.Close()

	for _, q := range questions {
		createdAt := q.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		ts := createdAt.Format(time.RFC3339)

		if q.ID != 0 {
			_, err = withID.Exec(q.ID, q.SessionID, q.Text, q.Day, q.OrderIndex, ts)
		} else {
			_, err = withoutID.Exec(q.SessionID, q.Text, q.Day, q.OrderIndex, ts)
		}
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetQuestion(id int) (models.Question, error) {
	row := s.db.QueryRow(`
		SELECT id, session_id, text, day, order_index, created_at
		FROM questions WHERE id = ?`, id)

	q, err := scanQuestion(row)
	if err == sql.ErrNoRows {
		return models.Question{}, fmt.Errorf("question not found: %d", id)
	}
	return q, err
}

func (s *SQLiteStore) GetQuestionsForDay(sessionID, day string) ([]models.Question, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, text, day, order_index, created_at
		FROM questions WHERE session_id = ? AND day = ?
		ORDER BY order_index ASC`, sessionID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (s *SQLiteStore) GetQuestionsInRange(sessionID, startDay, endDay string) ([]models.Question, error) {
	rows, err := s.db.Query(`
		SELECT id, session_id, text, day, order_index, created_at
		FROM questions WHERE session_id = ? AND day >= ? AND day <= ?
		ORDER BY day ASC, order_index ASC`, sessionID, startDay, endDay)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectQuestions(rows)
}

func (s *SQLiteStore) SaveAnswer(answer models.Answer) error {
	createdAt := answer.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	ts := createdAt.Format(time.RFC3339)

	if answer.ID != 0 {
		_, err := s.db.Exec(
			"INSERT OR REPLACE INTO answers (id, question_id, text, created_at) VALUES (?, ?, ?, ?)",
			answer.ID, answer.QuestionID, answer.Text, ts,
		)
		return err
	}

	_, err := s.db.Exec(
		"INSERT INTO answers (question_id, text, created_at) VALUES (?, ?, ?)",
		answer.QuestionID, answer.Text, ts,
	)
	return err
}

func (s *SQLiteStore) GetAnswersForQuestion(questionID int) ([]models.Answer, error) {
	rows, err := s.db.Query(`
		SELECT id, question_id, text, created_at
		FROM answers WHERE question_id = ? ORDER BY created_at ASC`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []models.Answer
	for rows.Next() {
		var a models.Answer
		var createdAt string
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt = parseTimestamp(createdAt)
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (s *SQLiteStore) GetAnsweredDays(sessionID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT DISTINCT q.day
		FROM questions q JOIN answers a ON a.question_id = q.id
		WHERE q.session_id = ?
		ORDER BY q.day ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []string
	for rows.Next() {
		var day string
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

func (s *SQLiteStore) ReplaceMessagesForDay(day string, msgs []models.ChatMessage) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM chat_messages WHERE day = ?", day); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`
		INSERT INTO chat_messages (role, content, question_id, day, created_at)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, m := range msgs {
		var questionID sql.NullInt64
		if m.QuestionID != nil {
			questionID = sql.NullInt64{Int64: int64(*m.QuestionID), Valid: true}
		}
		createdAt := m.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		if _, err := stmt.Exec(string(m.Role), m.Content, questionID, day, createdAt.Format(time.RFC3339)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetMessagesForDay(day string) ([]models.ChatMessage, error) {
	rows, err := s.db.Query(`
		SELECT id, role, content, question_id, day, created_at
		FROM chat_messages WHERE day = ? ORDER BY created_at ASC, id ASC`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var role, createdAt string
		var questionID sql.NullInt64
		if err := rows.Scan(&m.ID, &role, &m.Content, &questionID, &m.Day, &createdAt); err != nil {
			return nil, err
		}
		m.Role = models.Role(role)
		if questionID.Valid {
			qid := int(questionID.Int64)
			m.QuestionID = &qid
		}
		m.CreatedAt = parseTimestamp(createdAt)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (models.Session, error) {
	var session models.Session
	var endDate sql.NullString
	var createdAt string

	err := row.Scan(&session.ID, &session.SessionID, &session.PatientID,
		&session.StartDate, &endDate, &session.Active, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.Session{}, fmt.Errorf("session not found")
		}
		return models.Session{}, err
	}

	if endDate.Valid {
		session.EndDate = &endDate.String
	}
	session.CreatedAt = parseTimestamp(createdAt)
	return session, nil
}

func scanQuestion(row rowScanner) (models.Question, error) {
	var q models.Question
	var createdAt string
	if err := row.Scan(&q.ID, &q.SessionID, &q.Text, &q.Day, &q.OrderIndex, &createdAt); err != nil {
		return models.Question{}, err
	}
	q.CreatedAt = parseTimestamp(createdAt)
	return q, nil
}

func collectQuestions(rows *sql.Rows) ([]models.Question, error) {
	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
