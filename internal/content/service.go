package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	ErrTestNotFound     = errors.New("test not found")
	ErrQuestionNotFound = errors.New("question not found")
)

type Test struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Difficulty    string    `json:"difficulty"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

type Question struct {
	ID           int64    `json:"id"`
	TestID       int64    `json:"test_id"`
	Text         string   `json:"text"`
	Difficulty   string   `json:"difficulty"`
	TimeLimitSec int      `json:"time_limit_sec"`
	Options      []Option `json:"options"`
}

type Option struct {
	ID   int64  `json:"id"`
	Text string `json:"text"`
}

// IngestSummary reports what a save attempt actually persisted.
type IngestSummary struct {
	TestID  int64
	Title   string
	Saved   int
	Skipped []string
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// CreateTestFromForm persists a form draft. Questions that lack two options
// or a correct answer are skipped and reported; if fewer than two questions
// survive, nothing is kept.
func (s *Service) CreateTestFromForm(ctx context.Context, draft *TestDraft) (*IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	testID, err := insertTestTx(ctx, tx, draft)
	if err != nil {
		return nil, err
	}

	summary := &IngestSummary{TestID: testID, Title: draft.Title}
	for _, q := range draft.Questions {
		if len(q.Options) < 2 || !q.HasCorrect {
			summary.Skipped = append(summary.Skipped, q.Label)
			continue
		}
		if err := insertQuestionTx(ctx, tx, testID, q); err != nil {
			return nil, err
		}
		summary.Saved++
	}

	if summary.Saved < 2 {
		return nil, ErrTooFewQuestions
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit test: %w", err)
	}
	return summary, nil
}

// CreateTestFromImport persists an upload draft in full. The parser already
// rejected incomplete questions, so any failure here is a storage error and
// rolls the whole document back.
func (s *Service) CreateTestFromImport(ctx context.Context, draft *TestDraft) (*IngestSummary, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	testID, err := insertTestTx(ctx, tx, draft)
	if err != nil {
		return nil, err
	}
	for _, q := range draft.Questions {
		if err := insertQuestionTx(ctx, tx, testID, q); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit test: %w", err)
	}
	return &IngestSummary{TestID: testID, Title: draft.Title, Saved: len(draft.Questions)}, nil
}

func insertTestTx(ctx context.Context, tx *sql.Tx, draft *TestDraft) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO tests (title, description, difficulty)
		VALUES ($1, $2, $3)
		RETURNING id
	`, draft.Title, draft.Description, draft.Difficulty).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert test: %w", err)
	}
	return id, nil
}

func insertQuestionTx(ctx context.Context, tx *sql.Tx, testID int64, q QuestionDraft) error {
	var questionID int64
	err := tx.QueryRowContext(ctx, `
		INSERT INTO questions (test_id, text, difficulty, time_limit_sec)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, testID, q.Text, q.Difficulty, q.TimeLimitSec).Scan(&questionID)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	for _, opt := range q.Options {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO options (question_id, text, is_correct)
			VALUES ($1, $2, $3)
		`, questionID, opt.Text, opt.IsCorrect)
		if err != nil {
			return fmt.Errorf("insert option: %w", err)
		}
	}
	return nil
}

func (s *Service) ListTests(ctx context.Context) ([]Test, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.title, t.description, t.difficulty, t.created_at,
		       (SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id) AS question_count
		FROM tests t
		ORDER BY t.id
	`)
	if err != nil {
		return nil, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var tests []Test
	for rows.Next() {
		var t Test
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Difficulty, &t.CreatedAt, &t.QuestionCount); err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		tests = append(tests, t)
	}
	return tests, rows.Err()
}

func (s *Service) GetTest(ctx context.Context, id int64) (*Test, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.title, t.description, t.difficulty, t.created_at,
		       (SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id) AS question_count
		FROM tests t
		WHERE t.id = $1
	`, id)

	var t Test
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Difficulty, &t.CreatedAt, &t.QuestionCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return &t, nil
}

// QuestionIDs returns the question ids of a test in creation order, which
// fixes the order questions are presented in.
func (s *Service) QuestionIDs(ctx context.Context, testID int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id FROM questions WHERE test_id = $1 ORDER BY id
	`, testID)
	if err != nil {
		return nil, fmt.Errorf("list question ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan question id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Service) GetQuestion(ctx context.Context, id int64) (*Question, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, test_id, text, difficulty, time_limit_sec
		FROM questions
		WHERE id = $1
	`, id)

	var q Question
	if err := row.Scan(&q.ID, &q.TestID, &q.Text, &q.Difficulty, &q.TimeLimitSec); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text FROM options WHERE question_id = $1 ORDER BY id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt Option
		if err := rows.Scan(&opt.ID, &opt.Text); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		q.Options = append(q.Options, opt)
	}
	return &q, rows.Err()
}

// IsOptionCorrect reports whether the option is the correct answer for its
// question. An unknown option id is simply not correct.
func (s *Service) IsOptionCorrect(ctx context.Context, optionID int64) (bool, error) {
	var correct bool
	err := s.db.QueryRowContext(ctx, `
		SELECT is_correct FROM options WHERE id = $1
	`, optionID).Scan(&correct)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check option: %w", err)
	}
	return correct, nil
}

// DeleteTest removes a test and everything hanging off it: results first,
// then options, questions and finally the test row.
func (s *Service) DeleteTest(ctx context.Context, id int64) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var title string
	if err := tx.QueryRowContext(ctx, `SELECT title FROM tests WHERE id = $1`, id).Scan(&title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrTestNotFound
		}
		return "", fmt.Errorf("get test title: %w", err)
	}

	steps := []string{
		`DELETE FROM results WHERE test_id = $1`,
		`DELETE FROM options WHERE question_id IN (SELECT id FROM questions WHERE test_id = $1)`,
		`DELETE FROM questions WHERE test_id = $1`,
		`DELETE FROM tests WHERE id = $1`,
	}
	for _, stmt := range steps {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return "", fmt.Errorf("delete test data: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit delete: %w", err)
	}
	return title, nil
}
