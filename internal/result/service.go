package result

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

type Result struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	TestID      int64     `json:"test_id"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

// UserResult is a result as shown on the taker's profile.
type UserResult struct {
	Result
	TestTitle      string `json:"test_title"`
	TotalQuestions int    `json:"total_questions"`
}

// TestResult is a result as shown on the per-test review page.
type TestResult struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Score       int       `json:"score"`
	CompletedAt time.Time `json:"completed_at"`
}

type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

func (s *Service) Save(ctx context.Context, userID, testID int64, score int) (*Result, error) {
	res := &Result{UserID: userID, TestID: testID, Score: score}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO results (user_id, test_id, score)
		VALUES ($1, $2, $3)
		RETURNING id, completed_at
	`, userID, testID, score).Scan(&res.ID, &res.CompletedAt)
	if err != nil {
		return nil, fmt.Errorf("insert result: %w", err)
	}
	return res, nil
}

// ListByUser returns the user's results, newest first, with test titles
// attached. Results of deleted tests are gone with the test.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]UserResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, r.test_id, r.score, r.completed_at, t.title,
		       (SELECT COUNT(*) FROM questions q WHERE q.test_id = t.id) AS total_questions
		FROM results r
		JOIN tests t ON t.id = r.test_id
		WHERE r.user_id = $1
		ORDER BY r.completed_at DESC, r.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list results by user: %w", err)
	}
	defer rows.Close()

	var results []UserResult
	for rows.Next() {
		var ur UserResult
		if err := rows.Scan(&ur.ID, &ur.UserID, &ur.TestID, &ur.Score, &ur.CompletedAt, &ur.TestTitle, &ur.TotalQuestions); err != nil {
			return nil, fmt.Errorf("scan user result: %w", err)
		}
		results = append(results, ur)
	}
	return results, rows.Err()
}

// ListByTest returns every result for a test, newest first, with taker
// usernames attached.
func (s *Service) ListByTest(ctx context.Context, testID int64) ([]TestResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, u.username, r.score, r.completed_at
		FROM results r
		JOIN users u ON u.id = r.user_id
		WHERE r.test_id = $1
		ORDER BY r.completed_at DESC, r.id DESC
	`, testID)
	if err != nil {
		return nil, fmt.Errorf("list results by test: %w", err)
	}
	defer rows.Close()

	var results []TestResult
	for rows.Next() {
		var tr TestResult
		if err := rows.Scan(&tr.ID, &tr.Username, &tr.Score, &tr.CompletedAt); err != nil {
			return nil, fmt.Errorf("scan test result: %w", err)
		}
		results = append(results, tr)
	}
	return results, rows.Err()
}
