package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerRepository persists autosave snapshots. Each participant has at
// most one row holding their latest full answer set.
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// Upsert replaces a participant's saved answer snapshot.
func (r *AnswerRepository) Upsert(ctx context.Context, participantID int, answers map[string]string) error {
	answersJSON, err := json.Marshal(answers)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO quiz_answers (participant_id, answers, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (participant_id) DO UPDATE SET answers = $2, updated_at = NOW()`,
		participantID, answersJSON,
	)
	return err
}

// Get retrieves a participant's saved answer snapshot. Returns an empty
// map when nothing has been saved yet.
func (r *AnswerRepository) Get(ctx context.Context, participantID int) (map[string]string, error) {
	var answersJSON []byte
	err := r.pool.QueryRow(ctx,
		`SELECT answers FROM quiz_answers WHERE participant_id = $1`, participantID,
	).Scan(&answersJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	answers := map[string]string{}
	if err := json.Unmarshal(answersJSON, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

// Delete removes a participant's autosave snapshot after final submission.
func (r *AnswerRepository) Delete(ctx context.Context, participantID int) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM quiz_answers WHERE participant_id = $1`, participantID)
	return err
}
