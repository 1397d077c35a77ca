package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartquiz/quizrun-backend/internal/model"
)

var ErrDuplicateRegisterNo = errors.New("participant with this register number already exists")

// ParticipantRepository handles participant data access.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// GetByID retrieves a participant by ID.
func (r *ParticipantRepository) GetByID(ctx context.Context, id int) (*model.Participant, error) {
	p := &model.Participant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, register_no, email, attempt_status, started_at, created_at
		 FROM participants WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.RegisterNo, &p.Email, &p.AttemptStatus, &p.StartedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByRegisterNo retrieves a participant by their unique register number.
func (r *ParticipantRepository) GetByRegisterNo(ctx context.Context, registerNo string) (*model.Participant, error) {
	p := &model.Participant{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, register_no, email, attempt_status, started_at, created_at
		 FROM participants WHERE register_no = $1`, registerNo,
	).Scan(&p.ID, &p.Name, &p.RegisterNo, &p.Email, &p.AttemptStatus, &p.StartedAt, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new participant and returns it with the generated ID.
func (r *ParticipantRepository) Create(ctx context.Context, name, registerNo, email string) (*model.Participant, error) {
	p := &model.Participant{}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO participants (name, register_no, email, attempt_status)
		 VALUES ($1, $2, $3, 'not_attempted')
		 RETURNING id, name, register_no, email, attempt_status, started_at, created_at`,
		name, registerNo, email,
	).Scan(&p.ID, &p.Name, &p.RegisterNo, &p.Email, &p.AttemptStatus, &p.StartedAt, &p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateRegisterNo
		}
		return nil, err
	}
	return p, nil
}

// MarkStarted transitions a participant to in_progress and records the
// attempt start time. It is a no-op if the attempt already started.
func (r *ParticipantRepository) MarkStarted(ctx context.Context, id int, startedAt time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participants SET attempt_status = 'in_progress', started_at = $2
		 WHERE id = $1 AND attempt_status = 'not_attempted'`,
		id, startedAt,
	)
	return err
}

// MarkCompleted transitions a participant to completed.
func (r *ParticipantRepository) MarkCompleted(ctx context.Context, id int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE participants SET attempt_status = 'completed' WHERE id = $1`, id,
	)
	return err
}

// GetStartedAt returns the recorded attempt start time, or nil if the
// participant has not started.
func (r *ParticipantRepository) GetStartedAt(ctx context.Context, id int) (*time.Time, error) {
	var startedAt *time.Time
	err := r.pool.QueryRow(ctx,
		`SELECT started_at FROM participants WHERE id = $1`, id,
	).Scan(&startedAt)
	if err != nil {
		return nil, err
	}
	return startedAt, nil
}

// ListPaginated retrieves participants with pagination.
func (r *ParticipantRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Participant, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM participants`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, name, register_no, email, attempt_status, started_at, created_at
		 FROM participants ORDER BY name LIMIT $1 OFFSET $2`, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	participants := []model.Participant{}
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.RegisterNo, &p.Email, &p.AttemptStatus, &p.StartedAt, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		participants = append(participants, p)
	}
	return participants, total, rows.Err()
}

// CountByStatus returns participant counts grouped by attempt status.
func (r *ParticipantRepository) CountByStatus(ctx context.Context) (map[model.AttemptStatus]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT attempt_status, COUNT(*) FROM participants GROUP BY attempt_status`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.AttemptStatus]int{}
	for rows.Next() {
		var status model.AttemptStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
