package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartquiz/quizrun-backend/internal/model"
)

// ViolationRepository handles anti-cheat event data access.
type ViolationRepository struct {
	pool *pgxpool.Pool
}

// NewViolationRepository creates a new ViolationRepository.
func NewViolationRepository(pool *pgxpool.Pool) *ViolationRepository {
	return &ViolationRepository{pool: pool}
}

// Insert stores a single violation. Used as the row-by-row fallback
// when a bulk insert fails.
func (r *ViolationRepository) Insert(ctx context.Context, v *model.Violation) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO violations (participant_id, type, device_info, recorded_at)
		 VALUES ($1, $2, $3, $4)`,
		v.ParticipantID, v.Type, v.DeviceInfo, v.RecordedAt,
	)
	return err
}

// BulkInsert stores a batch of violations with CopyFrom.
func (r *ViolationRepository) BulkInsert(ctx context.Context, violations []model.Violation) error {
	if len(violations) == 0 {
		return nil
	}

	_, err := r.pool.CopyFrom(
		ctx,
		pgx.Identifier{"violations"},
		[]string{"participant_id", "type", "device_info", "recorded_at"},
		pgx.CopyFromSlice(len(violations), func(i int) ([]interface{}, error) {
			v := violations[i]
			return []interface{}{v.ParticipantID, v.Type, v.DeviceInfo, v.RecordedAt}, nil
		}),
	)
	return err
}

// CountByParticipant returns how many violations a participant has accumulated.
func (r *ViolationRepository) CountByParticipant(ctx context.Context, participantID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM violations WHERE participant_id = $1`, participantID,
	).Scan(&n)
	return n, err
}

// ListByParticipant retrieves a participant's violations, newest first.
func (r *ViolationRepository) ListByParticipant(ctx context.Context, participantID int) ([]model.Violation, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, participant_id, type, device_info, recorded_at
		 FROM violations WHERE participant_id = $1 ORDER BY recorded_at DESC`, participantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	violations := []model.Violation{}
	for rows.Next() {
		var v model.Violation
		if err := rows.Scan(&v.ID, &v.ParticipantID, &v.Type, &v.DeviceInfo, &v.RecordedAt); err != nil {
			return nil, err
		}
		violations = append(violations, v)
	}
	return violations, rows.Err()
}

// Report aggregates violations per participant for the admin overview.
func (r *ViolationRepository) Report(ctx context.Context) ([]model.ViolationReport, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT v.participant_id, p.name, p.register_no, COUNT(*),
		        (ARRAY_AGG(v.type ORDER BY v.recorded_at DESC))[1],
		        MAX(v.recorded_at)
		 FROM violations v
		 JOIN participants p ON p.id = v.participant_id
		 GROUP BY v.participant_id, p.name, p.register_no
		 ORDER BY COUNT(*) DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := []model.ViolationReport{}
	for rows.Next() {
		var row model.ViolationReport
		if err := rows.Scan(&row.ParticipantID, &row.Name, &row.RegisterNo, &row.Count, &row.LastType, &row.LastAt); err != nil {
			return nil, err
		}
		report = append(report, row)
	}
	return report, rows.Err()
}

// CountSince returns the number of violations recorded after the given
// instant, for the dashboard activity card.
func (r *ViolationRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM violations WHERE recorded_at > $1`, since,
	).Scan(&n)
	return n, err
}
