package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/smartquiz/quizrun-backend/internal/model"
)

// SubmissionRepository handles graded submission data access.
type SubmissionRepository struct {
	pool *pgxpool.Pool
}

// NewSubmissionRepository creates a new SubmissionRepository.
func NewSubmissionRepository(pool *pgxpool.Pool) *SubmissionRepository {
	return &SubmissionRepository{pool: pool}
}

// Insert stores a graded submission. The unique constraint on
// participant_id makes double submission a database-level conflict.
func (r *SubmissionRepository) Insert(ctx context.Context, sub *model.Submission) (int, error) {
	answersJSON, err := json.Marshal(sub.Answers)
	if err != nil {
		return 0, err
	}

	var id int
	err = r.pool.QueryRow(ctx,
		`INSERT INTO submissions (participant_id, score, total_marks, time_taken, auto_submitted, reason, answers, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		sub.ParticipantID, sub.Score, sub.TotalMarks, sub.TimeTaken, sub.AutoSubmitted, sub.Reason, answersJSON, sub.SubmittedAt,
	).Scan(&id)
	return id, err
}

// GetByParticipant retrieves a participant's submission, if any.
func (r *SubmissionRepository) GetByParticipant(ctx context.Context, participantID int) (*model.Submission, error) {
	sub := &model.Submission{}
	var answersJSON []byte
	err := r.pool.QueryRow(ctx,
		`SELECT id, participant_id, score, total_marks, time_taken, auto_submitted, reason, answers, submitted_at
		 FROM submissions WHERE participant_id = $1`, participantID,
	).Scan(&sub.ID, &sub.ParticipantID, &sub.Score, &sub.TotalMarks, &sub.TimeTaken, &sub.AutoSubmitted, &sub.Reason, &answersJSON, &sub.SubmittedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answersJSON, &sub.Answers); err != nil {
		return nil, err
	}
	return sub, nil
}

// Exists reports whether a participant has already submitted.
func (r *SubmissionRepository) Exists(ctx context.Context, participantID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM submissions WHERE participant_id = $1)`, participantID,
	).Scan(&exists)
	return exists, err
}

// Leaderboard returns the top submissions ordered by score, with ties
// broken by time taken then submission time.
func (r *SubmissionRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.name, p.register_no, s.score, s.total_marks, s.time_taken, s.submitted_at
		 FROM submissions s
		 JOIN participants p ON p.id = s.participant_id
		 ORDER BY s.score DESC, s.time_taken ASC, s.submitted_at ASC
		 LIMIT $1`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	board := []model.LeaderboardRow{}
	for rows.Next() {
		var row model.LeaderboardRow
		if err := rows.Scan(&row.Name, &row.RegisterNo, &row.Score, &row.TotalMarks, &row.TimeTaken, &row.SubmittedAt); err != nil {
			return nil, err
		}
		board = append(board, row)
	}
	return board, rows.Err()
}

// RankOf computes a participant's 1-based rank using the leaderboard ordering.
func (r *SubmissionRepository) RankOf(ctx context.Context, participantID int) (int, error) {
	var rank int
	err := r.pool.QueryRow(ctx,
		`SELECT rnk FROM (
		     SELECT participant_id,
		            ROW_NUMBER() OVER (ORDER BY score DESC, time_taken ASC, submitted_at ASC) AS rnk
		     FROM submissions
		 ) ranked WHERE participant_id = $1`, participantID,
	).Scan(&rank)
	return rank, err
}

// ExportRow is one line of the admin CSV export.
type ExportRow struct {
	Name          string
	RegisterNo    string
	Email         string
	Score         int
	TotalMarks    int
	TimeTaken     int
	AutoSubmitted bool
	Reason        string
	Violations    int
	SubmittedAt   string
}

// ListForExport retrieves all submissions joined with participant and
// violation data for the CSV export.
func (r *SubmissionRepository) ListForExport(ctx context.Context) ([]ExportRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.name, p.register_no, p.email, s.score, s.total_marks, s.time_taken,
		        s.auto_submitted, s.reason,
		        (SELECT COUNT(*) FROM violations v WHERE v.participant_id = p.id),
		        to_char(s.submitted_at, 'YYYY-MM-DD HH24:MI:SS')
		 FROM submissions s
		 JOIN participants p ON p.id = s.participant_id
		 ORDER BY s.score DESC, s.time_taken ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	export := []ExportRow{}
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.Name, &row.RegisterNo, &row.Email, &row.Score, &row.TotalMarks,
			&row.TimeTaken, &row.AutoSubmitted, &row.Reason, &row.Violations, &row.SubmittedAt); err != nil {
			return nil, err
		}
		export = append(export, row)
	}
	return export, rows.Err()
}

// Stats aggregates submission counts and score averages for the dashboard.
func (r *SubmissionRepository) Stats(ctx context.Context) (count int, avgScore float64, autoSubmitted int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COALESCE(AVG(score), 0), COUNT(*) FILTER (WHERE auto_submitted)
		 FROM submissions`,
	).Scan(&count, &avgScore, &autoSubmitted)
	return count, avgScore, autoSubmitted, err
}
