package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/repository"
)

// ErrNoSubmission means the participant asked for a result before submitting.
var ErrNoSubmission = errors.New("no submission found")

// leaderboardSize caps the public leaderboard.
const leaderboardSize = 50

// ResultService produces participant results, the public leaderboard,
// and the admin CSV export.
type ResultService struct {
	participantRepo *repository.ParticipantRepository
	submissionRepo  *repository.SubmissionRepository
	violationRepo   *repository.ViolationRepository
}

// NewResultService creates a new ResultService.
func NewResultService(
	participantRepo *repository.ParticipantRepository,
	submissionRepo *repository.SubmissionRepository,
	violationRepo *repository.ViolationRepository,
) *ResultService {
	return &ResultService{
		participantRepo: participantRepo,
		submissionRepo:  submissionRepo,
		violationRepo:   violationRepo,
	}
}

// GetResult builds a participant's personal result view.
func (s *ResultService) GetResult(ctx context.Context, participantID int) (*model.Result, error) {
	sub, err := s.submissionRepo.GetByParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSubmission
		}
		return nil, fmt.Errorf("get submission: %w", err)
	}

	p, err := s.participantRepo.GetByID(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("get participant: %w", err)
	}

	rank, err := s.submissionRepo.RankOf(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("compute rank: %w", err)
	}

	violations, err := s.violationRepo.CountByParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("count violations: %w", err)
	}

	percent := 0.0
	if sub.TotalMarks > 0 {
		percent = float64(sub.Score) / float64(sub.TotalMarks) * 100
	}

	return &model.Result{
		Name:          p.Name,
		RegisterNo:    p.RegisterNo,
		Score:         sub.Score,
		TotalMarks:    sub.TotalMarks,
		Percent:       percent,
		Rank:          rank,
		TimeTaken:     sub.TimeTaken,
		AutoSubmitted: sub.AutoSubmitted,
		Violations:    violations,
		SubmittedAt:   sub.SubmittedAt,
	}, nil
}

// GetLeaderboard returns the public top-N board.
func (s *ResultService) GetLeaderboard(ctx context.Context) ([]model.LeaderboardRow, error) {
	return s.submissionRepo.Leaderboard(ctx, leaderboardSize)
}

// ExportCSV streams all results as CSV, one row per submission.
func (s *ResultService) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.submissionRepo.ListForExport(ctx)
	if err != nil {
		return fmt.Errorf("list for export: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{"name", "register_no", "email", "score", "total_marks", "time_taken_seconds", "auto_submitted", "reason", "violations", "submitted_at"}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, row := range rows {
		record := []string{
			row.Name,
			row.RegisterNo,
			row.Email,
			strconv.Itoa(row.Score),
			strconv.Itoa(row.TotalMarks),
			strconv.Itoa(row.TimeTaken),
			strconv.FormatBool(row.AutoSubmitted),
			row.Reason,
			strconv.Itoa(row.Violations),
			row.SubmittedAt,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
