package service

import (
	"context"

	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/repository"
)

// ParticipantService handles admin participant management.
type ParticipantService struct {
	participantRepo *repository.ParticipantRepository
	authService     *AuthService
}

// NewParticipantService creates a new ParticipantService.
func NewParticipantService(participantRepo *repository.ParticipantRepository, authService *AuthService) *ParticipantService {
	return &ParticipantService{participantRepo: participantRepo, authService: authService}
}

// List returns participants with pagination.
func (s *ParticipantService) List(ctx context.Context, limit, offset int) ([]model.Participant, int, error) {
	return s.participantRepo.ListPaginated(ctx, limit, offset)
}

// Get returns a single participant.
func (s *ParticipantService) Get(ctx context.Context, id int) (*model.Participant, error) {
	return s.participantRepo.GetByID(ctx, id)
}

// ResetSession clears a participant's login session and quiz token so
// they can sign in again after a device swap or crash.
func (s *ParticipantService) ResetSession(ctx context.Context, id int) error {
	return s.authService.ResetParticipantSession(ctx, id)
}
