package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smartquiz/quizrun-backend/internal/config"
	"github.com/smartquiz/quizrun-backend/internal/model"
	"github.com/smartquiz/quizrun-backend/internal/repository"
)

// maxDeviceInfoLen truncates oversized device fingerprints before they
// reach the queue.
const maxDeviceInfoLen = 200

// ViolationService records anti-cheat events. The hot path touches only
// Redis: the durable insert happens in the violation worker.
type ViolationService struct {
	violationRepo *repository.ViolationRepository
	settingRepo   *repository.SettingRepository
	rdb           *redis.Client
	monitor       *MonitorService
}

// NewViolationService creates a new ViolationService.
func NewViolationService(
	violationRepo *repository.ViolationRepository,
	settingRepo *repository.SettingRepository,
	rdb *redis.Client,
	monitor *MonitorService,
) *ViolationService {
	return &ViolationService{
		violationRepo: violationRepo,
		settingRepo:   settingRepo,
		rdb:           rdb,
		monitor:       monitor,
	}
}

// ViolationOutcome is the server's verdict on a reported violation: the
// authoritative count and whether the session must be force-submitted.
type ViolationOutcome struct {
	Count      int  `json:"count"`
	Max        int  `json:"max"`
	AutoSubmit bool `json:"auto_submit"`
}

// violationPayload is the queue message consumed by the violation worker.
type violationPayload struct {
	ParticipantID int    `json:"participant_id"`
	Type          string `json:"type"`
	Device        string `json:"device"`
	Timestamp     int64  `json:"timestamp"`
}

// Record counts a violation and queues it for persistence. The count
// lives in Redis so concurrent reports from a misbehaving client are
// still totalled correctly.
func (s *ViolationService) Record(ctx context.Context, participantID int, req *model.ViolationRequest) (*ViolationOutcome, error) {
	device := req.Device
	if len(device) > maxDeviceInfoLen {
		device = device[:maxDeviceInfoLen]
	}

	countKey := config.CacheKey.ViolationCountKey(participantID)
	count, err := s.rdb.Incr(ctx, countKey).Result()
	if err != nil {
		return nil, fmt.Errorf("increment violation count: %w", err)
	}

	now := time.Now()
	payload, err := json.Marshal(violationPayload{
		ParticipantID: participantID,
		Type:          req.Type,
		Device:        device,
		Timestamp:     now.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal violation payload: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistViolationsQueue, payload).Err(); err != nil {
		return nil, fmt.Errorf("queue violation: %w", err)
	}

	setting, err := s.settingRepo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	s.monitor.PublishEvent(ctx, MonitorEvent{
		Type:          EventViolation,
		ParticipantID: participantID,
		Detail:        req.Type,
		Count:         int(count),
		At:            now.Unix(),
	})

	return &ViolationOutcome{
		Count:      int(count),
		Max:        setting.MaxViolations,
		AutoSubmit: int(count) >= setting.MaxViolations,
	}, nil
}

// Report returns the per-participant violation aggregate for the admin view.
func (s *ViolationService) Report(ctx context.Context) ([]model.ViolationReport, error) {
	return s.violationRepo.Report(ctx)
}

// ListByParticipant returns a participant's individual violations.
func (s *ViolationService) ListByParticipant(ctx context.Context, participantID int) ([]model.Violation, error) {
	return s.violationRepo.ListByParticipant(ctx, participantID)
}
