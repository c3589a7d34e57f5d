package synccheck

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"possync/internal/domain/entity"
)

// Servicer — трекер незакрытых подтверждений синхронизации по коллекциям.
type Servicer interface {
	// Start открывает проверку для коллекции или возвращает уже
	// открытую pending-проверку.
	Start(ctx context.Context, entityName string) (CheckRequest, error)

	// UpdateStatus переводит проверку в новый статус и обновляет
	// last_sync текущим временем.
	UpdateStatus(ctx context.Context, id string, status Status) (CheckRequest, error)

	// FindStaleRequests возвращает pending-проверки, которые сервер
	// не подтверждал дольше thresholdMinutes — кандидаты на ретрай
	// или алерт.
	FindStaleRequests(ctx context.Context, thresholdMinutes int) ([]CheckRequest, error)

	// CleanupOldRequests удаляет завершенные проверки старше
	// retentionDays. Pending-проверки не выметаются никогда.
	CleanupOldRequests(ctx context.Context, retentionDays int) (int64, error)
}

type Service struct {
	repo Repository
	log  *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

func (s *Service) Start(ctx context.Context, entityName string) (CheckRequest, error) {
	// Открытая проверка по коллекции переиспользуется
	existing, err := s.repo.FindPendingByEntity(ctx, entityName)
	if err == nil {
		existing.LastSync = time.Now().UTC()
		return s.repo.Update(ctx, existing)
	}
	if !errors.Is(err, ErrNotFound) {
		return CheckRequest{}, fmt.Errorf("find pending check for %s: %w", entityName, err)
	}

	now := time.Now().UTC()
	req := CheckRequest{
		ID:         uuid.NewString(),
		EntityName: entityName,
		Status:     StatusPending,
		LastSync:   now,
		CreatedAt:  now,
	}

	created, err := s.repo.Create(ctx, req)
	if err != nil {
		return CheckRequest{}, fmt.Errorf("create check request for %s: %w", entityName, err)
	}

	return created, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (CheckRequest, error) {
	if !status.Valid() {
		return CheckRequest{}, entity.NewValidationError("check request status", string(status))
	}

	req, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return CheckRequest{}, fmt.Errorf("find check request %s: %w", id, err)
	}

	req.Status = status
	req.LastSync = time.Now().UTC()

	updated, err := s.repo.Update(ctx, req)
	if err != nil {
		return CheckRequest{}, fmt.Errorf("update check request %s: %w", id, err)
	}

	return updated, nil
}

func (s *Service) FindStaleRequests(ctx context.Context, thresholdMinutes int) ([]CheckRequest, error) {
	before := time.Now().UTC().Add(-time.Duration(thresholdMinutes) * time.Minute)

	stale, err := s.repo.FindStale(ctx, before)
	if err != nil {
		return nil, fmt.Errorf("find stale check requests: %w", err)
	}

	if len(stale) > 0 {
		s.log.Warn("обнаружены зависшие проверки синхронизации",
			"count", len(stale), "threshold_minutes", thresholdMinutes)
	}

	return stale, nil
}

func (s *Service) CleanupOldRequests(ctx context.Context, retentionDays int) (int64, error) {
	before := time.Now().UTC().AddDate(0, 0, -retentionDays)

	deleted, err := s.repo.DeleteFinishedBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("cleanup old check requests: %w", err)
	}

	if deleted > 0 {
		s.log.Info("старые проверки синхронизации удалены", "deleted", deleted)
	}

	return deleted, nil
}
