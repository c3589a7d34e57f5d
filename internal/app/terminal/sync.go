package terminal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"possync/internal/app/terminal/config"
	"possync/internal/domain/outbox"
	"possync/internal/domain/synccheck"
)

// ErrFlushInProgress возвращается при попытке запустить второй флаш
// параллельно с уже идущим.
var ErrFlushInProgress = errors.New("flush already in progress")

// BatchPusher — транспорт доставки батчей на сервер.
type BatchPusher interface {
	HealthCheck(ctx context.Context) error
	PushBatch(ctx context.Context, batch outbox.RequestBatch) error
}

// FlushResult — итог одного прохода доставки.
type FlushResult struct {
	Batches    int `json:"batches"`
	Accepted   int `json:"accepted"`
	Rejected   int `json:"rejected"`
	Failed     int `json:"failed"`
	Operations int `json:"operations"`
	Pending    int `json:"pending"`
}

// FlushService выталкивает накопленный аутбокс на сервер. Экземпляр
// держит не больше одного флаша одновременно: конкурентный запуск
// вернул бы те же pending-операции и отправил бы их дважды.
type FlushService struct {
	queue  outbox.Servicer
	checks synccheck.Servicer
	pusher BatchPusher
	config *config.Config
	log    *slog.Logger

	mu       sync.Mutex
	flushing bool
}

func NewFlushService(queue outbox.Servicer, checks synccheck.Servicer, pusher BatchPusher, cfg *config.Config, log *slog.Logger) *FlushService {
	return &FlushService{
		queue:  queue,
		checks: checks,
		pusher: pusher,
		config: cfg,
		log:    log,
	}
}

// Flush формирует батчи и доставляет их по одному. Батч, не принятый
// из-за сети или 5xx, остается pending и сохраняет свой request id для
// следующей попытки; явный отказ сервера (4xx) финален.
func (s *FlushService) Flush(ctx context.Context) (FlushResult, error) {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return FlushResult{}, ErrFlushInProgress
	}
	s.flushing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.flushing = false
		s.mu.Unlock()
	}()

	if err := s.pusher.HealthCheck(ctx); err != nil {
		return FlushResult{}, fmt.Errorf("сервер недоступен, флаш отложен: %w", err)
	}

	batches, err := s.queue.NextBatches(ctx)
	if err != nil {
		return FlushResult{}, fmt.Errorf("формирование батчей: %w", err)
	}

	var result FlushResult
	result.Batches = len(batches)

	for _, batch := range batches {
		if err := s.deliver(ctx, batch, &result); err != nil {
			return result, err
		}
	}

	if result.Pending, err = s.queue.PendingCount(ctx); err != nil {
		return result, fmt.Errorf("подсчет очереди: %w", err)
	}

	s.log.Info("флаш завершен",
		"batches", result.Batches,
		"accepted", result.Accepted,
		"rejected", result.Rejected,
		"failed", result.Failed,
		"pending", result.Pending,
	)

	return result, nil
}

func (s *FlushService) deliver(ctx context.Context, batch outbox.RequestBatch, result *FlushResult) error {
	check, err := s.checks.Start(ctx, batch.TableName)
	if err != nil {
		return fmt.Errorf("открытие проверки для %s: %w", batch.TableName, err)
	}

	err = s.pushWithRetry(ctx, batch)

	var protoErr *ProtocolError
	switch {
	case err == nil:
		if err := s.queue.MarkAccepted(ctx, batch.RequestID); err != nil {
			return fmt.Errorf("фиксация батча %s: %w", batch.RequestID, err)
		}
		if _, err := s.checks.UpdateStatus(ctx, check.ID, synccheck.StatusConfirmed); err != nil {
			return fmt.Errorf("подтверждение проверки %s: %w", check.ID, err)
		}
		result.Accepted++
		result.Operations += len(batch.Operations)

	case errors.As(err, &protoErr) && protoErr.StatusCode >= http.StatusBadRequest && protoErr.StatusCode < http.StatusInternalServerError:
		// Сервер явно отверг батч: повтор бессмысленен
		s.log.Error("батч отклонен сервером",
			"request_id", batch.RequestID,
			"status", protoErr.StatusCode,
			"message", protoErr.Message,
		)
		if err := s.queue.MarkRejected(ctx, batch.RequestID); err != nil {
			return fmt.Errorf("пометка батча %s отклоненным: %w", batch.RequestID, err)
		}
		if _, err := s.checks.UpdateStatus(ctx, check.ID, synccheck.StatusFailed); err != nil {
			return fmt.Errorf("провал проверки %s: %w", check.ID, err)
		}
		result.Rejected++

	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return err

	default:
		// Транспортный сбой или 5xx: батч остается pending и уйдет
		// со своим request id в следующем флаше
		s.log.Warn("батч не доставлен, остается в очереди",
			"request_id", batch.RequestID,
			"error", err,
		)
		result.Failed++
	}

	return nil
}

func (s *FlushService) pushWithRetry(ctx context.Context, batch outbox.RequestBatch) error {
	delay := time.Duration(s.config.RetryDelaySeconds) * time.Second

	var lastErr error
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		lastErr = s.pusher.PushBatch(ctx, batch)
		if lastErr == nil {
			return nil
		}

		var protoErr *ProtocolError
		if errors.As(lastErr, &protoErr) && protoErr.StatusCode < http.StatusInternalServerError {
			return lastErr
		}

		if attempt < s.config.MaxRetries {
			s.log.Debug("повтор отправки батча",
				"request_id", batch.RequestID,
				"attempt", attempt,
				"error", lastErr,
			)

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return lastErr
}

// CheckStale логирует зависшие проверки синхронизации.
func (s *FlushService) CheckStale(ctx context.Context) ([]synccheck.CheckRequest, error) {
	return s.checks.FindStaleRequests(ctx, s.config.StalenessMinutes)
}

// Cleanup выметает доставленные операции и закрытые проверки за пределами
// retention-окна.
func (s *FlushService) Cleanup(ctx context.Context) (int64, error) {
	retention := time.Duration(s.config.RetentionDays) * 24 * time.Hour

	ops, err := s.queue.CleanupAccepted(ctx, retention)
	if err != nil {
		return 0, err
	}

	checks, err := s.checks.CleanupOldRequests(ctx, s.config.RetentionDays)
	if err != nil {
		return ops, err
	}

	return ops + checks, nil
}
