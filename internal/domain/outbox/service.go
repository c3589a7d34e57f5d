package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Enqueuer — то, что нужно доменным сервисам от аутбокса: локальная запись
// уже сделана, мутацию надо поставить в очередь на доставку.
type Enqueuer interface {
	Enqueue(ctx context.Context, tableName string, action Action, payload string) (Operation, error)
}

// Servicer — полный интерфейс сервиса аутбокса.
type Servicer interface {
	Enqueuer

	// NextBatches формирует очередные батчи для отправки в пределах
	// настроенных границ.
	NextBatches(ctx context.Context) ([]RequestBatch, error)

	// MarkAccepted помечает батч принятым сервером.
	MarkAccepted(ctx context.Context, requestID string) error

	// MarkRejected помечает батч отклоненным.
	MarkRejected(ctx context.Context, requestID string) error

	// PendingCount возвращает число операций, ожидающих доставки.
	PendingCount(ctx context.Context) (int, error)

	// CleanupAccepted удаляет принятые операции старше retention-окна.
	CleanupAccepted(ctx context.Context, retention time.Duration) (int64, error)
}

// Config — границы формирования батчей. Размер батча ограничивает payload
// и охват серверной транзакции.
type Config struct {
	OpsPerBatch     int
	BatchesPerFlush int
}

type Service struct {
	repo   Repository
	log    *slog.Logger
	config Config
}

func NewService(repo Repository, log *slog.Logger, config *Config) *Service {
	if config == nil {
		config = &Config{
			OpsPerBatch:     10,
			BatchesPerFlush: 5,
		}
	}

	return &Service{
		repo:   repo,
		log:    log,
		config: *config,
	}
}

// Enqueue добавляет мутацию в журнал. Мутация никогда не уходит в сеть
// напрямую: сначала durable-запись, потом доставка.
func (s *Service) Enqueue(ctx context.Context, tableName string, action Action, payload string) (Operation, error) {
	if !action.Valid() {
		return Operation{}, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	if payload == "" {
		return Operation{}, ErrEmptyPayload
	}

	op := Operation{
		TableName: tableName,
		Action:    action,
		Payload:   payload,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	op, err := s.repo.Append(ctx, op)
	if err != nil {
		return Operation{}, fmt.Errorf("append operation: %w", err)
	}

	s.log.Debug("операция поставлена в очередь",
		"table", tableName, "action", action, "id", op.ID)

	return op, nil
}

// NextBatches выбирает ожидающие операции и режет их на батчи:
// сначала батчи, уже получившие request id в прошлых попытках (ретраи
// сохраняют свои ключи идемпотентности), затем новые операции,
// сгруппированные по таблице.
func (s *Service) NextBatches(ctx context.Context) ([]RequestBatch, error) {
	limit := s.config.OpsPerBatch * s.config.BatchesPerFlush

	pending, err := s.repo.FindPending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("find pending operations: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}

	var batches []RequestBatch

	// 1. Восстанавливаем ранее сформированные батчи
	assigned := make(map[string][]Operation)
	var fresh []Operation
	for _, op := range pending {
		if op.RequestID != "" {
			assigned[op.RequestID] = append(assigned[op.RequestID], op)
		} else {
			fresh = append(fresh, op)
		}
	}
	for requestID, ops := range assigned {
		batches = append(batches, RequestBatch{
			RequestID:  requestID,
			TableName:  ops[0].TableName,
			Operations: ops,
		})
	}

	// 2. Группируем новые операции по таблице и режем по размеру батча
	byTable := make(map[string][]Operation)
	var tableOrder []string
	for _, op := range fresh {
		if _, ok := byTable[op.TableName]; !ok {
			tableOrder = append(tableOrder, op.TableName)
		}
		byTable[op.TableName] = append(byTable[op.TableName], op)
	}

	for _, table := range tableOrder {
		ops := byTable[table]
		for start := 0; start < len(ops); start += s.config.OpsPerBatch {
			if len(batches) >= s.config.BatchesPerFlush {
				break
			}

			end := start + s.config.OpsPerBatch
			if end > len(ops) {
				end = len(ops)
			}

			batch, err := s.assignBatch(ctx, table, ops[start:end])
			if err != nil {
				return nil, err
			}
			batches = append(batches, batch)
		}
	}

	if len(batches) > s.config.BatchesPerFlush {
		batches = batches[:s.config.BatchesPerFlush]
	}

	return batches, nil
}

func (s *Service) assignBatch(ctx context.Context, table string, ops []Operation) (RequestBatch, error) {
	requestID := uuid.NewString()

	ids := make([]int64, len(ops))
	for i := range ops {
		ids[i] = ops[i].ID
	}

	// Привязка пишется до пуша: после сбоя ретрай увидит те же ключи
	if err := s.repo.AssignBatch(ctx, requestID, ids); err != nil {
		return RequestBatch{}, fmt.Errorf("assign batch %s: %w", requestID, err)
	}

	for i := range ops {
		ops[i].RequestID = requestID
		ops[i].SequenceID = int64(i + 1)
	}

	return RequestBatch{
		RequestID:  requestID,
		TableName:  table,
		Operations: ops,
	}, nil
}

func (s *Service) MarkAccepted(ctx context.Context, requestID string) error {
	if err := s.repo.MarkStatus(ctx, requestID, StatusAccepted); err != nil {
		return fmt.Errorf("mark batch %s accepted: %w", requestID, err)
	}
	return nil
}

func (s *Service) MarkRejected(ctx context.Context, requestID string) error {
	if err := s.repo.MarkStatus(ctx, requestID, StatusRejected); err != nil {
		return fmt.Errorf("mark batch %s rejected: %w", requestID, err)
	}
	return nil
}

func (s *Service) PendingCount(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, StatusPending)
}

// CleanupAccepted подчищает доставленные операции; pending не трогаем,
// чтобы не потерять незавершенную работу.
func (s *Service) CleanupAccepted(ctx context.Context, retention time.Duration) (int64, error) {
	deleted, err := s.repo.DeleteByStatusBefore(ctx, StatusAccepted, time.Now().UTC().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("cleanup accepted operations: %w", err)
	}

	if deleted > 0 {
		s.log.Info("журнал аутбокса очищен", "deleted", deleted)
	}

	return deleted, nil
}
