package outbox

import (
	"context"
	"time"
)

// Repository — устойчивый append-only журнал отложенных мутаций.
// Журнал переживает рестарты и служит единственным источником правды
// для повторных отправок.
type Repository interface {
	// Append добавляет операцию в журнал и возвращает ее с локальным id.
	Append(ctx context.Context, op Operation) (Operation, error)

	// FindPending возвращает до limit ожидающих операций в порядке записи.
	FindPending(ctx context.Context, limit int) ([]Operation, error)

	// FindByRequestID возвращает операции батча в порядке sequence id.
	FindByRequestID(ctx context.Context, requestID string) ([]Operation, error)

	// AssignBatch фиксирует привязку операций к батчу: request id и
	// последовательные sequence id в порядке переданных локальных id.
	// Привязка пишется до отправки, чтобы ретраи после падения
	// переиспользовали те же ключи идемпотентности.
	AssignBatch(ctx context.Context, requestID string, ids []int64) error

	// MarkStatus переводит все операции батча в новый статус.
	MarkStatus(ctx context.Context, requestID string, status Status) error

	// CountByStatus возвращает размер журнала в разрезе статуса.
	CountByStatus(ctx context.Context, status Status) (int, error)

	// DeleteByStatusBefore удаляет операции в данном статусе старше before;
	// применяется только к завершенным операциям.
	DeleteByStatusBefore(ctx context.Context, status Status, before time.Time) (int64, error)
}
