package push

import (
	"context"

	"possync/internal/domain/outbox"
)

// Result — итог применения батча.
type Result struct {
	Applied  int
	Replayed int
}

// Repository — серверное хранилище журнала операций и документов.
type Repository interface {
	// ApplyBatch применяет операции батча в одной транзакции. Пары
	// (request_id, seq_id), принятые ранее, пропускаются и считаются
	// повтором: повторная доставка не меняет состояние.
	ApplyBatch(ctx context.Context, collection string, ops []outbox.WireOperation) (Result, error)
}
