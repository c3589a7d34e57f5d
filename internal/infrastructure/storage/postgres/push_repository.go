package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"possync/internal/domain/outbox"
	"possync/internal/domain/push"
)

// PushRepository применяет батчи терминалов к серверному состоянию.
// Журнал sync_operations и документы меняются в одной транзакции,
// поэтому частично примененных батчей не бывает.
type PushRepository struct {
	storage *Storage
	log     *slog.Logger
}

func NewPushRepository(storage *Storage, log *slog.Logger) *PushRepository {
	return &PushRepository{
		storage: storage,
		log:     log,
	}
}

func (r *PushRepository) ApplyBatch(ctx context.Context, collection string, ops []outbox.WireOperation) (push.Result, error) {
	tx, err := r.storage.Pool().Begin(ctx)
	if err != nil {
		return push.Result{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var result push.Result
	for _, op := range ops {
		// Журнальная запись и есть проверка идемпотентности: пара
		// (request_id, seq_id) вставляется ровно один раз
		tag, err := tx.Exec(ctx,
			`INSERT INTO sync_operations (request_id, seq_id, collection, action, payload)
			 VALUES ($1, $2, $3, $4, $5::jsonb)
			 ON CONFLICT (request_id, seq_id) DO NOTHING`,
			op.RequestID, op.ID, collection, string(op.Action), op.Data,
		)
		if err != nil {
			return push.Result{}, fmt.Errorf("journal operation %d: %w", op.ID, err)
		}

		if tag.RowsAffected() == 0 {
			result.Replayed++
			continue
		}

		if err := applyMutation(ctx, tx, collection, op); err != nil {
			return push.Result{}, err
		}
		result.Applied++
	}

	if err := tx.Commit(ctx); err != nil {
		return push.Result{}, fmt.Errorf("commit tx: %w", err)
	}

	return result, nil
}

func applyMutation(ctx context.Context, tx pgx.Tx, collection string, op outbox.WireOperation) error {
	m, err := push.Decode(op)
	if err != nil {
		return fmt.Errorf("decode operation %d: %w", op.ID, err)
	}

	id, err := push.DocumentID(m)
	if err != nil {
		return fmt.Errorf("operation %d: %w", op.ID, err)
	}

	switch op.Action {
	case outbox.ActionInsert:
		// Повтор insert того же документа перезаписывает его целиком
		_, err = tx.Exec(ctx,
			`INSERT INTO documents (collection, doc_id, body, updated_at)
			 VALUES ($1, $2, $3::jsonb, now())
			 ON CONFLICT (collection, doc_id)
			 DO UPDATE SET body = excluded.body, updated_at = now()`,
			collection, id, string(m.Document),
		)

	case outbox.ActionUpdate:
		// Частичное изменение сливается в существующий документ;
		// update по отсутствующему документу заводит его из изменения
		_, err = tx.Exec(ctx,
			`INSERT INTO documents (collection, doc_id, body, updated_at)
			 VALUES ($1, $2, $3::jsonb, now())
			 ON CONFLICT (collection, doc_id)
			 DO UPDATE SET body = documents.body || excluded.body, updated_at = now()`,
			collection, id, string(m.Update),
		)
	}

	if err != nil {
		return fmt.Errorf("apply operation %d to %s/%s: %w", op.ID, collection, id, err)
	}

	return nil
}
