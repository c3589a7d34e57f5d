package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"possync/internal/domain/entity"
	"possync/internal/domain/outbox"
)

const outboxTable = "outbox_operations"

// OutboxRepository — sqlite-журнал отложенных мутаций. Первичный ключ
// здесь автоинкрементный, порядок записи и есть порядок отправки,
// поэтому обобщенный репозиторий с текстовым ключом не подходит.
type OutboxRepository struct {
	storage *Storage
	log     *slog.Logger
}

func NewOutboxRepository(storage *Storage, log *slog.Logger) *OutboxRepository {
	return &OutboxRepository{
		storage: storage,
		log:     log,
	}
}

func (r *OutboxRepository) Append(ctx context.Context, op outbox.Operation) (outbox.Operation, error) {
	if !op.Action.Valid() {
		return outbox.Operation{}, entity.NewValidationError("outbox action", string(op.Action))
	}
	if op.Payload == "" {
		return outbox.Operation{}, outbox.ErrEmptyPayload
	}
	if op.Status == "" {
		op.Status = outbox.StatusPending
	}
	if op.CreatedAt.IsZero() {
		op.CreatedAt = time.Now().UTC()
	}

	res, err := execPrepared(ctx, r.storage.DB(), outboxTable,
		`INSERT INTO outbox_operations (request_id, seq_id, table_name, action, payload, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		op.RequestID, op.SequenceID, op.TableName, string(op.Action), op.Payload,
		string(op.Status), op.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return outbox.Operation{}, err
	}

	op.ID, err = res.LastInsertId()
	if err != nil {
		return outbox.Operation{}, &StorageError{Op: "last insert id", Table: outboxTable, Err: err}
	}

	return op, nil
}

func (r *OutboxRepository) FindPending(ctx context.Context, limit int) ([]outbox.Operation, error) {
	return r.findOps(ctx,
		`SELECT id, request_id, seq_id, table_name, action, payload, status, created_at
		 FROM outbox_operations
		 WHERE status = ?
		 ORDER BY id LIMIT ?`,
		string(outbox.StatusPending), limit,
	)
}

func (r *OutboxRepository) FindByRequestID(ctx context.Context, requestID string) ([]outbox.Operation, error) {
	return r.findOps(ctx,
		`SELECT id, request_id, seq_id, table_name, action, payload, status, created_at
		 FROM outbox_operations
		 WHERE request_id = ?
		 ORDER BY seq_id`,
		requestID,
	)
}

// AssignBatch пишет ключи идемпотентности одним коммитом: либо весь батч
// получает request id и последовательные seq id, либо никто.
func (r *OutboxRepository) AssignBatch(ctx context.Context, requestID string, ids []int64) error {
	return r.storage.BulkUpdate(ctx, func(tx *sql.Tx) error {
		for i, id := range ids {
			res, err := execPrepared(ctx, tx, outboxTable,
				`UPDATE outbox_operations SET request_id = ?, seq_id = ? WHERE id = ?`,
				requestID, int64(i+1), id,
			)
			if err != nil {
				return err
			}

			affected, err := res.RowsAffected()
			if err != nil {
				return &StorageError{Op: "rows affected", Table: outboxTable, Err: err}
			}
			if affected == 0 {
				return fmt.Errorf("operation %d: %w", id, ErrNotFound)
			}
		}
		return nil
	})
}

func (r *OutboxRepository) MarkStatus(ctx context.Context, requestID string, status outbox.Status) error {
	res, err := execPrepared(ctx, r.storage.DB(), outboxTable,
		`UPDATE outbox_operations SET status = ? WHERE request_id = ?`,
		string(status), requestID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &StorageError{Op: "rows affected", Table: outboxTable, Err: err}
	}
	if affected == 0 {
		return fmt.Errorf("request %s: %w", requestID, outbox.ErrBatchNotFound)
	}

	return nil
}

func (r *OutboxRepository) CountByStatus(ctx context.Context, status outbox.Status) (int, error) {
	var count int
	err := queryRowPrepared(ctx, r.storage.DB(), outboxTable,
		`SELECT COUNT(*) FROM outbox_operations WHERE status = ?`,
		func(row RowScanner) error { return row.Scan(&count) },
		string(status),
	)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *OutboxRepository) DeleteByStatusBefore(ctx context.Context, status outbox.Status, before time.Time) (int64, error) {
	res, err := execPrepared(ctx, r.storage.DB(), outboxTable,
		`DELETE FROM outbox_operations WHERE status = ? AND created_at < ?`,
		string(status), before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "rows affected", Table: outboxTable, Err: err}
	}

	return deleted, nil
}

func (r *OutboxRepository) findOps(ctx context.Context, query string, args ...any) ([]outbox.Operation, error) {
	rows, err := queryPrepared(ctx, r.storage.DB(), outboxTable, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ops []outbox.Operation
	for rows.Next() {
		op, err := scanOperation(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan", Table: outboxTable, Err: err}
		}
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "rows", Table: outboxTable, Err: err}
	}

	return ops, nil
}

func scanOperation(row RowScanner) (outbox.Operation, error) {
	var op outbox.Operation
	var action, status, createdAt string

	if err := row.Scan(&op.ID, &op.RequestID, &op.SequenceID, &op.TableName,
		&action, &op.Payload, &status, &createdAt); err != nil {
		return outbox.Operation{}, err
	}

	op.Action = outbox.Action(action)
	op.Status = outbox.Status(status)

	var err error
	if op.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return outbox.Operation{}, fmt.Errorf("parse created_at: %w", err)
	}

	return op, nil
}
