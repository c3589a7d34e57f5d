package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"possync/internal/domain/outbox"
)

func appendOp(t *testing.T, repo *OutboxRepository, table string, action outbox.Action) outbox.Operation {
	t.Helper()

	op, err := repo.Append(context.Background(), outbox.Operation{
		TableName: table,
		Action:    action,
		Payload:   `{"insertOne":{"document":{"_id":"x"}}}`,
	})
	require.NoError(t, err)

	return op
}

func TestOutboxRepository_AppendDefaults(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewOutboxRepository(storage, testLogger())

	op := appendOp(t, repo, "printers", outbox.ActionInsert)

	assert.Positive(t, op.ID)
	assert.Equal(t, outbox.StatusPending, op.Status)
	assert.Empty(t, op.RequestID)
	assert.False(t, op.CreatedAt.IsZero())
}

func TestOutboxRepository_Append_EmptyPayload(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewOutboxRepository(storage, testLogger())

	_, err := repo.Append(context.Background(), outbox.Operation{
		TableName: "printers",
		Action:    outbox.ActionInsert,
	})
	assert.ErrorIs(t, err, outbox.ErrEmptyPayload)
}

func TestOutboxRepository_Append_UnknownAction(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewOutboxRepository(storage, testLogger())

	_, err := repo.Append(context.Background(), outbox.Operation{
		TableName: "printers",
		Action:    "DELETE",
		Payload:   `{}`,
	})
	require.Error(t, err)
}

func TestOutboxRepository_FindPending_OrderAndLimit(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewOutboxRepository(storage, testLogger())
	ctx := context.Background()

	first := appendOp(t, repo, "printers", outbox.ActionInsert)
	second := appendOp(t, repo, "sections", outbox.ActionUpdate)
	appendOp(t, repo, "printers", outbox.ActionUpdate)

	ops, err := repo.FindPending(ctx, 2)
	require.NoError(t, err)
	require.Len(t, ops, 2)

	// Порядок записи сохраняется
	assert.Equal(t, first.ID, ops[0].ID)
	assert.Equal(t, second.ID, ops[1].ID)
}

func TestOutboxRepository_AssignBatch(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewOutboxRepository(storage, testLogger())
	ctx := context.Background()

	a := appendOp(t, repo, "printers", outbox.ActionInsert)
	b := appendOp(t, repo, "printers", outbox.ActionUpdate)

	require.NoError(t, repo.AssignBatch(ctx, "req-1", []int64{a.ID, b.ID}))

	ops, err := repo.FindByRequestID(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, ops, 2)

	assert.Equal(t, a.ID, ops[0].ID)
	assert.Equal(t, int64(1), ops[0].SequenceID)
	assert.Equal(t, b.ID, ops[1].ID)
	assert.Equal(t, int64(2), ops[1].SequenceID)
}

func TestOutboxRepository_AssignBatch_RollsBackOnMissingID(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewOutboxRepository(storage, testLogger())
	ctx := context.Background()

	a := appendOp(t, repo, "printers", outbox.ActionInsert)

	err := repo.AssignBatch(ctx, "req-1", []int64{a.ID, a.ID + 100})
	require.ErrorIs(t, err, ErrNotFound)

	// Привязка первой операции тоже откатилась
	ops, err := repo.FindByRequestID(ctx, "req-1")
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestOutboxRepository_MarkStatus(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewOutboxRepository(storage, testLogger())
	ctx := context.Background()

	a := appendOp(t, repo, "printers", outbox.ActionInsert)
	b := appendOp(t, repo, "printers", outbox.ActionUpdate)
	untouched := appendOp(t, repo, "sections", outbox.ActionInsert)

	require.NoError(t, repo.AssignBatch(ctx, "req-1", []int64{a.ID, b.ID}))
	require.NoError(t, repo.MarkStatus(ctx, "req-1", outbox.StatusAccepted))

	accepted, err := repo.CountByStatus(ctx, outbox.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, 2, accepted)

	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, untouched.ID, pending[0].ID)
}

func TestOutboxRepository_MarkStatus_UnknownBatch(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewOutboxRepository(storage, testLogger())

	err := repo.MarkStatus(context.Background(), "no-such-request", outbox.StatusAccepted)
	assert.ErrorIs(t, err, outbox.ErrBatchNotFound)
}

func TestOutboxRepository_DeleteByStatusBefore(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewOutboxRepository(storage, testLogger())
	ctx := context.Background()

	old, err := repo.Append(ctx, outbox.Operation{
		TableName: "printers",
		Action:    outbox.ActionInsert,
		Payload:   `{}`,
		Status:    outbox.StatusAccepted,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	fresh := appendOp(t, repo, "printers", outbox.ActionInsert)

	deleted, err := repo.DeleteByStatusBefore(ctx, outbox.StatusAccepted,
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	// Ожидающие операции ретеншен не трогает
	pending, err := repo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, fresh.ID, pending[0].ID)
	assert.NotEqual(t, old.ID, pending[0].ID)
}
