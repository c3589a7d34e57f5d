package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"possync/internal/domain/entity"
	"possync/internal/domain/synccheck"
)

const checkRequestTable = "check_requests"

type checkRequestMapper struct{}

func (checkRequestMapper) Table() string { return checkRequestTable }

func (checkRequestMapper) Columns() []string {
	return []string{"entity_name", "status", "last_sync", "created_at"}
}

func (checkRequestMapper) Key(req synccheck.CheckRequest) string { return req.ID }

func (checkRequestMapper) ToRow(req synccheck.CheckRequest) ([]any, error) {
	if !req.Status.Valid() {
		return nil, entity.NewValidationError("check request status", string(req.Status))
	}

	return []any{
		req.EntityName,
		string(req.Status),
		req.LastSync.UTC().Format(timeLayout),
		req.CreatedAt.UTC().Format(timeLayout),
	}, nil
}

func (checkRequestMapper) FromRow(row RowScanner) (synccheck.CheckRequest, error) {
	var req synccheck.CheckRequest
	var status, lastSync, createdAt string

	if err := row.Scan(&req.ID, &req.EntityName, &status, &lastSync, &createdAt); err != nil {
		return synccheck.CheckRequest{}, err
	}

	req.Status = synccheck.Status(status)
	if !req.Status.Valid() {
		return synccheck.CheckRequest{}, entity.NewValidationError("check request status", status)
	}

	var err error
	if req.LastSync, err = time.Parse(timeLayout, lastSync); err != nil {
		return synccheck.CheckRequest{}, fmt.Errorf("parse last_sync: %w", err)
	}
	if req.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return synccheck.CheckRequest{}, fmt.Errorf("parse created_at: %w", err)
	}

	return req, nil
}

// CheckRequestRepository — sqlite-реализация synccheck.Repository.
type CheckRequestRepository struct {
	*Repository[synccheck.CheckRequest]
	log *slog.Logger
}

func NewCheckRequestRepository(storage *Storage, log *slog.Logger) *CheckRequestRepository {
	return &CheckRequestRepository{
		Repository: NewRepository(storage, checkRequestMapper{}),
		log:        log,
	}
}

func (r *CheckRequestRepository) Update(ctx context.Context, req synccheck.CheckRequest) (synccheck.CheckRequest, error) {
	updated, err := r.Repository.Update(ctx, req.ID, req)
	if errors.Is(err, ErrNotFound) {
		return synccheck.CheckRequest{}, synccheck.ErrNotFound
	}
	return updated, err
}

func (r *CheckRequestRepository) FindByID(ctx context.Context, id string) (synccheck.CheckRequest, error) {
	req, err := r.Repository.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return synccheck.CheckRequest{}, synccheck.ErrNotFound
	}
	return req, err
}

func (r *CheckRequestRepository) FindPendingByEntity(ctx context.Context, entityName string) (synccheck.CheckRequest, error) {
	var req synccheck.CheckRequest
	mapper := checkRequestMapper{}

	err := queryRowPrepared(ctx, r.run, checkRequestTable,
		`SELECT _id, entity_name, status, last_sync, created_at
		 FROM check_requests
		 WHERE entity_name = ? AND status = ?
		 ORDER BY created_at DESC LIMIT 1`,
		func(row RowScanner) error {
			var scanErr error
			req, scanErr = mapper.FromRow(row)
			return scanErr
		},
		entityName, string(synccheck.StatusPending),
	)
	if errors.Is(err, ErrNotFound) {
		return synccheck.CheckRequest{}, synccheck.ErrNotFound
	}
	if err != nil {
		return synccheck.CheckRequest{}, err
	}

	return req, nil
}

func (r *CheckRequestRepository) FindStale(ctx context.Context, before time.Time) ([]synccheck.CheckRequest, error) {
	rows, err := queryPrepared(ctx, r.run, checkRequestTable,
		`SELECT _id, entity_name, status, last_sync, created_at
		 FROM check_requests
		 WHERE status = ? AND last_sync < ?
		 ORDER BY last_sync`,
		string(synccheck.StatusPending), before.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mapper := checkRequestMapper{}
	var stale []synccheck.CheckRequest
	for rows.Next() {
		req, err := mapper.FromRow(rows)
		if err != nil {
			return nil, &StorageError{Op: "scan", Table: checkRequestTable, Err: err}
		}
		stale = append(stale, req)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "rows", Table: checkRequestTable, Err: err}
	}

	return stale, nil
}

// DeleteFinishedBefore чистит завершенные проверки старше порога;
// pending-строки не трогаются независимо от возраста.
func (r *CheckRequestRepository) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := execPrepared(ctx, r.run, checkRequestTable,
		`DELETE FROM check_requests WHERE status != ? AND created_at < ?`,
		string(synccheck.StatusPending), before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, &StorageError{Op: "rows affected", Table: checkRequestTable, Err: err}
	}

	return deleted, nil
}
