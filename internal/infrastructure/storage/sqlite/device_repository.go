package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"possync/internal/domain/device"
	"possync/internal/domain/entity"
	"possync/internal/infrastructure/storage/query"
)

const timeLayout = time.RFC3339

type userMapper struct{}

func (userMapper) Table() string { return "device_users" }

func (userMapper) Columns() []string {
	return []string{"name", "pin_hash", "status", "company", "location", "permissions", "source", "version", "created_at", "updated_at"}
}

func (userMapper) Key(u device.User) string { return u.ID }

func (userMapper) ToRow(u device.User) ([]any, error) {
	// Значения вне перечислений отсекаются здесь, до хранилища
	if !u.Status.Valid() {
		return nil, entity.NewValidationError("device user status", string(u.Status))
	}
	if !u.Source.Valid() {
		return nil, entity.NewValidationError("device user source", string(u.Source))
	}

	company, err := json.Marshal(u.Company)
	if err != nil {
		return nil, fmt.Errorf("marshal company: %w", err)
	}
	location, err := json.Marshal(u.Location)
	if err != nil {
		return nil, fmt.Errorf("marshal location: %w", err)
	}
	permissions, err := json.Marshal(u.Permissions)
	if err != nil {
		return nil, fmt.Errorf("marshal permissions: %w", err)
	}

	return []any{
		u.Name,
		u.PINHash,
		string(u.Status),
		string(company),
		string(location),
		string(permissions),
		string(u.Source),
		u.Version,
		u.CreatedAt.UTC().Format(timeLayout),
		u.UpdatedAt.UTC().Format(timeLayout),
	}, nil
}

func (userMapper) FromRow(row RowScanner) (device.User, error) {
	var u device.User
	var status, company, location, permissions, source string
	var createdAt, updatedAt string

	if err := row.Scan(&u.ID, &u.Name, &u.PINHash, &status, &company, &location,
		&permissions, &source, &u.Version, &createdAt, &updatedAt); err != nil {
		return device.User{}, err
	}

	u.Status = device.Status(status)
	if !u.Status.Valid() {
		return device.User{}, entity.NewValidationError("device user status", status)
	}
	u.Source = entity.Source(source)

	if err := json.Unmarshal([]byte(company), &u.Company); err != nil {
		return device.User{}, fmt.Errorf("unmarshal company: %w", err)
	}
	if err := json.Unmarshal([]byte(location), &u.Location); err != nil {
		return device.User{}, fmt.Errorf("unmarshal location: %w", err)
	}
	if err := json.Unmarshal([]byte(permissions), &u.Permissions); err != nil {
		return device.User{}, fmt.Errorf("unmarshal permissions: %w", err)
	}

	var err error
	if u.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return device.User{}, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return device.User{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return u, nil
}

// DeviceUserRepository — sqlite-реализация device.Repository.
type DeviceUserRepository struct {
	*Repository[device.User]
	storage *Storage
	log     *slog.Logger
}

func NewDeviceUserRepository(storage *Storage, log *slog.Logger) *DeviceUserRepository {
	return &DeviceUserRepository{
		Repository: NewRepository(storage, userMapper{}),
		storage:    storage,
		log:        log,
	}
}

func (r *DeviceUserRepository) FindByID(ctx context.Context, id string) (device.User, error) {
	u, err := r.Repository.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return device.User{}, device.ErrNotFound
	}
	return u, err
}

func (r *DeviceUserRepository) Update(ctx context.Context, id string, u device.User) (device.User, error) {
	updated, err := r.Repository.Update(ctx, id, u)
	if errors.Is(err, ErrNotFound) {
		return device.User{}, device.ErrNotFound
	}
	return updated, err
}

func (r *DeviceUserRepository) FindByLocation(ctx context.Context, locationID string) ([]device.User, error) {
	users, _, err := r.FindAndCount(ctx, query.Options{
		Where: []query.Predicate{
			// Привязка к точке лежит во вложенном JSON
			query.Raw("json_extract(location, '$.id') = ?", locationID),
		},
	})
	return users, err
}

func (r *DeviceUserRepository) FindByStatus(ctx context.Context, status device.Status) ([]device.User, error) {
	users, _, err := r.FindAndCount(ctx, query.Options{
		Where: []query.Predicate{query.Eq("status", string(status))},
	})
	return users, err
}

// BulkUpsert применяет пакет записей в одной транзакции; любой сбой
// откатывает весь пакет, исходная ошибка уходит вызывающему.
func (r *DeviceUserRepository) BulkUpsert(ctx context.Context, users []device.User) error {
	return r.storage.BulkUpdate(ctx, func(tx *sql.Tx) error {
		txRepo := r.WithTx(tx)
		for _, u := range users {
			if _, err := txRepo.Create(ctx, u); err != nil {
				return err
			}
		}
		return nil
	})
}
