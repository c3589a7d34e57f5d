package device

import (
	"context"

	"possync/internal/infrastructure/storage/query"
)

// Repository — локальное хранилище учетных записей терминала.
type Repository interface {
	Create(ctx context.Context, user User) (User, error)
	CreateMany(ctx context.Context, users []User) ([]User, error)
	Update(ctx context.Context, id string, user User) (User, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (User, error)
	FindAll(ctx context.Context) ([]User, error)
	FindAndCount(ctx context.Context, opts query.Options) ([]User, int, error)

	// FindByLocation возвращает пользователей точки продаж.
	FindByLocation(ctx context.Context, locationID string) ([]User, error)

	// FindByStatus возвращает пользователей в заданном статусе.
	FindByStatus(ctx context.Context, status Status) ([]User, error)

	// BulkUpsert применяет пакет записей в одной транзакции:
	// всё или ничего.
	BulkUpsert(ctx context.Context, users []User) error
}
