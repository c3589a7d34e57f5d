package layout

import (
	"context"

	"possync/internal/infrastructure/storage/query"
)

// Repository — локальное хранилище секций зала.
type Repository interface {
	Create(ctx context.Context, s Section) (Section, error)
	CreateMany(ctx context.Context, ss []Section) ([]Section, error)
	Update(ctx context.Context, id string, s Section) (Section, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	FindByID(ctx context.Context, id string) (Section, error)
	FindAll(ctx context.Context) ([]Section, error)
	FindAndCount(ctx context.Context, opts query.Options) ([]Section, int, error)

	// FindByLocation возвращает секции точки продаж.
	FindByLocation(ctx context.Context, locationID string) ([]Section, error)
}
