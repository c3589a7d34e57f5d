package printer

import (
	"context"

	"possync/internal/infrastructure/storage/query"
)

// Repository — локальное хранилище принтеров.
type Repository interface {
	Create(ctx context.Context, p Printer) (Printer, error)
	CreateMany(ctx context.Context, ps []Printer) ([]Printer, error)
	Update(ctx context.Context, id string, p Printer) (Printer, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (Printer, error)
	FindAll(ctx context.Context) ([]Printer, error)
	FindAndCount(ctx context.Context, opts query.Options) ([]Printer, int, error)

	// FindByKitchen возвращает принтеры, назначенные кухне.
	FindByKitchen(ctx context.Context, kitchenID string) ([]Printer, error)

	// FindByLocation возвращает принтеры точки продаж.
	FindByLocation(ctx context.Context, locationID string) ([]Printer, error)
}

// TemplateRepository — локальное хранилище шаблонов печати.
type TemplateRepository interface {
	Create(ctx context.Context, t Template) (Template, error)
	Update(ctx context.Context, id string, t Template) (Template, error)
	Delete(ctx context.Context, id string) error
	FindByID(ctx context.Context, id string) (Template, error)
	FindAll(ctx context.Context) ([]Template, error)

	// FindByKind возвращает шаблоны заданного назначения.
	FindByKind(ctx context.Context, kind TemplateKind) ([]Template, error)
}
