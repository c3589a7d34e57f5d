package synccheck

import (
	"context"
	"time"
)

// Repository — хранилище запросов проверки синхронизации.
type Repository interface {
	Create(ctx context.Context, req CheckRequest) (CheckRequest, error)
	Update(ctx context.Context, req CheckRequest) (CheckRequest, error)
	FindByID(ctx context.Context, id string) (CheckRequest, error)

	// FindPendingByEntity возвращает незавершенную проверку коллекции,
	// если она есть.
	FindPendingByEntity(ctx context.Context, entityName string) (CheckRequest, error)

	// FindStale возвращает pending-проверки, у которых last_sync
	// старше before.
	FindStale(ctx context.Context, before time.Time) ([]CheckRequest, error)

	// DeleteFinishedBefore удаляет завершенные (не pending) проверки,
	// созданные до before. Возвращает число удаленных строк.
	DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error)
}
