package device

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"possync/internal/domain/entity"
	"possync/internal/domain/outbox"
)

// Servicer — операции над учетными записями терминала.
type Servicer interface {
	// Create заводит локальную учетную запись и ставит мутацию
	// в очередь на доставку.
	Create(ctx context.Context, name, pin string, company Company, location Location, perms Permissions) (User, error)

	// UpdateStatus меняет статус записи, инкрементируя version.
	UpdateStatus(ctx context.Context, id string, status Status) (User, error)

	// UpdatePermissions перезаписывает права, инкрементируя version.
	UpdatePermissions(ctx context.Context, id string, perms Permissions) (User, error)

	// Authenticate проверяет PIN пользователя.
	Authenticate(ctx context.Context, id, pin string) (User, error)

	// FindByLocation возвращает пользователей точки продаж.
	FindByLocation(ctx context.Context, locationID string) ([]User, error)

	// ImportFromServer применяет пакет серверных записей атомарно,
	// без постановки в аутбокс.
	ImportFromServer(ctx context.Context, users []User) error
}

const tableName = "device_users"

type Service struct {
	repo  Repository
	queue outbox.Enqueuer
	log   *slog.Logger
}

func NewService(repo Repository, queue outbox.Enqueuer, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		queue: queue,
		log:   log,
	}
}

func (s *Service) Create(ctx context.Context, name, pin string, company Company, location Location, perms Permissions) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hash PIN: %w", err)
	}

	now := time.Now().UTC()
	user := User{
		ID:          uuid.NewString(),
		Name:        name,
		PINHash:     string(hash),
		Status:      StatusActive,
		Company:     company,
		Location:    location,
		Permissions: perms,
		Source:      entity.SourceLocal,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return User{}, fmt.Errorf("create device user: %w", err)
	}

	if err := s.enqueueInsert(ctx, created); err != nil {
		return User{}, err
	}

	return created, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (User, error) {
	if !status.Valid() {
		return User{}, entity.NewValidationError("device user status", string(status))
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("find device user %s: %w", id, err)
	}

	user.Status = status
	user.Version++
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, id, user)
	if err != nil {
		return User{}, fmt.Errorf("update device user %s: %w", id, err)
	}

	if err := s.enqueueUpdate(ctx, id, map[string]any{
		"status":     updated.Status,
		"version":    updated.Version,
		"updated_at": updated.UpdatedAt.Format(time.RFC3339),
	}); err != nil {
		return User{}, err
	}

	return updated, nil
}

func (s *Service) UpdatePermissions(ctx context.Context, id string, perms Permissions) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("find device user %s: %w", id, err)
	}

	user.Permissions = perms
	user.Version++
	user.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, id, user)
	if err != nil {
		return User{}, fmt.Errorf("update device user %s: %w", id, err)
	}

	if err := s.enqueueUpdate(ctx, id, map[string]any{
		"permissions": updated.Permissions,
		"version":     updated.Version,
		"updated_at":  updated.UpdatedAt.Format(time.RFC3339),
	}); err != nil {
		return User{}, err
	}

	return updated, nil
}

func (s *Service) Authenticate(ctx context.Context, id, pin string) (User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("find device user %s: %w", id, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PINHash), []byte(pin)); err != nil {
		return User{}, ErrInvalidPIN
	}

	return user, nil
}

func (s *Service) FindByLocation(ctx context.Context, locationID string) ([]User, error) {
	users, err := s.repo.FindByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("find users by location %s: %w", locationID, err)
	}
	return users, nil
}

func (s *Service) ImportFromServer(ctx context.Context, users []User) error {
	for i := range users {
		users[i].Source = entity.SourceServer
	}

	if err := s.repo.BulkUpsert(ctx, users); err != nil {
		return fmt.Errorf("import device users: %w", err)
	}

	s.log.Info("пользователи импортированы с сервера", "count", len(users))
	return nil
}

func (s *Service) enqueueInsert(ctx context.Context, user User) error {
	payload, err := outbox.InsertPayload(user)
	if err != nil {
		return fmt.Errorf("build insert payload: %w", err)
	}

	if _, err := s.queue.Enqueue(ctx, tableName, outbox.ActionInsert, payload); err != nil {
		return fmt.Errorf("enqueue insert for %s: %w", user.ID, err)
	}

	return nil
}

func (s *Service) enqueueUpdate(ctx context.Context, id string, update map[string]any) error {
	payload, err := outbox.UpdatePayload(map[string]string{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("build update payload: %w", err)
	}

	if _, err := s.queue.Enqueue(ctx, tableName, outbox.ActionUpdate, payload); err != nil {
		return fmt.Errorf("enqueue update for %s: %w", id, err)
	}

	return nil
}
