package printer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"possync/internal/domain/entity"
	"possync/internal/domain/outbox"
)

// Servicer — операции над принтерами и шаблонами печати.
type Servicer interface {
	Register(ctx context.Context, name, model string, location Location) (Printer, error)

	// AssignToKitchen назначает принтер кухне: запись читается целиком,
	// меняется в памяти и перезаписывается.
	AssignToKitchen(ctx context.Context, printerID, kitchenID string) (Printer, error)

	UpdateStatus(ctx context.Context, id string, status Status) (Printer, error)

	// ActiveByKitchen — защитный read-хелпер для некритичных запросов UI:
	// сбой хранилища логируется и превращается в пустой список.
	ActiveByKitchen(ctx context.Context, kitchenID string) []Printer

	SaveTemplate(ctx context.Context, name string, kind TemplateKind, content string, isDefault bool) (Template, error)
	TemplatesByKind(ctx context.Context, kind TemplateKind) ([]Template, error)
}

const (
	tableName         = "printers"
	templateTableName = "print_templates"
)

type Service struct {
	repo      Repository
	templates TemplateRepository
	queue     outbox.Enqueuer
	log       *slog.Logger
}

func NewService(repo Repository, templates TemplateRepository, queue outbox.Enqueuer, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		templates: templates,
		queue:     queue,
		log:       log,
	}
}

func (s *Service) Register(ctx context.Context, name, model string, location Location) (Printer, error) {
	now := time.Now().UTC()
	p := Printer{
		ID:        uuid.NewString(),
		Name:      name,
		Model:     model,
		Location:  location,
		Status:    StatusActive,
		Source:    entity.SourceLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Printer{}, fmt.Errorf("create printer: %w", err)
	}

	payload, err := outbox.InsertPayload(created)
	if err != nil {
		return Printer{}, fmt.Errorf("build insert payload: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, tableName, outbox.ActionInsert, payload); err != nil {
		return Printer{}, fmt.Errorf("enqueue printer insert: %w", err)
	}

	return created, nil
}

func (s *Service) AssignToKitchen(ctx context.Context, printerID, kitchenID string) (Printer, error) {
	p, err := s.repo.FindByID(ctx, printerID)
	if err != nil {
		return Printer{}, fmt.Errorf("find printer %s: %w", printerID, err)
	}

	p.KitchenID = kitchenID
	p.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, printerID, p)
	if err != nil {
		return Printer{}, fmt.Errorf("update printer %s: %w", printerID, err)
	}

	if err := s.enqueueUpdate(ctx, printerID, map[string]any{
		"kitchen_id": updated.KitchenID,
		"updated_at": updated.UpdatedAt.Format(time.RFC3339),
	}); err != nil {
		return Printer{}, err
	}

	return updated, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (Printer, error) {
	if !status.Valid() {
		return Printer{}, entity.NewValidationError("printer status", string(status))
	}

	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Printer{}, fmt.Errorf("find printer %s: %w", id, err)
	}

	p.Status = status
	p.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, id, p)
	if err != nil {
		return Printer{}, fmt.Errorf("update printer %s: %w", id, err)
	}

	if err := s.enqueueUpdate(ctx, id, map[string]any{
		"status":     updated.Status,
		"updated_at": updated.UpdatedAt.Format(time.RFC3339),
	}); err != nil {
		return Printer{}, err
	}

	return updated, nil
}

func (s *Service) ActiveByKitchen(ctx context.Context, kitchenID string) []Printer {
	printers, err := s.repo.FindByKitchen(ctx, kitchenID)
	if err != nil {
		s.log.Error("не удалось получить принтеры кухни",
			"kitchen_id", kitchenID, "error", err)
		return nil
	}

	active := printers[:0]
	for _, p := range printers {
		if p.Status == StatusActive {
			active = append(active, p)
		}
	}

	return active
}

func (s *Service) SaveTemplate(ctx context.Context, name string, kind TemplateKind, content string, isDefault bool) (Template, error) {
	if !kind.Valid() {
		return Template{}, entity.NewValidationError("template kind", string(kind))
	}

	now := time.Now().UTC()
	t := Template{
		ID:        uuid.NewString(),
		Name:      name,
		Kind:      kind,
		Content:   content,
		IsDefault: isDefault,
		Status:    StatusActive,
		Source:    entity.SourceLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.templates.Create(ctx, t)
	if err != nil {
		return Template{}, fmt.Errorf("create template: %w", err)
	}

	payload, err := outbox.InsertPayload(created)
	if err != nil {
		return Template{}, fmt.Errorf("build insert payload: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, templateTableName, outbox.ActionInsert, payload); err != nil {
		return Template{}, fmt.Errorf("enqueue template insert: %w", err)
	}

	return created, nil
}

func (s *Service) TemplatesByKind(ctx context.Context, kind TemplateKind) ([]Template, error) {
	if !kind.Valid() {
		return nil, entity.NewValidationError("template kind", string(kind))
	}

	templates, err := s.templates.FindByKind(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("find templates by kind %s: %w", kind, err)
	}

	return templates, nil
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
