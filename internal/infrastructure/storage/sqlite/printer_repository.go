package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"possync/internal/domain/entity"
	"possync/internal/domain/printer"
	"possync/internal/infrastructure/storage/query"
)

type printerMapper struct{}

func (printerMapper) Table() string { return "printers" }

func (printerMapper) Columns() []string {
	return []string{"name", "model", "kitchen_id", "location", "status", "source", "created_at", "updated_at"}
}

func (printerMapper) Key(p printer.Printer) string { return p.ID }

func (printerMapper) ToRow(p printer.Printer) ([]any, error) {
	if !p.Status.Valid() {
		return nil, entity.NewValidationError("printer status", string(p.Status))
	}
	if !p.Source.Valid() {
		return nil, entity.NewValidationError("printer source", string(p.Source))
	}

	location, err := json.Marshal(p.Location)
	if err != nil {
		return nil, fmt.Errorf("marshal location: %w", err)
	}

	return []any{
		p.Name,
		p.Model,
		p.KitchenID,
		string(location),
		string(p.Status),
		string(p.Source),
		p.CreatedAt.UTC().Format(timeLayout),
		p.UpdatedAt.UTC().Format(timeLayout),
	}, nil
}

func (printerMapper) FromRow(row RowScanner) (printer.Printer, error) {
	var p printer.Printer
	var location, status, source, createdAt, updatedAt string

	if err := row.Scan(&p.ID, &p.Name, &p.Model, &p.KitchenID, &location,
		&status, &source, &createdAt, &updatedAt); err != nil {
		return printer.Printer{}, err
	}

	p.Status = printer.Status(status)
	if !p.Status.Valid() {
		return printer.Printer{}, entity.NewValidationError("printer status", status)
	}
	p.Source = entity.Source(source)

	if err := json.Unmarshal([]byte(location), &p.Location); err != nil {
		return printer.Printer{}, fmt.Errorf("unmarshal location: %w", err)
	}

	var err error
	if p.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return printer.Printer{}, fmt.Errorf("parse created_at: %w", err)
	}
	if p.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return printer.Printer{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return p, nil
}

// PrinterRepository — sqlite-реализация printer.Repository.
type PrinterRepository struct {
	*Repository[printer.Printer]
	log *slog.Logger
}

func NewPrinterRepository(storage *Storage, log *slog.Logger) *PrinterRepository {
	return &PrinterRepository{
		Repository: NewRepository(storage, printerMapper{}),
		log:        log,
	}
}

func (r *PrinterRepository) FindByID(ctx context.Context, id string) (printer.Printer, error) {
	p, err := r.Repository.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return printer.Printer{}, printer.ErrNotFound
	}
	return p, err
}

func (r *PrinterRepository) Update(ctx context.Context, id string, p printer.Printer) (printer.Printer, error) {
	updated, err := r.Repository.Update(ctx, id, p)
	if errors.Is(err, ErrNotFound) {
		return printer.Printer{}, printer.ErrNotFound
	}
	return updated, err
}

func (r *PrinterRepository) FindByKitchen(ctx context.Context, kitchenID string) ([]printer.Printer, error) {
	printers, _, err := r.FindAndCount(ctx, query.Options{
		Where: []query.Predicate{query.Eq("kitchen_id", kitchenID)},
		Order: []query.Order{{Column: "name"}},
	})
	return printers, err
}

func (r *PrinterRepository) FindByLocation(ctx context.Context, locationID string) ([]printer.Printer, error) {
	printers, _, err := r.FindAndCount(ctx, query.Options{
		Where: []query.Predicate{
			query.Raw("json_extract(location, '$.id') = ?", locationID),
		},
	})
	return printers, err
}

type templateMapper struct{}

func (templateMapper) Table() string { return "print_templates" }

func (templateMapper) Columns() []string {
	return []string{"name", "kind", "content", "is_default", "status", "source", "created_at", "updated_at"}
}

func (templateMapper) Key(t printer.Template) string { return t.ID }

func (templateMapper) ToRow(t printer.Template) ([]any, error) {
	if !t.Kind.Valid() {
		return nil, entity.NewValidationError("template kind", string(t.Kind))
	}
	if !t.Status.Valid() {
		return nil, entity.NewValidationError("template status", string(t.Status))
	}
	if !t.Source.Valid() {
		return nil, entity.NewValidationError("template source", string(t.Source))
	}

	// Булево хранится целым числом
	isDefault := 0
	if t.IsDefault {
		isDefault = 1
	}

	return []any{
		t.Name,
		string(t.Kind),
		t.Content,
		isDefault,
		string(t.Status),
		string(t.Source),
		t.CreatedAt.UTC().Format(timeLayout),
		t.UpdatedAt.UTC().Format(timeLayout),
	}, nil
}

func (templateMapper) FromRow(row RowScanner) (printer.Template, error) {
	var t printer.Template
	var kind, status, source, createdAt, updatedAt string
	var isDefault int

	if err := row.Scan(&t.ID, &t.Name, &kind, &t.Content, &isDefault,
		&status, &source, &createdAt, &updatedAt); err != nil {
		return printer.Template{}, err
	}

	t.Kind = printer.TemplateKind(kind)
	if !t.Kind.Valid() {
		return printer.Template{}, entity.NewValidationError("template kind", kind)
	}
	t.Status = printer.Status(status)
	if !t.Status.Valid() {
		return printer.Template{}, entity.NewValidationError("template status", status)
	}
	t.Source = entity.Source(source)
	t.IsDefault = isDefault != 0

	var err error
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return printer.Template{}, fmt.Errorf("parse created_at: %w", err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return printer.Template{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return t, nil
}

// TemplateRepository — sqlite-реализация printer.TemplateRepository.
type TemplateRepository struct {
	*Repository[printer.Template]
	log *slog.Logger
}

func NewTemplateRepository(storage *Storage, log *slog.Logger) *TemplateRepository {
	return &TemplateRepository{
		Repository: NewRepository(storage, templateMapper{}),
		log:        log,
	}
}

func (r *TemplateRepository) FindByID(ctx context.Context, id string) (printer.Template, error) {
	t, err := r.Repository.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return printer.Template{}, printer.ErrTemplateNotFound
	}
	return t, err
}

func (r *TemplateRepository) Update(ctx context.Context, id string, t printer.Template) (printer.Template, error) {
	updated, err := r.Repository.Update(ctx, id, t)
	if errors.Is(err, ErrNotFound) {
		return printer.Template{}, printer.ErrTemplateNotFound
	}
	return updated, err
}

func (r *TemplateRepository) FindByKind(ctx context.Context, kind printer.TemplateKind) ([]printer.Template, error) {
	templates, _, err := r.FindAndCount(ctx, query.Options{
		Where: []query.Predicate{query.Eq("kind", string(kind))},
		Order: []query.Order{{Column: "is_default", Desc: true}, {Column: "name"}},
	})
	return templates, err
}
