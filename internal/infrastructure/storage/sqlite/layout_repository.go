package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"possync/internal/domain/entity"
	"possync/internal/domain/layout"
	"possync/internal/infrastructure/storage/query"
)

type sectionMapper struct{}

func (sectionMapper) Table() string { return "sections" }

func (sectionMapper) Columns() []string {
	return []string{"name", "location", "tables", "status", "source", "created_at", "updated_at"}
}

func (sectionMapper) Key(s layout.Section) string { return s.ID }

func (sectionMapper) ToRow(s layout.Section) ([]any, error) {
	if !s.Status.Valid() {
		return nil, entity.NewValidationError("section status", string(s.Status))
	}
	if !s.Source.Valid() {
		return nil, entity.NewValidationError("section source", string(s.Source))
	}

	location, err := json.Marshal(s.Location)
	if err != nil {
		return nil, fmt.Errorf("marshal location: %w", err)
	}

	// Пустой список столов пишется как '[]', не NULL
	if s.Tables == nil {
		s.Tables = []layout.Table{}
	}
	tables, err := json.Marshal(s.Tables)
	if err != nil {
		return nil, fmt.Errorf("marshal tables: %w", err)
	}

	return []any{
		s.Name,
		string(location),
		string(tables),
		string(s.Status),
		string(s.Source),
		s.CreatedAt.UTC().Format(timeLayout),
		s.UpdatedAt.UTC().Format(timeLayout),
	}, nil
}

func (sectionMapper) FromRow(row RowScanner) (layout.Section, error) {
	var s layout.Section
	var location, tables, status, source, createdAt, updatedAt string

	if err := row.Scan(&s.ID, &s.Name, &location, &tables, &status, &source,
		&createdAt, &updatedAt); err != nil {
		return layout.Section{}, err
	}

	s.Status = layout.Status(status)
	if !s.Status.Valid() {
		return layout.Section{}, entity.NewValidationError("section status", status)
	}
	s.Source = entity.Source(source)

	if err := json.Unmarshal([]byte(location), &s.Location); err != nil {
		return layout.Section{}, fmt.Errorf("unmarshal location: %w", err)
	}
	if err := json.Unmarshal([]byte(tables), &s.Tables); err != nil {
		return layout.Section{}, fmt.Errorf("unmarshal tables: %w", err)
	}

	var err error
	if s.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return layout.Section{}, fmt.Errorf("parse created_at: %w", err)
	}
	if s.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return layout.Section{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return s, nil
}

// SectionRepository — sqlite-реализация layout.Repository.
type SectionRepository struct {
	*Repository[layout.Section]
	log *slog.Logger
}

func NewSectionRepository(storage *Storage, log *slog.Logger) *SectionRepository {
	return &SectionRepository{
		Repository: NewRepository(storage, sectionMapper{}),
		log:        log,
	}
}

func (r *SectionRepository) FindByID(ctx context.Context, id string) (layout.Section, error) {
	s, err := r.Repository.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return layout.Section{}, layout.ErrNotFound
	}
	return s, err
}

func (r *SectionRepository) Update(ctx context.Context, id string, s layout.Section) (layout.Section, error) {
	updated, err := r.Repository.Update(ctx, id, s)
	if errors.Is(err, ErrNotFound) {
		return layout.Section{}, layout.ErrNotFound
	}
	return updated, err
}

func (r *SectionRepository) FindByLocation(ctx context.Context, locationID string) ([]layout.Section, error) {
	sections, _, err := r.FindAndCount(ctx, query.Options{
		Where: []query.Predicate{
			query.Raw("json_extract(location, '$.id') = ?", locationID),
		},
		Order: []query.Order{{Column: "name"}},
	})
	return sections, err
}
