package layout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"possync/internal/domain/entity"
	"possync/internal/domain/outbox"
)

// Servicer — операции над планом зала.
type Servicer interface {
	Create(ctx context.Context, name string, location Location, tables []Table) (Section, error)

	// UpdateTable заменяет один стол в списке секции. Отсутствующий
	// стол — ErrTableNotFound, отдельно от ошибки хранилища.
	UpdateTable(ctx context.Context, sectionID, tableID string, table Table) (Section, error)

	// AddTable добавляет стол в секцию.
	AddTable(ctx context.Context, sectionID string, table Table) (Section, error)

	// RemoveTable убирает стол из секции.
	RemoveTable(ctx context.Context, sectionID, tableID string) (Section, error)

	FindByLocation(ctx context.Context, locationID string) ([]Section, error)

	// ReplaceAll выполняет полный ресинк плана зала: очистка и
	// атомарная загрузка серверного снапшота.
	ReplaceAll(ctx context.Context, sections []Section) error
}

const tableName = "sections"

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

func (s *Service) Create(ctx context.Context, name string, location Location, tables []Table) (Section, error) {
	now := time.Now().UTC()
	section := Section{
		ID:        uuid.NewString(),
		Name:      name,
		Location:  location,
		Tables:    tables,
		Status:    StatusActive,
		Source:    entity.SourceLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created, err := s.repo.Create(ctx, section)
	if err != nil {
		return Section{}, fmt.Errorf("create section: %w", err)
	}

	payload, err := outbox.InsertPayload(created)
	if err != nil {
		return Section{}, fmt.Errorf("build insert payload: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, tableName, outbox.ActionInsert, payload); err != nil {
		return Section{}, fmt.Errorf("enqueue section insert: %w", err)
	}

	return created, nil
}

func (s *Service) UpdateTable(ctx context.Context, sectionID, tableID string, table Table) (Section, error) {
	section, err := s.repo.FindByID(ctx, sectionID)
	if err != nil {
		return Section{}, fmt.Errorf("find section %s: %w", sectionID, err)
	}

	found := false
	for i := range section.Tables {
		if section.Tables[i].ID == tableID {
			table.ID = tableID
			section.Tables[i] = table
			found = true
			break
		}
	}
	if !found {
		return Section{}, fmt.Errorf("section %s, table %s: %w", sectionID, tableID, ErrTableNotFound)
	}

	return s.saveTables(ctx, section)
}

func (s *Service) AddTable(ctx context.Context, sectionID string, table Table) (Section, error) {
	section, err := s.repo.FindByID(ctx, sectionID)
	if err != nil {
		return Section{}, fmt.Errorf("find section %s: %w", sectionID, err)
	}

	if table.ID == "" {
		table.ID = uuid.NewString()
	}
	section.Tables = append(section.Tables, table)

	return s.saveTables(ctx, section)
}

func (s *Service) RemoveTable(ctx context.Context, sectionID, tableID string) (Section, error) {
	section, err := s.repo.FindByID(ctx, sectionID)
	if err != nil {
		return Section{}, fmt.Errorf("find section %s: %w", sectionID, err)
	}

	kept := section.Tables[:0]
	found := false
	for _, t := range section.Tables {
		if t.ID == tableID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return Section{}, fmt.Errorf("section %s, table %s: %w", sectionID, tableID, ErrTableNotFound)
	}
	section.Tables = kept

	return s.saveTables(ctx, section)
}

func (s *Service) FindByLocation(ctx context.Context, locationID string) ([]Section, error) {
	sections, err := s.repo.FindByLocation(ctx, locationID)
	if err != nil {
		return nil, fmt.Errorf("find sections by location %s: %w", locationID, err)
	}
	return sections, nil
}

func (s *Service) ReplaceAll(ctx context.Context, sections []Section) error {
	for i := range sections {
		sections[i].Source = entity.SourceServer
	}

	if err := s.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("clear sections: %w", err)
	}
	if _, err := s.repo.CreateMany(ctx, sections); err != nil {
		return fmt.Errorf("load sections snapshot: %w", err)
	}

	s.log.Info("план зала перезагружен с сервера", "sections", len(sections))
	return nil
}

// saveTables перезаписывает секцию и ставит мутацию списка столов в очередь.
func (s *Service) saveTables(ctx context.Context, section Section) (Section, error) {
	section.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, section.ID, section)
	if err != nil {
		return Section{}, fmt.Errorf("update section %s: %w", section.ID, err)
	}

	payload, err := outbox.UpdatePayload(map[string]string{"_id": section.ID}, map[string]any{
		"tables":     updated.Tables,
		"updated_at": updated.UpdatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return Section{}, fmt.Errorf("build update payload: %w", err)
	}
	if _, err := s.queue.Enqueue(ctx, tableName, outbox.ActionUpdate, payload); err != nil {
		return Section{}, fmt.Errorf("enqueue section update: %w", err)
	}

	return updated, nil
}
