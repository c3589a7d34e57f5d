package sqlite

import (
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"possync/internal/domain/entity"
	"possync/internal/domain/printer"
	"possync/internal/infrastructure/storage/query"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()

	storage, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	return storage
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTemplate(id, name string, kind printer.TemplateKind, isDefault bool) printer.Template {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	return printer.Template{
		ID:        id,
		Name:      name,
		Kind:      kind,
		Content:   "{{total}}",
		IsDefault: isDefault,
		Status:    printer.StatusActive,
		Source:    entity.SourceLocal,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRepository_CreateIsUpsert(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewTemplateRepository(storage, testLogger())
	ctx := context.Background()

	tpl := newTemplate("tpl-1", "Чек", printer.KindReceipt, true)
	_, err := repo.Create(ctx, tpl)
	require.NoError(t, err)

	tpl.Name = "Чек (обновленный)"
	tpl.IsDefault = false
	_, err = repo.Create(ctx, tpl)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, "tpl-1")
	require.NoError(t, err)
	assert.Equal(t, "Чек (обновленный)", got.Name)
	assert.False(t, got.IsDefault)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRepository_CreateMany(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewTemplateRepository(storage, testLogger())
	ctx := context.Background()

	templates := []printer.Template{
		newTemplate("tpl-1", "Чек", printer.KindReceipt, true),
		newTemplate("tpl-2", "Кухня", printer.KindKitchen, false),
		newTemplate("tpl-3", "Этикетка", printer.KindLabel, false),
	}

	created, err := repo.CreateMany(ctx, templates)
	require.NoError(t, err)
	assert.Len(t, created, 3)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err := repo.FindByID(ctx, "tpl-2")
	require.NoError(t, err)
	assert.Equal(t, printer.KindKitchen, got.Kind)
}

func TestRepository_CreateMany_Empty(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewTemplateRepository(storage, testLogger())

	created, err := repo.CreateMany(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, created)
}

func TestRepository_Update_NotFound(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewTemplateRepository(storage, testLogger())

	_, err := repo.Update(context.Background(), "missing",
		newTemplate("missing", "Чек", printer.KindReceipt, false))
	assert.ErrorIs(t, err, printer.ErrTemplateNotFound)
}

func TestRepository_Delete_Idempotent(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewTemplateRepository(storage, testLogger())
	ctx := context.Background()

	_, err := repo.Create(ctx, newTemplate("tpl-1", "Чек", printer.KindReceipt, false))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "tpl-1"))
	require.NoError(t, repo.Delete(ctx, "tpl-1"))
	require.NoError(t, repo.Delete(ctx, "never-existed"))

	_, err = repo.FindByID(ctx, "tpl-1")
	assert.ErrorIs(t, err, printer.ErrTemplateNotFound)
}

func TestRepository_RejectsInvalidStatus(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewTemplateRepository(storage, testLogger())

	tpl := newTemplate("tpl-1", "Чек", printer.KindReceipt, false)
	tpl.Status = "broken"

	_, err := repo.Create(context.Background(), tpl)

	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)

	all, err := repo.FindAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRepository_FindAndCount(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewTemplateRepository(storage, testLogger())
	ctx := context.Background()

	_, err := repo.CreateMany(ctx, []printer.Template{
		newTemplate("tpl-1", "Чек дневной", printer.KindReceipt, true),
		newTemplate("tpl-2", "Чек ночной", printer.KindReceipt, false),
		newTemplate("tpl-3", "Кухня", printer.KindKitchen, false),
		newTemplate("tpl-4", "Чек подарочный", printer.KindReceipt, false),
	})
	require.NoError(t, err)

	t.Run("фильтр по равенству", func(t *testing.T) {
		got, total, err := repo.FindAndCount(ctx, query.Options{
			Where: []query.Predicate{query.Eq("kind", string(printer.KindReceipt))},
		})
		require.NoError(t, err)
		assert.Len(t, got, 3)
		assert.Equal(t, 3, total)
	})

	t.Run("фильтр по подстроке", func(t *testing.T) {
		got, total, err := repo.FindAndCount(ctx, query.Options{
			Where: []query.Predicate{query.Like("name", "ночн")},
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "tpl-2", got[0].ID)
		assert.Equal(t, 1, total)
	})

	t.Run("страница меньше общего числа", func(t *testing.T) {
		got, total, err := repo.FindAndCount(ctx, query.Options{
			Where: []query.Predicate{query.Eq("kind", string(printer.KindReceipt))},
			Order: []query.Order{{Column: "name"}},
			Take:  2,
		})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		// total считается по всему отфильтрованному множеству
		assert.Equal(t, 3, total)
	})

	t.Run("смещение страницы", func(t *testing.T) {
		got, _, err := repo.FindAndCount(ctx, query.Options{
			Order: []query.Order{{Column: "_id"}},
			Take:  2,
			Skip:  2,
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "tpl-3", got[0].ID)
		assert.Equal(t, "tpl-4", got[1].ID)
	})

	t.Run("сортировка по убыванию", func(t *testing.T) {
		got, _, err := repo.FindAndCount(ctx, query.Options{
			Order: []query.Order{{Column: "_id", Desc: true}},
			Take:  1,
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "tpl-4", got[0].ID)
	})

	t.Run("пустой результат", func(t *testing.T) {
		got, total, err := repo.FindAndCount(ctx, query.Options{
			Where: []query.Predicate{query.Eq("kind", "unknown")},
		})
		require.NoError(t, err)
		assert.Empty(t, got)
		assert.Zero(t, total)
	})
}

func TestRepository_BoolRoundTrip(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewTemplateRepository(storage, testLogger())
	ctx := context.Background()

	_, err := repo.Create(ctx, newTemplate("tpl-1", "Чек", printer.KindReceipt, true))
	require.NoError(t, err)
	_, err = repo.Create(ctx, newTemplate("tpl-2", "Кухня", printer.KindKitchen, false))
	require.NoError(t, err)

	first, err := repo.FindByID(ctx, "tpl-1")
	require.NoError(t, err)
	assert.True(t, first.IsDefault)

	second, err := repo.FindByID(ctx, "tpl-2")
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
}

func TestRepository_FindByKind_DefaultFirst(t *testing.T) {
	storage := newTestStorage(t)
	repo := NewTemplateRepository(storage, testLogger())
	ctx := context.Background()

	_, err := repo.CreateMany(ctx, []printer.Template{
		newTemplate("tpl-1", "Чек альтернативный", printer.KindReceipt, false),
		newTemplate("tpl-2", "Чек основной", printer.KindReceipt, true),
		newTemplate("tpl-3", "Кухня", printer.KindKitchen, false),
	})
	require.NoError(t, err)

	got, err := repo.FindByKind(ctx, printer.KindReceipt)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "tpl-2", got[0].ID)
	assert.True(t, got[0].IsDefault)
}
