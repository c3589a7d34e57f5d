package printer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"possync/internal/domain/entity"
	"possync/internal/domain/outbox"
	"possync/internal/infrastructure/storage/query"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, p Printer) (Printer, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(Printer), args.Error(1)
}

func (m *mockRepository) CreateMany(ctx context.Context, ps []Printer) ([]Printer, error) {
	args := m.Called(ctx, ps)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Printer), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, id string, p Printer) (Printer, error) {
	args := m.Called(ctx, id, p)
	return args.Get(0).(Printer), args.Error(1)
}

func (m *mockRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (Printer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Printer), args.Error(1)
}

func (m *mockRepository) FindAll(ctx context.Context) ([]Printer, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Printer), args.Error(1)
}

func (m *mockRepository) FindAndCount(ctx context.Context, opts query.Options) ([]Printer, int, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]Printer), args.Int(1), args.Error(2)
}

func (m *mockRepository) FindByKitchen(ctx context.Context, kitchenID string) ([]Printer, error) {
	args := m.Called(ctx, kitchenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Printer), args.Error(1)
}

func (m *mockRepository) FindByLocation(ctx context.Context, locationID string) ([]Printer, error) {
	args := m.Called(ctx, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Printer), args.Error(1)
}

type mockTemplateRepository struct {
	mock.Mock
}

func (m *mockTemplateRepository) Create(ctx context.Context, t Template) (Template, error) {
	args := m.Called(ctx, t)
	return args.Get(0).(Template), args.Error(1)
}

func (m *mockTemplateRepository) Update(ctx context.Context, id string, t Template) (Template, error) {
	args := m.Called(ctx, id, t)
	return args.Get(0).(Template), args.Error(1)
}

func (m *mockTemplateRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTemplateRepository) FindByID(ctx context.Context, id string) (Template, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Template), args.Error(1)
}

func (m *mockTemplateRepository) FindAll(ctx context.Context) ([]Template, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Template), args.Error(1)
}

func (m *mockTemplateRepository) FindByKind(ctx context.Context, kind TemplateKind) ([]Template, error) {
	args := m.Called(ctx, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Template), args.Error(1)
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, tableName string, action outbox.Action, payload string) (outbox.Operation, error) {
	args := m.Called(ctx, tableName, action, payload)
	return args.Get(0).(outbox.Operation), args.Error(1)
}

func newTestService(repo *mockRepository, templates *mockTemplateRepository, queue *mockEnqueuer) *Service {
	return NewService(repo, templates, queue, slog.New(slog.DiscardHandler))
}

func TestRegister_EnqueuesInsert(t *testing.T) {
	repo := new(mockRepository)
	templates := new(mockTemplateRepository)
	queue := new(mockEnqueuer)
	service := newTestService(repo, templates, queue)

	repo.On("Create", mock.Anything, mock.MatchedBy(func(p Printer) bool {
		return p.Name == "Кухня-1" &&
			p.Model == "Epson TM-T20" &&
			p.Status == StatusActive &&
			p.Source == entity.SourceLocal &&
			p.ID != ""
	})).Return(Printer{ID: "p-1", Name: "Кухня-1"}, nil)

	queue.On("Enqueue", mock.Anything, "printers", outbox.ActionInsert,
		mock.MatchedBy(func(payload string) bool {
			return strings.Contains(payload, `"insertOne"`)
		})).Return(outbox.Operation{}, nil)

	created, err := service.Register(context.Background(), "Кухня-1", "Epson TM-T20", Location{ID: "loc-1"})
	require.NoError(t, err)
	assert.Equal(t, "p-1", created.ID)

	repo.AssertExpectations(t)
	queue.AssertExpectations(t)
}

func TestAssignToKitchen(t *testing.T) {
	repo := new(mockRepository)
	templates := new(mockTemplateRepository)
	queue := new(mockEnqueuer)
	service := newTestService(repo, templates, queue)

	repo.On("FindByID", mock.Anything, "p-1").
		Return(Printer{ID: "p-1", Name: "Кухня-1"}, nil)
	repo.On("Update", mock.Anything, "p-1", mock.MatchedBy(func(p Printer) bool {
		return p.KitchenID == "k-9"
	})).Return(Printer{ID: "p-1", KitchenID: "k-9"}, nil)
	queue.On("Enqueue", mock.Anything, "printers", outbox.ActionUpdate,
		mock.MatchedBy(func(payload string) bool {
			return strings.Contains(payload, `"kitchen_id":"k-9"`) &&
				strings.Contains(payload, `"_id":"p-1"`)
		})).Return(outbox.Operation{}, nil)

	updated, err := service.AssignToKitchen(context.Background(), "p-1", "k-9")
	require.NoError(t, err)
	assert.Equal(t, "k-9", updated.KitchenID)

	queue.AssertExpectations(t)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	repo := new(mockRepository)
	templates := new(mockTemplateRepository)
	queue := new(mockEnqueuer)
	service := newTestService(repo, templates, queue)

	_, err := service.UpdateStatus(context.Background(), "p-1", "broken")

	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
	queue.AssertNotCalled(t, "Enqueue", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestActiveByKitchen(t *testing.T) {
	t.Run("неактивные отфильтровываются", func(t *testing.T) {
		repo := new(mockRepository)
		service := newTestService(repo, new(mockTemplateRepository), new(mockEnqueuer))

		repo.On("FindByKitchen", mock.Anything, "k-1").Return([]Printer{
			{ID: "p-1", Status: StatusActive},
			{ID: "p-2", Status: StatusInactive},
			{ID: "p-3", Status: StatusActive},
		}, nil)

		active := service.ActiveByKitchen(context.Background(), "k-1")
		require.Len(t, active, 2)
		assert.Equal(t, "p-1", active[0].ID)
		assert.Equal(t, "p-3", active[1].ID)
	})

	t.Run("сбой хранилища дает пустой список", func(t *testing.T) {
		repo := new(mockRepository)
		service := newTestService(repo, new(mockTemplateRepository), new(mockEnqueuer))

		repo.On("FindByKitchen", mock.Anything, "k-1").
			Return(nil, errors.New("disk I/O error"))

		assert.Nil(t, service.ActiveByKitchen(context.Background(), "k-1"))
	})
}

func TestSaveTemplate(t *testing.T) {
	repo := new(mockRepository)
	templates := new(mockTemplateRepository)
	queue := new(mockEnqueuer)
	service := newTestService(repo, templates, queue)

	templates.On("Create", mock.Anything, mock.MatchedBy(func(tpl Template) bool {
		return tpl.Kind == KindReceipt && tpl.IsDefault && tpl.Source == entity.SourceLocal
	})).Return(Template{ID: "t-1", Kind: KindReceipt}, nil)

	queue.On("Enqueue", mock.Anything, "print_templates", outbox.ActionInsert, mock.Anything).
		Return(outbox.Operation{}, nil)

	created, err := service.SaveTemplate(context.Background(), "Чек", KindReceipt, "{{total}}", true)
	require.NoError(t, err)
	assert.Equal(t, "t-1", created.ID)

	templates.AssertExpectations(t)
	queue.AssertExpectations(t)
}

func TestSaveTemplate_RejectsUnknownKind(t *testing.T) {
	templates := new(mockTemplateRepository)
	service := newTestService(new(mockRepository), templates, new(mockEnqueuer))

	_, err := service.SaveTemplate(context.Background(), "Чек", "poster", "", false)

	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)
	templates.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTemplatesByKind(t *testing.T) {
	templates := new(mockTemplateRepository)
	service := newTestService(new(mockRepository), templates, new(mockEnqueuer))

	templates.On("FindByKind", mock.Anything, KindKitchen).
		Return([]Template{{ID: "t-1"}}, nil)

	found, err := service.TemplatesByKind(context.Background(), KindKitchen)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = service.TemplatesByKind(context.Background(), "poster")
	var vErr *entity.ValidationError
	assert.ErrorAs(t, err, &vErr)
}
