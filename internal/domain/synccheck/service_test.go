package synccheck

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"possync/internal/domain/entity"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, req CheckRequest) (CheckRequest, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(CheckRequest), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, req CheckRequest) (CheckRequest, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(CheckRequest), args.Error(1)
}

func (m *mockRepository) FindByID(ctx context.Context, id string) (CheckRequest, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(CheckRequest), args.Error(1)
}

func (m *mockRepository) FindPendingByEntity(ctx context.Context, entityName string) (CheckRequest, error) {
	args := m.Called(ctx, entityName)
	return args.Get(0).(CheckRequest), args.Error(1)
}

func (m *mockRepository) FindStale(ctx context.Context, before time.Time) ([]CheckRequest, error) {
	args := m.Called(ctx, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CheckRequest), args.Error(1)
}

func (m *mockRepository) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func newTestService(repo *mockRepository) *Service {
	return NewService(repo, slog.New(slog.DiscardHandler))
}

func TestStart_CreatesNewCheck(t *testing.T) {
	repo := new(mockRepository)
	service := newTestService(repo)

	repo.On("FindPendingByEntity", mock.Anything, "printers").
		Return(CheckRequest{}, ErrNotFound)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(req CheckRequest) bool {
		return req.EntityName == "printers" &&
			req.Status == StatusPending &&
			req.ID != "" &&
			!req.LastSync.IsZero()
	})).Return(CheckRequest{ID: "chk-1"}, nil)

	created, err := service.Start(context.Background(), "printers")
	require.NoError(t, err)
	assert.Equal(t, "chk-1", created.ID)
	repo.AssertExpectations(t)
}

func TestStart_ReusesPendingCheck(t *testing.T) {
	repo := new(mockRepository)
	service := newTestService(repo)

	stale := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.On("FindPendingByEntity", mock.Anything, "printers").
		Return(CheckRequest{ID: "chk-1", EntityName: "printers", Status: StatusPending, LastSync: stale}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(req CheckRequest) bool {
		// Открытая проверка переиспользуется со свежим last_sync
		return req.ID == "chk-1" && req.LastSync.After(stale)
	})).Return(CheckRequest{ID: "chk-1"}, nil)

	reused, err := service.Start(context.Background(), "printers")
	require.NoError(t, err)
	assert.Equal(t, "chk-1", reused.ID)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestStart_StorageError(t *testing.T) {
	repo := new(mockRepository)
	service := newTestService(repo)

	repo.On("FindPendingByEntity", mock.Anything, "printers").
		Return(CheckRequest{}, errors.New("disk I/O error"))

	_, err := service.Start(context.Background(), "printers")
	require.Error(t, err)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateStatus(t *testing.T) {
	repo := new(mockRepository)
	service := newTestService(repo)

	old := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	repo.On("FindByID", mock.Anything, "chk-1").
		Return(CheckRequest{ID: "chk-1", Status: StatusPending, LastSync: old}, nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(req CheckRequest) bool {
		return req.Status == StatusConfirmed && req.LastSync.After(old)
	})).Return(CheckRequest{ID: "chk-1", Status: StatusConfirmed}, nil)

	updated, err := service.UpdateStatus(context.Background(), "chk-1", StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	repo := new(mockRepository)
	service := newTestService(repo)

	_, err := service.UpdateStatus(context.Background(), "chk-1", "lost")

	var vErr *entity.ValidationError
	require.ErrorAs(t, err, &vErr)
	repo.AssertNotCalled(t, "FindByID", mock.Anything, mock.Anything)
}

func TestFindStaleRequests(t *testing.T) {
	repo := new(mockRepository)
	service := newTestService(repo)

	repo.On("FindStale", mock.Anything, mock.MatchedBy(func(before time.Time) bool {
		age := time.Since(before)
		return age > 29*time.Minute && age < 31*time.Minute
	})).Return([]CheckRequest{{ID: "chk-1"}}, nil)

	stale, err := service.FindStaleRequests(context.Background(), 30)
	require.NoError(t, err)
	assert.Len(t, stale, 1)
}

func TestCleanupOldRequests(t *testing.T) {
	repo := new(mockRepository)
	service := newTestService(repo)

	repo.On("DeleteFinishedBefore", mock.Anything, mock.MatchedBy(func(before time.Time) bool {
		return time.Since(before) > 6*24*time.Hour
	})).Return(int64(3), nil)

	deleted, err := service.CleanupOldRequests(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
}
