package service

import (
	"context"
	"testing"
	"time"

	"gamelog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFollowRepo implements repository.FollowRepository with overridable
// function fields. Unset fields return zero values.
type stubFollowRepo struct {
	createFn           func(ctx context.Context, follow *models.Follow) error
	deleteFn           func(ctx context.Context, followerID, followeeID uint) (bool, error)
	existsFn           func(ctx context.Context, followerID, followeeID uint) (bool, error)
	listFolloweesFn    func(ctx context.Context, followerID uint) ([]uint, error)
	listFollowersFn    func(ctx context.Context, followeeID uint) ([]uint, error)
	listEdgesFromFn    func(ctx context.Context, followerIDs []uint) ([]models.Follow, error)
	fetchByFollowersFn func(ctx context.Context, followerIDs []uint, limit int, before *time.Time) ([]models.Follow, error)
}

func (s *stubFollowRepo) Create(ctx context.Context, follow *models.Follow) error {
	if s.createFn != nil {
		return s.createFn(ctx, follow)
	}
	return nil
}

func (s *stubFollowRepo) Delete(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (s *stubFollowRepo) Exists(ctx context.Context, followerID, followeeID uint) (bool, error) {
	if s.existsFn != nil {
		return s.existsFn(ctx, followerID, followeeID)
	}
	return false, nil
}

func (s *stubFollowRepo) ListFollowees(ctx context.Context, followerID uint) ([]uint, error) {
	if s.listFolloweesFn != nil {
		return s.listFolloweesFn(ctx, followerID)
	}
	return nil, nil
}

func (s *stubFollowRepo) ListFollowers(ctx context.Context, followeeID uint) ([]uint, error) {
	if s.listFollowersFn != nil {
		return s.listFollowersFn(ctx, followeeID)
	}
	return nil, nil
}

func (s *stubFollowRepo) ListEdgesFrom(ctx context.Context, followerIDs []uint) ([]models.Follow, error) {
	if s.listEdgesFromFn != nil {
		return s.listEdgesFromFn(ctx, followerIDs)
	}
	return nil, nil
}

func (s *stubFollowRepo) FetchByFollowers(ctx context.Context, followerIDs []uint, limit int, before *time.Time) ([]models.Follow, error) {
	if s.fetchByFollowersFn != nil {
		return s.fetchByFollowersFn(ctx, followerIDs, limit, before)
	}
	return nil, nil
}

// stubUserRepo implements repository.UserRepository with overridable function
// fields.
type stubUserRepo struct {
	getByIDFn  func(ctx context.Context, id uint) (*models.User, error)
	getByIDsFn func(ctx context.Context, ids []uint) ([]models.User, error)
}

func (s *stubUserRepo) GetByID(ctx context.Context, id uint) (*models.User, error) {
	if s.getByIDFn != nil {
		return s.getByIDFn(ctx, id)
	}
	return &models.User{ID: id}, nil
}

func (s *stubUserRepo) GetByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if s.getByIDsFn != nil {
		return s.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (s *stubUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, models.NewNotFoundError("User", email)
}

func (s *stubUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, models.NewNotFoundError("User", username)
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) error { return nil }
func (s *stubUserRepo) Update(ctx context.Context, user *models.User) error { return nil }
func (s *stubUserRepo) Delete(ctx context.Context, id uint) error           { return nil }
func (s *stubUserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return nil, nil
}

func TestFollowService_SelfFollowRejected(t *testing.T) {
	t.Parallel()
	created := false
	svc := NewFollowService(&stubFollowRepo{
		createFn: func(ctx context.Context, follow *models.Follow) error {
			created = true
			return nil
		},
	}, &stubUserRepo{})

	_, err := svc.Follow(context.Background(), 7, 7)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.False(t, created, "self-follow must be rejected before any write")
}

func TestFollowService_FollowUnknownUser(t *testing.T) {
	t.Parallel()
	svc := NewFollowService(&stubFollowRepo{}, &stubUserRepo{
		getByIDFn: func(ctx context.Context, id uint) (*models.User, error) {
			return nil, models.NewNotFoundError("User", id)
		},
	})

	_, err := svc.Follow(context.Background(), 1, 99)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestFollowService_DuplicateFollowIsConflict(t *testing.T) {
	t.Parallel()
	svc := NewFollowService(&stubFollowRepo{
		createFn: func(ctx context.Context, follow *models.Follow) error {
			return models.NewConflictError("Already following this user")
		},
	}, &stubUserRepo{})

	_, err := svc.Follow(context.Background(), 1, 2)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}

func TestFollowService_FollowSuccess(t *testing.T) {
	t.Parallel()
	svc := NewFollowService(&stubFollowRepo{}, &stubUserRepo{})

	follow, err := svc.Follow(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(1), follow.FollowerID)
	assert.Equal(t, uint(2), follow.FolloweeID)
}

func TestFollowService_UnfollowMissingEdgeIsConflict(t *testing.T) {
	t.Parallel()
	svc := NewFollowService(&stubFollowRepo{
		deleteFn: func(ctx context.Context, followerID, followeeID uint) (bool, error) {
			return false, nil
		},
	}, &stubUserRepo{})

	err := svc.Unfollow(context.Background(), 1, 2)
	require.Error(t, err)
	appErr, ok := err.(*models.AppError)
	require.True(t, ok)
	assert.Equal(t, models.CodeConflict, appErr.Code)
}

func TestFollowService_UnfollowSuccess(t *testing.T) {
	t.Parallel()
	svc := NewFollowService(&stubFollowRepo{
		deleteFn: func(ctx context.Context, followerID, followeeID uint) (bool, error) {
			return true, nil
		},
	}, &stubUserRepo{})

	require.NoError(t, svc.Unfollow(context.Background(), 1, 2))
}

func TestFollowService_GetMutualFollowsIsSymmetric(t *testing.T) {
	t.Parallel()
	following := map[uint][]uint{
		1: {3, 4, 5},
		2: {5, 3, 9},
	}
	svc := NewFollowService(&stubFollowRepo{
		listFolloweesFn: func(ctx context.Context, followerID uint) ([]uint, error) {
			return following[followerID], nil
		},
	}, &stubUserRepo{})

	ab, err := svc.GetMutualFollows(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint{3, 5}, ab)

	ba, err := svc.GetMutualFollows(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, ab, ba)
}
