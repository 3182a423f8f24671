package follow

import (
	"context"
	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/testutil"
	"foodgram/pkg/user"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupFollowService(t *testing.T) (FollowService, *gorm.DB) {
	db := testutil.NewTestDB(t)
	return NewFollowService(NewFollowRepository(db), user.NewUserRepository(db)), db
}

func countFollows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&entities.Follow{}).Count(&n).Error)
	return n
}

func TestSubscribe(t *testing.T) {
	service, db := setupFollowService(t)
	ctx := context.Background()

	reader := testutil.CreateUser(t, db, "reader")
	chef := testutil.CreateUser(t, db, "chef")
	first := testutil.CreateRecipe(t, db, chef, "first", nil, nil)
	second := testutil.CreateRecipe(t, db, chef, "second", nil, nil)
	third := testutil.CreateRecipe(t, db, chef, "third", nil, nil)

	res, err := service.Subscribe(ctx, domain.Viewer{ID: reader.ID}, chef.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, chef.ID, res.ID)
	assert.True(t, res.IsSubscribed)
	assert.Equal(t, int64(3), res.RecipesCount)
	require.Len(t, res.Recipes, 2)
	assert.Equal(t, third.ID, res.Recipes[0].ID)
	assert.Equal(t, second.ID, res.Recipes[1].ID)

	_, err = service.Subscribe(ctx, domain.Viewer{ID: reader.ID}, chef.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadyFollowing)
	assert.Equal(t, int64(1), countFollows(t, db))

	t.Run("no limit returns every recipe", func(t *testing.T) {
		fan := testutil.CreateUser(t, db, "fan")
		res, err := service.Subscribe(ctx, domain.Viewer{ID: fan.ID}, chef.ID, 0)
		require.NoError(t, err)
		require.Len(t, res.Recipes, 3)
		assert.Equal(t, first.ID, res.Recipes[2].ID)
	})
}

func TestSubscribeRejections(t *testing.T) {
	service, db := setupFollowService(t)
	ctx := context.Background()
	reader := testutil.CreateUser(t, db, "reader")

	_, err := service.Subscribe(ctx, domain.Viewer{ID: reader.ID}, reader.ID, 0)
	assert.ErrorIs(t, err, domain.ErrSelfFollow)

	_, err = service.Subscribe(ctx, domain.Viewer{ID: reader.ID}, 999, 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = service.Subscribe(ctx, domain.Viewer{}, reader.ID, 0)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	assert.Zero(t, countFollows(t, db))
}

func TestUnsubscribe(t *testing.T) {
	service, db := setupFollowService(t)
	ctx := context.Background()
	reader := testutil.CreateUser(t, db, "reader")
	chef := testutil.CreateUser(t, db, "chef")
	viewer := domain.Viewer{ID: reader.ID}

	assert.ErrorIs(t, service.Unsubscribe(ctx, viewer, chef.ID), domain.ErrNotFollowing)

	_, err := service.Subscribe(ctx, viewer, chef.ID, 0)
	require.NoError(t, err)
	require.NoError(t, service.Unsubscribe(ctx, viewer, chef.ID))
	assert.Zero(t, countFollows(t, db))

	assert.ErrorIs(t, service.Unsubscribe(ctx, viewer, 999), domain.ErrUserNotFound)
}

func TestGetSubscriptions(t *testing.T) {
	service, db := setupFollowService(t)
	ctx := context.Background()
	reader := testutil.CreateUser(t, db, "reader")
	viewer := domain.Viewer{ID: reader.ID}

	var chefs []*entities.User
	for _, name := range []string{"anna", "boris", "clara"} {
		chef := testutil.CreateUser(t, db, name)
		testutil.CreateRecipe(t, db, chef, name+" stew", nil, nil)
		_, err := service.Subscribe(ctx, viewer, chef.ID, 0)
		require.NoError(t, err)
		chefs = append(chefs, chef)
	}
	// followed by someone else only
	outsider := testutil.CreateUser(t, db, "outsider")
	_, err := service.Subscribe(ctx, domain.Viewer{ID: chefs[0].ID}, outsider.ID, 0)
	require.NoError(t, err)

	page, err := service.GetSubscriptions(ctx, viewer, domain.PaginationRequest{Page: 1, Limit: 2}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Count)
	assert.Equal(t, int64(2), page.TotalPages)
	require.Len(t, page.Results, 2)
	assert.Equal(t, chefs[2].ID, page.Results[0].ID)
	assert.Equal(t, chefs[1].ID, page.Results[1].ID)
	assert.Equal(t, int64(1), page.Results[0].RecipesCount)
	assert.Len(t, page.Results[0].Recipes, 1)
	assert.True(t, page.Results[0].IsSubscribed)

	_, err = service.GetSubscriptions(ctx, domain.Viewer{}, domain.PaginationRequest{Page: 1, Limit: 6}, 0)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}
