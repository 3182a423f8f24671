package follow

import (
	"context"
	"foodgram/entities"

	"gorm.io/gorm"
)

type (
	FollowRepository interface {
		CreateFollow(ctx context.Context, follow *entities.Follow) error
		DeleteFollow(ctx context.Context, userID, followingID uint) (bool, error)
		// GetFollowings returns the authors userID follows, most recent
		// subscription first.
		GetFollowings(ctx context.Context, userID uint, offset, limit int) ([]*entities.User, int64, error)
		CountRecipesByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error)
		// GetRecipesByAuthor returns the newest recipes of authorID; limit <= 0
		// returns all of them.
		GetRecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]*entities.Recipe, error)
	}

	followRepository struct {
		db *gorm.DB
	}
)

func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) CreateFollow(ctx context.Context, follow *entities.Follow) error {
	return r.db.WithContext(ctx).Omit("User", "Following").Create(follow).Error
}

func (r *followRepository) DeleteFollow(ctx context.Context, userID, followingID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND following_id = ?", userID, followingID).
		Delete(&entities.Follow{})
	return res.RowsAffected > 0, res.Error
}

func (r *followRepository) GetFollowings(ctx context.Context, userID uint, offset, limit int) ([]*entities.User, int64, error) {
	var users []*entities.User
	var count int64

	if err := r.db.WithContext(ctx).
		Model(&entities.Follow{}).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return nil, 0, err
	}

	if err := r.db.WithContext(ctx).
		Model(&entities.User{}).
		Joins("JOIN follows ON follows.following_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.id DESC").
		Offset(offset).
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, count, nil
}

func (r *followRepository) CountRecipesByAuthors(ctx context.Context, authorIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	if err := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}
	return counts, nil
}

func (r *followRepository) GetRecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]*entities.Recipe, error) {
	var recipes []*entities.Recipe

	query := r.db.WithContext(ctx).Where("author_id = ?", authorID).Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}
