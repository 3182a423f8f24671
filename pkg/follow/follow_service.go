package follow

import (
	"context"
	"errors"
	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils"
	"foodgram/pkg/recipe"
	"foodgram/pkg/user"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

type (
	FollowService interface {
		Subscribe(ctx context.Context, viewer domain.Viewer, authorID uint, recipesLimit int) (domain.SubscriptionResponse, error)
		Unsubscribe(ctx context.Context, viewer domain.Viewer, authorID uint) error
		GetSubscriptions(ctx context.Context, viewer domain.Viewer, p domain.PaginationRequest, recipesLimit int) (domain.PaginatedResponse[domain.SubscriptionResponse], error)
	}

	followService struct {
		followRepository FollowRepository
		userRepository   user.UserRepository
	}
)

func NewFollowService(followRepository FollowRepository, userRepository user.UserRepository) FollowService {
	return &followService{
		followRepository: followRepository,
		userRepository:   userRepository,
	}
}

func (s *followService) toSubscription(ctx context.Context, author *entities.User, recipesCount int64, recipesLimit int) (domain.SubscriptionResponse, error) {
	recipes, err := s.followRepository.GetRecipesByAuthor(ctx, author.ID, recipesLimit)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}

	lites := make([]domain.RecipeLite, 0, len(recipes))
	for _, r := range recipes {
		lites = append(lites, recipe.ToRecipeLite(r))
	}

	return domain.SubscriptionResponse{
		UserResponse: user.ToUserResponse(author, true),
		Recipes:      lites,
		RecipesCount: recipesCount,
	}, nil
}

func (s *followService) Subscribe(ctx context.Context, viewer domain.Viewer, authorID uint, recipesLimit int) (domain.SubscriptionResponse, error) {
	if viewer.IsAnonymous() {
		return domain.SubscriptionResponse{}, domain.ErrUnauthenticated
	}

	author, err := s.userRepository.GetUserByID(ctx, authorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.SubscriptionResponse{}, domain.ErrUserNotFound
		}
		return domain.SubscriptionResponse{}, err
	}
	if author.ID == viewer.ID {
		return domain.SubscriptionResponse{}, domain.ErrSelfFollow
	}

	following, err := s.userRepository.IsFollowing(ctx, viewer.ID, author.ID)
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	if following {
		return domain.SubscriptionResponse{}, domain.ErrAlreadyFollowing
	}

	if err := s.followRepository.CreateFollow(ctx, &entities.Follow{UserID: viewer.ID, FollowingID: author.ID}); err != nil {
		if utils.IsDuplicateKey(err) {
			return domain.SubscriptionResponse{}, domain.ErrAlreadyFollowing
		}
		return domain.SubscriptionResponse{}, err
	}
	log.Infof("user %d subscribed to %d", viewer.ID, author.ID)

	counts, err := s.followRepository.CountRecipesByAuthors(ctx, []uint{author.ID})
	if err != nil {
		return domain.SubscriptionResponse{}, err
	}
	return s.toSubscription(ctx, author, counts[author.ID], recipesLimit)
}

func (s *followService) Unsubscribe(ctx context.Context, viewer domain.Viewer, authorID uint) error {
	if viewer.IsAnonymous() {
		return domain.ErrUnauthenticated
	}

	if _, err := s.userRepository.GetUserByID(ctx, authorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	removed, err := s.followRepository.DeleteFollow(ctx, viewer.ID, authorID)
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrNotFollowing
	}
	return nil
}

func (s *followService) GetSubscriptions(ctx context.Context, viewer domain.Viewer, p domain.PaginationRequest, recipesLimit int) (domain.PaginatedResponse[domain.SubscriptionResponse], error) {
	if viewer.IsAnonymous() {
		return domain.PaginatedResponse[domain.SubscriptionResponse]{}, domain.ErrUnauthenticated
	}

	authors, count, err := s.followRepository.GetFollowings(ctx, viewer.ID, p.Offset(), p.Limit)
	if err != nil {
		return domain.PaginatedResponse[domain.SubscriptionResponse]{}, err
	}

	ids := make([]uint, 0, len(authors))
	for _, a := range authors {
		ids = append(ids, a.ID)
	}
	counts, err := s.followRepository.CountRecipesByAuthors(ctx, ids)
	if err != nil {
		return domain.PaginatedResponse[domain.SubscriptionResponse]{}, err
	}

	results := make([]domain.SubscriptionResponse, 0, len(authors))
	for _, a := range authors {
		sub, err := s.toSubscription(ctx, a, counts[a.ID], recipesLimit)
		if err != nil {
			return domain.PaginatedResponse[domain.SubscriptionResponse]{}, err
		}
		results = append(results, sub)
	}

	return domain.NewPaginatedResponse(results, count, p), nil
}
