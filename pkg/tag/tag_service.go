package tag

import (
	"context"
	"errors"
	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils"
	"strings"

	"gorm.io/gorm"
)

type (
	TagService interface {
		GetTags(ctx context.Context) ([]domain.TagResponse, error)
		GetTag(ctx context.Context, id uint) (domain.TagResponse, error)
		CreateTag(ctx context.Context, req domain.TagRequest) (domain.TagResponse, error)
		UpdateTag(ctx context.Context, id uint, req domain.TagUpdateRequest) (domain.TagResponse, error)
		DeleteTag(ctx context.Context, id uint) error
	}

	tagService struct {
		tagRepository TagRepository
	}
)

func NewTagService(tagRepository TagRepository) TagService {
	return &tagService{tagRepository: tagRepository}
}

func ToTagResponse(tag *entities.Tag) domain.TagResponse {
	return domain.TagResponse{
		ID:    tag.ID,
		Name:  tag.Name,
		Color: tag.Color,
		Slug:  tag.Slug,
	}
}

func (s *tagService) GetTags(ctx context.Context) ([]domain.TagResponse, error) {
	tags, err := s.tagRepository.GetTags(ctx)
	if err != nil {
		return nil, err
	}

	res := make([]domain.TagResponse, 0, len(tags))
	for _, t := range tags {
		res = append(res, ToTagResponse(t))
	}
	return res, nil
}

func (s *tagService) GetTag(ctx context.Context, id uint) (domain.TagResponse, error) {
	tag, err := s.tagRepository.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}
	return ToTagResponse(tag), nil
}

func (s *tagService) CreateTag(ctx context.Context, req domain.TagRequest) (domain.TagResponse, error) {
	tag := &entities.Tag{
		Name:  req.Name,
		Color: strings.ToUpper(req.Color),
		Slug:  req.Slug,
	}
	if err := s.tagRepository.CreateTag(ctx, tag); err != nil {
		if utils.IsDuplicateKey(err) {
			return domain.TagResponse{}, domain.ErrTagAlreadyExists
		}
		return domain.TagResponse{}, err
	}
	return ToTagResponse(tag), nil
}

func (s *tagService) UpdateTag(ctx context.Context, id uint, req domain.TagUpdateRequest) (domain.TagResponse, error) {
	tag, err := s.tagRepository.GetTagByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.TagResponse{}, domain.ErrTagNotFound
		}
		return domain.TagResponse{}, err
	}

	if req.Name != "" {
		tag.Name = req.Name
	}
	if req.Color != "" {
		tag.Color = strings.ToUpper(req.Color)
	}
	if req.Slug != "" {
		tag.Slug = req.Slug
	}

	if err := s.tagRepository.UpdateTag(ctx, tag); err != nil {
		if utils.IsDuplicateKey(err) {
			return domain.TagResponse{}, domain.ErrTagAlreadyExists
		}
		return domain.TagResponse{}, err
	}
	return ToTagResponse(tag), nil
}

func (s *tagService) DeleteTag(ctx context.Context, id uint) error {
	if err := s.tagRepository.DeleteTag(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrTagNotFound
		}
		return err
	}
	return nil
}
