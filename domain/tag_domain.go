package domain

import "errors"

var (
	MessageSuccessGetTags   = "success get tags"
	MessageSuccessGetTag    = "success get tag"
	MessageSuccessCreateTag = "tag created successfully"
	MessageSuccessUpdateTag = "tag updated successfully"
	MessageSuccessDeleteTag = "tag deleted successfully"

	MessageFailedGetTags   = "failed to get tags"
	MessageFailedGetTag    = "failed to get tag"
	MessageFailedCreateTag = "failed to create tag"
	MessageFailedUpdateTag = "failed to update tag"
	MessageFailedDeleteTag = "failed to delete tag"

	ErrTagNotFound      = errors.New("tag not found")
	ErrTagAlreadyExists = errors.New("tag with this name, color or slug already exists")
)

type (
	TagRequest struct {
		Name  string `json:"name" validate:"required,max=200"`
		Color string `json:"color" validate:"required,hexcolor,len=7"`
		Slug  string `json:"slug" validate:"required,max=200,slug"`
	}

	TagUpdateRequest struct {
		Name  string `json:"name" validate:"omitempty,max=200"`
		Color string `json:"color" validate:"omitempty,hexcolor,len=7"`
		Slug  string `json:"slug" validate:"omitempty,max=200,slug"`
	}

	TagResponse struct {
		ID    uint   `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Slug  string `json:"slug"`
	}
)
