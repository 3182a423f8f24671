package domain

import "errors"

var (
	MessageSuccessRegister         = "user registered successfully"
	MessageSuccessLogin            = "login successful"
	MessageSuccessLogout           = "logout successful"
	MessageSuccessGetUsers         = "success get users"
	MessageSuccessGetUser          = "success get user"
	MessageSuccessSetPassword      = "password changed successfully"
	MessageSuccessResetPassword    = "password reset email sent"
	MessageSuccessConfirmPassword  = "password reset successfully"
	MessageFailedRegister          = "failed to register user"
	MessageFailedLogin             = "failed to login"
	MessageFailedGetUsers          = "failed to get users"
	MessageFailedGetUser           = "failed to get user"
	MessageFailedSetPassword       = "failed to change password"
	MessageFailedResetPassword     = "failed to send password reset email"
	MessageFailedConfirmPassword   = "failed to reset password"
	MessageSuccessSubscribe        = "subscribed successfully"
	MessageSuccessUnsubscribe      = "unsubscribed successfully"
	MessageSuccessGetSubscriptions = "success get subscriptions"
	MessageFailedSubscribe         = "failed to subscribe"
	MessageFailedUnsubscribe       = "failed to unsubscribe"
	MessageFailedGetSubscriptions  = "failed to get subscriptions"

	ErrUserNotFound          = errors.New("user not found")
	ErrEmailAlreadyExists    = errors.New("user with this email already exists")
	ErrUsernameAlreadyExists = errors.New("user with this username already exists")
	ErrInvalidCredentials    = errors.New("unable to log in with provided credentials")
	ErrWrongCurrentPassword  = errors.New("current password is incorrect")
	ErrSelfFollow            = errors.New("cannot follow yourself")
	ErrAlreadyFollowing      = errors.New("already following")
	ErrNotFollowing          = errors.New("not following")
)

type (
	RegisterRequest struct {
		Email     string `json:"email" validate:"required,email,max=254"`
		Username  string `json:"username" validate:"required,max=150,username"`
		FirstName string `json:"first_name" validate:"required,max=150"`
		LastName  string `json:"last_name" validate:"required,max=150"`
		Password  string `json:"password" validate:"required,min=8,max=150"`
	}

	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		AuthToken string `json:"auth_token"`
	}

	SetPasswordRequest struct {
		CurrentPassword string `json:"current_password" validate:"required"`
		NewPassword     string `json:"new_password" validate:"required,min=8,max=150"`
	}

	ResetPasswordRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	ResetPasswordConfirmRequest struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"new_password" validate:"required,min=8,max=150"`
	}

	// UserResponse is the public profile of a user as seen by a viewer.
	UserResponse struct {
		ID           uint   `json:"id"`
		Email        string `json:"email"`
		Username     string `json:"username"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		IsSubscribed bool   `json:"is_subscribed"`
	}

	// SubscriptionResponse is a followed author with a preview of their recipes.
	SubscriptionResponse struct {
		UserResponse
		Recipes      []RecipeLite `json:"recipes"`
		RecipesCount int64        `json:"recipes_count"`
	}
)
