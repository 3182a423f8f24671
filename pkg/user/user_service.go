package user

import (
	"context"
	"errors"
	"fmt"
	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/utils"
	"foodgram/internal/utils/mailing"
	"foodgram/pkg/jwt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type (
	UserService interface {
		Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error)
		Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error)
		GetUsers(ctx context.Context, viewer domain.Viewer, p domain.PaginationRequest) (domain.PaginatedResponse[domain.UserResponse], error)
		GetUser(ctx context.Context, viewer domain.Viewer, id uint) (domain.UserResponse, error)
		Me(ctx context.Context, viewer domain.Viewer) (domain.UserResponse, error)
		SetPassword(ctx context.Context, viewer domain.Viewer, req domain.SetPasswordRequest) error
		ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error
		ResetPasswordConfirm(ctx context.Context, req domain.ResetPasswordConfirmRequest) error
	}

	userService struct {
		userRepository UserRepository
		jwtService     jwt.JWTService
		mailer         mailing.Mailer
		appURL         string
	}
)

func NewUserService(userRepository UserRepository, jwtService jwt.JWTService, mailer mailing.Mailer, appURL string) UserService {
	return &userService{
		userRepository: userRepository,
		jwtService:     jwtService,
		mailer:         mailer,
		appURL:         strings.TrimRight(appURL, "/"),
	}
}

// ToUserResponse maps a user to its public profile. isSubscribed must be
// computed for the viewer the response is rendered for.
func ToUserResponse(user *entities.User, isSubscribed bool) domain.UserResponse {
	return domain.UserResponse{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: isSubscribed,
	}
}

func (s *userService) Register(ctx context.Context, req domain.RegisterRequest) (domain.UserResponse, error) {
	exists, err := s.userRepository.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return domain.UserResponse{}, err
	}
	if exists {
		return domain.UserResponse{}, domain.ErrEmailAlreadyExists
	}

	exists, err = s.userRepository.ExistsByUsername(ctx, req.Username)
	if err != nil {
		return domain.UserResponse{}, err
	}
	if exists {
		return domain.UserResponse{}, domain.ErrUsernameAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{
		Email:     strings.ToLower(req.Email),
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  string(hash),
		Role:      string(domain.RoleUser),
	}
	if err := s.userRepository.CreateUser(ctx, user); err != nil {
		if utils.IsDuplicateKey(err) {
			return domain.UserResponse{}, s.duplicateUserError(ctx, user.Email)
		}
		return domain.UserResponse{}, err
	}

	log.Infof("user registered: id=%d username=%s", user.ID, user.Username)
	return ToUserResponse(user, false), nil
}

// duplicateUserError tells which unique index a concurrent registration hit.
func (s *userService) duplicateUserError(ctx context.Context, email string) error {
	if exists, err := s.userRepository.ExistsByEmail(ctx, email); err == nil && exists {
		return domain.ErrEmailAlreadyExists
	}
	return domain.ErrUsernameAlreadyExists
}

func (s *userService) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.LoginResponse{}, domain.ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return domain.LoginResponse{}, domain.ErrInvalidCredentials
	}

	token, err := s.jwtService.GenerateTokenUser(user.ID, domain.Role(user.Role))
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{AuthToken: token}, nil
}

func (s *userService) GetUsers(ctx context.Context, viewer domain.Viewer, p domain.PaginationRequest) (domain.PaginatedResponse[domain.UserResponse], error) {
	users, count, err := s.userRepository.GetUsers(ctx, p.Offset(), p.Limit)
	if err != nil {
		return domain.PaginatedResponse[domain.UserResponse]{}, err
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	following, err := s.userRepository.FollowingSet(ctx, viewer.ID, ids)
	if err != nil {
		return domain.PaginatedResponse[domain.UserResponse]{}, err
	}

	result := make([]domain.UserResponse, 0, len(users))
	for _, u := range users {
		result = append(result, ToUserResponse(u, following[u.ID]))
	}

	return domain.NewPaginatedResponse(result, count, p), nil
}

func (s *userService) GetUser(ctx context.Context, viewer domain.Viewer, id uint) (domain.UserResponse, error) {
	user, err := s.userRepository.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.UserResponse{}, domain.ErrUserNotFound
		}
		return domain.UserResponse{}, err
	}

	isSubscribed, err := s.userRepository.IsFollowing(ctx, viewer.ID, user.ID)
	if err != nil {
		return domain.UserResponse{}, err
	}

	return ToUserResponse(user, isSubscribed), nil
}

func (s *userService) Me(ctx context.Context, viewer domain.Viewer) (domain.UserResponse, error) {
	if viewer.IsAnonymous() {
		return domain.UserResponse{}, domain.ErrUnauthenticated
	}
	return s.GetUser(ctx, viewer, viewer.ID)
}

func (s *userService) SetPassword(ctx context.Context, viewer domain.Viewer, req domain.SetPasswordRequest) error {
	if viewer.IsAnonymous() {
		return domain.ErrUnauthenticated
	}

	user, err := s.userRepository.GetUserByID(ctx, viewer.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return domain.NewValidationError("current_password", domain.ErrWrongCurrentPassword.Error())
	}

	return s.updatePassword(ctx, user.ID, req.NewPassword)
}

func (s *userService) ResetPassword(ctx context.Context, req domain.ResetPasswordRequest) error {
	user, err := s.userRepository.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// do not reveal which emails are registered
			return nil
		}
		return err
	}

	token, err := s.jwtService.GenerateTokenResetPassword(user.ID, user.Password, jwt.ResetPasswordExpiry)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/password/reset/confirm?token=%s", s.appURL, token)
	body := fmt.Sprintf(
		"<p>Hello, %s!</p><p>Follow <a href=\"%s\">this link</a> to set a new password. "+
			"The link expires in %d minutes.</p>",
		user.FirstName, link, int(jwt.ResetPasswordExpiry.Minutes()),
	)

	if err := s.mailer.SendMail(user.Email, "Foodgram password reset", body); err != nil {
		log.Errorf("failed to send password reset email to user %d: %v", user.ID, err)
		return err
	}
	return nil
}

func (s *userService) ResetPasswordConfirm(ctx context.Context, req domain.ResetPasswordConfirmRequest) error {
	userID, fingerprint, err := s.jwtService.ValidateTokenResetPassword(req.Token)
	if err != nil {
		return domain.NewValidationError("token", err.Error())
	}

	user, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.NewValidationError("token", domain.ErrTokenInvalid.Error())
		}
		return err
	}

	if !s.jwtService.MatchesPassword(fingerprint, user.Password) {
		return domain.NewValidationError("token", domain.ErrTokenInvalid.Error())
	}

	return s.updatePassword(ctx, user.ID, req.NewPassword)
}

func (s *userService) updatePassword(ctx context.Context, userID uint, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepository.UpdatePassword(ctx, userID, string(hash))
}
