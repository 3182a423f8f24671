package user

import (
	"context"
	"foodgram/domain"
	"foodgram/entities"
	"foodgram/internal/testutil"
	"foodgram/pkg/jwt"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserService(t *testing.T) (UserService, *gorm.DB, jwt.JWTService, *testutil.FakeMailer) {
	db := testutil.NewTestDB(t)
	jwtService := jwt.NewJWTService("test-secret")
	mailer := &testutil.FakeMailer{}
	return NewUserService(NewUserRepository(db), jwtService, mailer, "http://localhost:3000/"), db, jwtService, mailer
}

func TestRegister(t *testing.T) {
	service, db, _, _ := setupUserService(t)
	ctx := context.Background()

	req := domain.RegisterRequest{
		Email:     "Cook@Example.com",
		Username:  "cook",
		FirstName: "Julia",
		LastName:  "Child",
		Password:  "secret-pass",
	}

	res, err := service.Register(ctx, req)
	require.NoError(t, err)
	assert.NotZero(t, res.ID)
	assert.Equal(t, "cook@example.com", res.Email)
	assert.False(t, res.IsSubscribed)

	var stored entities.User
	require.NoError(t, db.First(&stored, res.ID).Error)
	assert.NotEqual(t, "secret-pass", stored.Password)
	assert.Equal(t, "user", stored.Role)

	t.Run("duplicate email", func(t *testing.T) {
		dup := req
		dup.Username = "other"
		dup.Email = "COOK@example.com"
		_, err := service.Register(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := req
		dup.Email = "another@example.com"
		_, err := service.Register(ctx, dup)
		assert.ErrorIs(t, err, domain.ErrUsernameAlreadyExists)
	})
}

func TestLogin(t *testing.T) {
	service, db, jwtService, _ := setupUserService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "alice")

	res, err := service.Login(ctx, domain.LoginRequest{Email: "ALICE@example.com", Password: "password123"})
	require.NoError(t, err)

	id, role, err := jwtService.GetUserIDByToken(res.AuthToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, domain.RoleUser, role)

	_, err = service.Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = service.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestGetUsersMarksSubscriptions(t *testing.T) {
	service, db, _, _ := setupUserService(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, db, "alice")
	bob := testutil.CreateUser(t, db, "bob")
	carol := testutil.CreateUser(t, db, "carol")
	require.NoError(t, db.Create(&entities.Follow{UserID: alice.ID, FollowingID: bob.ID}).Error)

	page, err := service.GetUsers(ctx, domain.Viewer{ID: alice.ID}, domain.PaginationRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Count)
	assert.Equal(t, int64(2), page.TotalPages)
	require.Len(t, page.Results, 2)
	// newest first
	assert.Equal(t, carol.ID, page.Results[0].ID)
	assert.False(t, page.Results[0].IsSubscribed)
	assert.Equal(t, bob.ID, page.Results[1].ID)
	assert.True(t, page.Results[1].IsSubscribed)

	anon, err := service.GetUsers(ctx, domain.Viewer{}, domain.PaginationRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, anon.Results, 1)
	assert.Equal(t, alice.ID, anon.Results[0].ID)
}

func TestGetUserAndMe(t *testing.T) {
	service, db, _, _ := setupUserService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	_, err := service.GetUser(ctx, domain.Viewer{}, 999)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	_, err = service.Me(ctx, domain.Viewer{})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)

	me, err := service.Me(ctx, domain.Viewer{ID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}

func TestSetPassword(t *testing.T) {
	service, db, _, _ := setupUserService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")
	viewer := domain.Viewer{ID: alice.ID}

	err := service.SetPassword(ctx, viewer, domain.SetPasswordRequest{CurrentPassword: "nope", NewPassword: "new-password"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "current_password")

	require.NoError(t, service.SetPassword(ctx, viewer, domain.SetPasswordRequest{
		CurrentPassword: "password123",
		NewPassword:     "new-password",
	}))

	_, err = service.Login(ctx, domain.LoginRequest{Email: alice.Email, Password: "new-password"})
	assert.NoError(t, err)
}

func TestResetPasswordFlow(t *testing.T) {
	service, db, _, mailer := setupUserService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, db, "alice")

	require.NoError(t, service.ResetPassword(ctx, domain.ResetPasswordRequest{Email: "ghost@example.com"}))
	assert.Empty(t, mailer.Sent)

	require.NoError(t, service.ResetPassword(ctx, domain.ResetPasswordRequest{Email: alice.Email}))
	require.Len(t, mailer.Sent, 1)
	assert.Equal(t, alice.Email, mailer.Sent[0].To)

	body := mailer.Sent[0].Body
	start := strings.Index(body, "http://localhost:3000/password/reset/confirm?")
	require.GreaterOrEqual(t, start, 0)
	end := strings.Index(body[start:], "\"")
	link, err := url.Parse(body[start : start+end])
	require.NoError(t, err)
	token := link.Query().Get("token")
	require.NotEmpty(t, token)

	require.NoError(t, service.ResetPasswordConfirm(ctx, domain.ResetPasswordConfirmRequest{
		Token:       token,
		NewPassword: "brand-new-pass",
	}))
	_, err = service.Login(ctx, domain.LoginRequest{Email: alice.Email, Password: "brand-new-pass"})
	require.NoError(t, err)

	// the password changed, so the same token no longer matches
	err = service.ResetPasswordConfirm(ctx, domain.ResetPasswordConfirmRequest{
		Token:       token,
		NewPassword: "another-pass",
	})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestResetPasswordConfirmRejectsExpiredToken(t *testing.T) {
	service, db, jwtService, _ := setupUserService(t)
	alice := testutil.CreateUser(t, db, "alice")

	token, err := jwtService.GenerateTokenResetPassword(alice.ID, alice.Password, -time.Minute)
	require.NoError(t, err)

	err = service.ResetPasswordConfirm(context.Background(), domain.ResetPasswordConfirmRequest{
		Token:       token,
		NewPassword: "another-pass",
	})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.ErrTokenExpired.Error(), verr.Fields["token"])
}

// staleExistsRepository answers the first existence checks as if the row had
// not been inserted yet, like a concurrent registration would see it.
type staleExistsRepository struct {
	UserRepository
	emailChecks int
}

func (r *staleExistsRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	r.emailChecks++
	if r.emailChecks == 1 {
		return false, nil
	}
	return r.UserRepository.ExistsByEmail(ctx, email)
}

func (r *staleExistsRepository) ExistsByUsername(context.Context, string) (bool, error) {
	return false, nil
}

func TestRegisterConcurrentDuplicate(t *testing.T) {
	db := testutil.NewTestDB(t)
	existing := testutil.CreateUser(t, db, "cook")
	ctx := context.Background()

	newService := func() UserService {
		repo := &staleExistsRepository{UserRepository: NewUserRepository(db)}
		return NewUserService(repo, jwt.NewJWTService("test-secret"), &testutil.FakeMailer{}, "http://localhost:3000/")
	}

	_, err := newService().Register(ctx, domain.RegisterRequest{
		Email:     existing.Email,
		Username:  "somebody-else",
		FirstName: "Some",
		LastName:  "Body",
		Password:  "secret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = newService().Register(ctx, domain.RegisterRequest{
		Email:     "fresh@example.com",
		Username:  existing.Username,
		FirstName: "Some",
		LastName:  "Body",
		Password:  "secret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrUsernameAlreadyExists)
}
