package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"foodgram/domain"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	issuer              = "FOODGRAM"
	userTokenTTL        = 120 * time.Minute
	purposeClaim        = "purpose"
	purposeResetPasswd  = "reset_password"
	ResetPasswordExpiry = 30 * time.Minute
)

type (
	JWTService interface {
		GenerateTokenUser(userID uint, role domain.Role) (string, error)
		ValidateTokenUser(token string) (*jwt.Token, error)
		GetUserIDByToken(token string) (uint, domain.Role, error)
		GenerateTokenResetPassword(userID uint, passwordHash string, duration time.Duration) (string, error)
		ValidateTokenResetPassword(token string) (uint, string, error)
		// MatchesPassword reports whether a fingerprint taken from a reset
		// token was issued for passwordHash.
		MatchesPassword(fingerprint, passwordHash string) bool
	}

	jwtUserClaim struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
		jwt.RegisteredClaims
	}

	jwtService struct {
		secretKey string
		issuer    string
	}
)

func NewJWTService(secretKey string) JWTService {
	return &jwtService{
		secretKey: secretKey,
		issuer:    issuer,
	}
}

func (j *jwtService) GenerateTokenUser(userID uint, role domain.Role) (string, error) {
	claims := jwtUserClaim{
		strconv.FormatUint(uint64(userID), 10),
		string(role),
		jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(userTokenTTL)),
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *jwtService) parseToken(t_ *jwt.Token) (any, error) {
	if _, ok := t_.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t_.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *jwtService) ValidateTokenUser(token string) (*jwt.Token, error) {
	return jwt.ParseWithClaims(token, &jwtUserClaim{}, j.parseToken)
}

func (j *jwtService) GetUserIDByToken(token string) (uint, domain.Role, error) {
	t_Token, err := j.ValidateTokenUser(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, "", domain.ErrTokenExpired
		}
		return 0, "", domain.ErrTokenInvalid
	}
	if !t_Token.Valid {
		return 0, "", domain.ErrTokenInvalid
	}

	claims := t_Token.Claims.(*jwtUserClaim)
	if claims.Issuer != j.issuer {
		return 0, "", domain.ErrTokenInvalid
	}

	id, err := strconv.ParseUint(claims.UserID, 10, 64)
	if err != nil || id == 0 {
		return 0, "", domain.ErrTokenInvalid
	}

	role := domain.Role(claims.Role)
	if !role.Valid() {
		return 0, "", domain.ErrTokenInvalid
	}
	return uint(id), role, nil
}

// GenerateTokenResetPassword binds the token to the current password hash so
// that it stops working once the password has been changed.
func (j *jwtService) GenerateTokenResetPassword(userID uint, passwordHash string, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id":    strconv.FormatUint(uint64(userID), 10),
		"pwd":        j.fingerprint(passwordHash),
		purposeClaim: purposeResetPasswd,
		"exp":        time.Now().Add(duration).Unix(),
		"iat":        time.Now().Unix(),
		"iss":        j.issuer,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

func (j *jwtService) ValidateTokenResetPassword(token string) (uint, string, error) {
	t_Token, err := jwt.Parse(token, j.parseToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, "", domain.ErrTokenExpired
		}
		return 0, "", domain.ErrTokenInvalid
	}
	if !t_Token.Valid {
		return 0, "", domain.ErrTokenInvalid
	}

	claims, ok := t_Token.Claims.(jwt.MapClaims)
	if !ok || claims[purposeClaim] != purposeResetPasswd || claims["iss"] != j.issuer {
		return 0, "", domain.ErrTokenInvalid
	}

	rawID, _ := claims["user_id"].(string)
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil || id == 0 {
		return 0, "", domain.ErrTokenInvalid
	}
	pwd, _ := claims["pwd"].(string)
	return uint(id), pwd, nil
}

func (j *jwtService) MatchesPassword(fingerprint, passwordHash string) bool {
	return hmac.Equal([]byte(fingerprint), []byte(j.fingerprint(passwordHash)))
}

// fingerprint is an HMAC of the password hash, so the token does not leak
// any part of the hash itself.
func (j *jwtService) fingerprint(passwordHash string) string {
	mac := hmac.New(sha256.New, []byte(j.secretKey))
	mac.Write([]byte(passwordHash))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
