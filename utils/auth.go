package utils

import (
	"errors"
	"fmt"
	"time"

	"go-ecommerce/config"
	"go-ecommerce/models"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired means the token was well-formed and signed but is past its expiry.
	ErrTokenExpired = errors.New("token has expired")
	// ErrTokenInvalid covers malformed, badly signed, or wrong-purpose tokens.
	ErrTokenInvalid = errors.New("token is invalid")
)

// Token purposes
const (
	PurposeAccess  = "access"
	PurposeRefresh = "refresh"
	PurposeVerify  = "verify_email"
)

// Claims represents the JWT claims
type Claims struct {
	UserID  string `json:"user_id"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
	Purpose string `json:"purpose"`
	jwt.StandardClaims
}

// TokenManager issues and verifies the access, refresh and email verification
// tokens. Access and verification tokens share one secret; refresh tokens use
// their own.
type TokenManager struct {
	accessKey  []byte
	refreshKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	verifyTTL  time.Duration
	nowFunc    func() time.Time
}

// NewTokenManager creates a TokenManager from the auth configuration.
func NewTokenManager(cfg config.Auth) *TokenManager {
	return &TokenManager{
		accessKey:  []byte(cfg.AccessSecret),
		refreshKey: []byte(cfg.RefreshSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		verifyTTL:  cfg.VerifyTTL,
		nowFunc:    time.Now,
	}
}

// AccessTTL is the lifetime of access tokens.
func (tm *TokenManager) AccessTTL() time.Duration {
	return tm.accessTTL
}

// GenerateAccess issues a short-lived access token for the user.
func (tm *TokenManager) GenerateAccess(user *models.User) (string, error) {
	return tm.sign(tm.accessKey, &Claims{
		UserID:         user.ID.Hex(),
		Name:           user.Name,
		Role:           user.Role,
		Purpose:        PurposeAccess,
		StandardClaims: tm.standard(tm.accessTTL, ""),
	})
}

// GenerateRefresh issues a refresh token. Each token carries a unique id so
// two tokens issued within the same second still differ.
func (tm *TokenManager) GenerateRefresh(userID string) (string, error) {
	return tm.sign(tm.refreshKey, &Claims{
		UserID:         userID,
		Purpose:        PurposeRefresh,
		StandardClaims: tm.standard(tm.refreshTTL, uuid.NewString()),
	})
}

// GenerateVerification issues the token embedded in email verification links.
func (tm *TokenManager) GenerateVerification(userID string) (string, error) {
	return tm.sign(tm.accessKey, &Claims{
		UserID:         userID,
		Purpose:        PurposeVerify,
		StandardClaims: tm.standard(tm.verifyTTL, ""),
	})
}

func (tm *TokenManager) ParseAccess(token string) (*Claims, error) {
	return tm.parse(token, tm.accessKey, PurposeAccess)
}

func (tm *TokenManager) ParseRefresh(token string) (*Claims, error) {
	return tm.parse(token, tm.refreshKey, PurposeRefresh)
}

func (tm *TokenManager) ParseVerification(token string) (*Claims, error) {
	return tm.parse(token, tm.accessKey, PurposeVerify)
}

func (tm *TokenManager) standard(ttl time.Duration, id string) jwt.StandardClaims {
	now := tm.nowFunc()
	return jwt.StandardClaims{
		Id:        id,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
}

func (tm *TokenManager) sign(key []byte, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(key)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

func (tm *TokenManager) parse(tokenString string, key []byte, purpose string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return key, nil
	})
	if err != nil {
		// Only a token whose sole defect is its age counts as expired; an
		// expired token with a bad signature is still invalid.
		var ve *jwt.ValidationError
		if errors.As(err, &ve) && ve.Errors == jwt.ValidationErrorExpired {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if claims.Purpose != purpose || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
