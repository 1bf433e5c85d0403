package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"go-ecommerce/models"
	"go-ecommerce/store"
	"go-ecommerce/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	MarkVerified(ctx context.Context, id primitive.ObjectID) error
	SetRefreshToken(ctx context.Context, id primitive.ObjectID, token string) error
	SwapRefreshToken(ctx context.Context, id primitive.ObjectID, old, next string) error
	UpsertFederated(ctx context.Context, u *models.User) (*models.User, error)
}

type VerificationMailer interface {
	SendVerificationEmail(toEmail, verificationLink string) error
}

// RegisterInput is the body of a registration request.
type RegisterInput struct {
	Name     string `json:"user_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by every successful sign-in or refresh.
type Session struct {
	AccessToken  string         `json:"token"`
	RefreshToken string         `json:"refreshToken"`
	ExpiresIn    int64          `json:"expiresIn"`
	User         models.Profile `json:"user"`
}

type AuthService struct {
	users   UserStore
	tokens  *utils.TokenManager
	mailer  VerificationMailer
	baseURL string
	log     *slog.Logger

	hashCost int
	async    func(func())
}

func NewAuthService(users UserStore, tokens *utils.TokenManager, mailer VerificationMailer, baseURL string, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		tokens:   tokens,
		mailer:   mailer,
		baseURL:  baseURL,
		log:      log,
		hashCost: bcrypt.DefaultCost,
		async:    goAsync,
	}
}

// Register creates an unverified local account and mails the verification link.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "services.AuthService.Register"
	log := s.log.With(slog.String("op", op))

	in.Email = normalizeEmail(in.Email)
	if err := utils.Validate(&in); err != nil {
		return nil, err
	}

	exists, err := s.users.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		// max counts characters; bcrypt limits bytes.
		return nil, &utils.ValidationError{Fields: map[string]string{"password": "must be at most 72 bytes"}}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashedPassword),
		Account:  models.Account{Kind: models.AccountLocal},
		Role:     models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.GenerateVerification(user.ID.Hex())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.baseURL, url.QueryEscape(token))

	s.async(func() {
		if err := s.mailer.SendVerificationEmail(user.Email, link); err != nil {
			log.Error("failed to send verification email", slog.String("user_id", user.ID.Hex()), slog.Any("err", err))
		}
	})

	log.Info("user registered", slog.String("user_id", user.ID.Hex()))
	return user, nil
}

// VerifyEmail consumes a verification token. Expired and malformed tokens
// fail with utils.ErrTokenExpired and utils.ErrTokenInvalid respectively.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	const op = "services.AuthService.VerifyEmail"

	claims, err := s.tokens.ParseVerification(token)
	if err != nil {
		return err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return utils.ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if user.IsVerified {
		return ErrAlreadyVerified
	}

	if err := s.users.MarkVerified(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAlreadyVerified
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("email verified", slog.String("op", op), slog.String("user_id", claims.UserID))
	return nil
}

// CheckEmail reports whether the email is already registered.
func (s *AuthService) CheckEmail(ctx context.Context, email string) (bool, error) {
	const op = "services.AuthService.CheckEmail"

	exists, err := s.users.ExistsByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// Login checks a local credential and starts a session. Any previously issued
// refresh token stops working.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*Session, error) {
	const op = "services.AuthService.Login"

	in.Email = normalizeEmail(in.Email)
	if err := utils.Validate(&in); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Federated accounts have no local password.
	if user.Account.IsFederated() || user.Password == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsVerified {
		return nil, ErrEmailNotVerified
	}

	session, err := s.newSession(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, session.RefreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user logged in", slog.String("op", op), slog.String("user_id", user.ID.Hex()))
	return session, nil
}

// Refresh rotates the refresh token. The presented token must be the one
// currently stored for the user; otherwise ErrTokenRevoked is returned.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	const op = "services.AuthService.Refresh"

	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return nil, utils.ErrTokenInvalid
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.RefreshToken != refreshToken {
		return nil, ErrTokenRevoked
	}

	session, err := s.newSession(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// A concurrent refresh may have rotated the token since it was read.
	if err := s.users.SwapRefreshToken(ctx, id, refreshToken, session.RefreshToken); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTokenRevoked
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

// Me returns the profile of the authenticated user.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "services.AuthService.Me"

	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidID
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	profile := user.Profile()
	return &profile, nil
}

// FederatedLogin signs in the owner of an identity proven by an external
// provider, creating the account on first use.
func (s *AuthService) FederatedLogin(ctx context.Context, p *utils.OAuthProfile) (*Session, error) {
	const op = "services.AuthService.FederatedLogin"

	user, err := s.users.UpsertFederated(ctx, &models.User{
		Name:  p.Name,
		Email: normalizeEmail(p.Email),
		Account: models.Account{
			Kind:     models.AccountFederated,
			Provider: p.Provider,
			Subject:  p.Subject,
		},
		Role:       models.RoleUser,
		IsVerified: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.newSession(user)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, session.RefreshToken); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("federated login", slog.String("op", op), slog.String("provider", p.Provider), slog.String("user_id", user.ID.Hex()))
	return session, nil
}

func (s *AuthService) newSession(user *models.User) (*Session, error) {
	access, err := s.tokens.GenerateAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.GenerateRefresh(user.ID.Hex())
	if err != nil {
		return nil, err
	}

	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
		User:         user.Profile(),
	}, nil
}
