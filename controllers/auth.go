package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go-ecommerce/models"
	"go-ecommerce/services"
	"go-ecommerce/utils"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const oauthStateCookie = "oauth_state"

type Authenticator interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	VerifyEmail(ctx context.Context, token string) error
	CheckEmail(ctx context.Context, email string) (bool, error)
	Login(ctx context.Context, in services.LoginInput) (*services.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*services.Session, error)
	Me(ctx context.Context, userID string) (*models.Profile, error)
	FederatedLogin(ctx context.Context, p *utils.OAuthProfile) (*services.Session, error)
}

// OAuthProvider runs the authorization code flow of one identity provider.
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*utils.OAuthProfile, error)
}

// AuthController handles registration, sessions and federated sign-in
type AuthController struct {
	auth        Authenticator
	providers   map[string]OAuthProvider
	frontendURL string
	log         *slog.Logger
}

func NewAuthController(auth Authenticator, providers map[string]OAuthProvider, frontendURL string, log *slog.Logger) *AuthController {
	return &AuthController{auth: auth, providers: providers, frontendURL: strings.TrimRight(frontendURL, "/"), log: log}
}

// Register handles user registration
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := utils.DecodeAndValidate(r, &in); err != nil {
		writeError(w, r, ac.log, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	if _, err := ac.auth.Register(ctx, in); err != nil {
		writeError(w, r, ac.log, err)
		return
	}

	utils.Message(w, http.StatusCreated, "User registered. Please check your email to verify your account.")
}

// VerifyEmail handles the link from the verification email. Browsers are
// redirected to the frontend on success and on an expired link.
func (ac *AuthController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		utils.Fail(w, http.StatusBadRequest, "Token is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	err := ac.auth.VerifyEmail(ctx, token)
	switch {
	case err == nil:
		http.Redirect(w, r, ac.frontendURL+"/login", http.StatusFound)
	case errors.Is(err, utils.ErrTokenExpired):
		q := url.Values{}
		q.Set("message", "Verification link has expired")
		q.Set("action", "resend")
		http.Redirect(w, r, ac.frontendURL+"/error?"+q.Encode(), http.StatusFound)
	default:
		writeError(w, r, ac.log, err)
	}
}

func (ac *AuthController) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email == "" {
		utils.Fail(w, http.StatusBadRequest, "Email is required")
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	exists, err := ac.auth.CheckEmail(ctx, email)
	if err != nil {
		writeError(w, r, ac.log, err)
		return
	}

	message := "Email is available"
	if exists {
		message = "Email is already registered"
	}
	utils.OK(w, map[string]interface{}{"exists": exists, "message": message})
}

// Login handles user authentication
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := utils.DecodeAndValidate(r, &in); err != nil {
		writeError(w, r, ac.log, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	session, err := ac.auth.Login(ctx, in)
	if err != nil {
		writeError(w, r, ac.log, err)
		return
	}

	utils.OK(w, session)
}

func (ac *AuthController) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if err := utils.DecodeAndValidate(r, &in); err != nil {
		writeError(w, r, ac.log, err)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	session, err := ac.auth.Refresh(ctx, in.RefreshToken)
	if err != nil {
		writeError(w, r, ac.log, err)
		return
	}

	utils.OK(w, session)
}

// Me returns the authenticated user's profile
func (ac *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	profile, err := ac.auth.Me(ctx, userID)
	if err != nil {
		writeError(w, r, ac.log, err)
		return
	}

	utils.OK(w, map[string]interface{}{"user": profile})
}

// OAuthStart redirects to the provider's consent page.
func (ac *AuthController) OAuthStart(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["provider"]
	provider, ok := ac.providers[name]
	if !ok {
		utils.Fail(w, http.StatusNotFound, "Unknown provider")
		return
	}

	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/" + name,
		MaxAge:   600,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// OAuthCallback completes the provider flow and hands the access token to the frontend.
func (ac *AuthController) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["provider"]
	log := ac.log.With(slog.String("op", "controllers.AuthController.OAuthCallback"), slog.String("provider", name))

	provider, ok := ac.providers[name]
	if !ok {
		utils.Fail(w, http.StatusNotFound, "Unknown provider")
		return
	}

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		utils.Fail(w, http.StatusBadRequest, "Invalid OAuth state")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Path: "/auth/" + name, MaxAge: -1})

	loginURL := ac.frontendURL + "/login"
	code := r.URL.Query().Get("code")
	if code == "" {
		log.Warn("provider denied authorization", slog.String("error", r.URL.Query().Get("error")))
		http.Redirect(w, r, loginURL, http.StatusFound)
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		log.Error("oauth exchange failed", slog.Any("err", err))
		http.Redirect(w, r, loginURL, http.StatusFound)
		return
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	session, err := ac.auth.FederatedLogin(ctx, profile)
	if err != nil {
		log.Error("federated login failed", slog.Any("err", err))
		http.Redirect(w, r, loginURL, http.StatusFound)
		return
	}

	http.Redirect(w, r, ac.frontendURL+"/?token="+url.QueryEscape(session.AccessToken), http.StatusFound)
}
