package controllers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"go-ecommerce/middleware"
	"go-ecommerce/services"
	"go-ecommerce/utils"
)

// requestTimeout bounds every store round trip made by a handler.
const requestTimeout = 5 * time.Second

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

type errorMapping struct {
	err     error
	status  int
	message string
}

var errorMappings = []errorMapping{
	{utils.ErrInvalidBody, http.StatusBadRequest, "Invalid request body"},
	{services.ErrInvalidID, http.StatusBadRequest, "Invalid ID"},
	{services.ErrAlreadyVerified, http.StatusBadRequest, "Account has already been verified"},
	{services.ErrInvalidPriceRange, http.StatusBadRequest, "Minimum price is above maximum price"},
	{utils.ErrTokenExpired, http.StatusUnauthorized, "Token has expired"},
	{utils.ErrTokenInvalid, http.StatusUnauthorized, "Invalid token"},
	{services.ErrTokenRevoked, http.StatusUnauthorized, "Invalid refresh token"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{services.ErrEmailNotVerified, http.StatusUnauthorized, "Please verify your email before logging in"},
	{services.ErrUserNotFound, http.StatusNotFound, "User not found"},
	{services.ErrOrderNotFound, http.StatusNotFound, "Order not found"},
	{services.ErrUserExists, http.StatusConflict, "User already exists"},
	{services.ErrAlreadySubscribed, http.StatusConflict, "Email is already subscribed"},
	{services.ErrInvalidTransition, http.StatusConflict, "Order status cannot be changed that way"},
}

// statusFor maps an error to its HTTP status and client message. Unknown
// errors are internal and their details stay in the logs.
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.message
		}
	}
	return http.StatusInternalServerError, "Internal server error"
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	var ve *utils.ValidationError
	if errors.As(err, &ve) {
		utils.FailValidation(w, ve.Fields)
		return
	}

	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			slog.String("request_id", middleware.RequestIDFrom(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
	}
	utils.Fail(w, status, message)
}

// currentUser returns the id of the authenticated caller.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, ok := middleware.ClaimsFrom(r.Context())
	if !ok {
		utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return claims.UserID, true
}
