package services

import "errors"

var (
	ErrInvalidID          = errors.New("invalid id")
	ErrUserNotFound       = errors.New("user not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("please verify your email before logging in")
	ErrAlreadyVerified    = errors.New("account has already been verified")
	ErrTokenRevoked       = errors.New("refresh token has been revoked")
	ErrAlreadySubscribed  = errors.New("email is already subscribed")
	ErrInvalidTransition  = errors.New("order status cannot change that way")
	ErrInvalidPriceRange  = errors.New("minimum price is above maximum price")
)
