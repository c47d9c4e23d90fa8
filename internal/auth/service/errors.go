package service

import "errors"

var (
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrEmailAlreadyUsed    = errors.New("email_already_used")
	ErrRefreshTokenInvalid = errors.New("invalid_refresh_token")
	ErrTokenExpired        = errors.New("token_expired")
)
