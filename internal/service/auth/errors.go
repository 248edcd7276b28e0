package auth

import "errors"

// Token errors. The API maps all of them to 401.
var (
	// ErrInvalidToken covers malformed tokens and bad signatures.
	ErrInvalidToken = errors.New("invalid authentication token")
	ErrExpiredToken = errors.New("authentication token has expired")
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrTokenNotYetValid means the nbf claim is in the future.
	ErrTokenNotYetValid = errors.New("authentication token not yet valid")

	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrExpiredRefreshToken = errors.New("refresh token has expired")

	// ErrWrongTokenType rejects an access token presented for refresh, and
	// a refresh token presented as a bearer token.
	ErrWrongTokenType = errors.New("wrong token type")
)
