// Package common defines shared sentinel errors and small helpers used
// across the termvault core. Callers should use errors.Is to match the
// error values.
package common

import "errors"

var (
	// Credential-store errors.
	ErrUnknownUser        = errors.New("unknown user")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrValidation         = errors.New("validation error")

	// Crypto errors. ErrDecryptionFailed covers wrong password,
	// truncated blobs and tampered ciphertext alike; the cause is
	// deliberately not distinguished.
	ErrDecryptionFailed = errors.New("decryption failed")

	// Storage errors. ErrNotFound is non-fatal: callers treat it as
	// "no data saved yet".
	ErrNotFound         = errors.New("not found")
	ErrCorruptFile      = errors.New("corrupt file")
	ErrPasswordRequired = errors.New("file is encrypted but no password provided")
	ErrModeMismatch     = errors.New("storage mode does not match file variant")
)
