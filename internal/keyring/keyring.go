package keyring

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habitcast/internal/constants"
	"github.com/julianstephens/habitcast/internal/oauth"
)

var (
	// ErrNotFound is returned when no token is stored in the keyring
	ErrNotFound = errors.New("token not found in keyring")
	// ErrKeyringUnavailable is returned when the OS keyring is not available
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// GetToken retrieves the stored TickTick token.
// Returns ErrNotFound if nothing is stored.
func GetToken() (*oauth.Token, error) {
	raw, err := keyring.Get(constants.AppName, constants.KeyringTokenUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}

	var tok oauth.Token
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return nil, fmt.Errorf("stored token is corrupt: %w", err)
	}
	return &tok, nil
}

// SetToken stores tok in the OS keyring as JSON.
func SetToken(tok *oauth.Token) error {
	if tok == nil || tok.AccessToken == "" {
		return errors.New("access token cannot be empty")
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := keyring.Set(constants.AppName, constants.KeyringTokenUser, string(data)); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	return nil
}

// DeleteToken removes the stored token.
func DeleteToken() error {
	err := keyring.Delete(constants.AppName, constants.KeyringTokenUser)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// IsAvailable is a best-effort probe of the OS keyring.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
