// Package session tracks the signed-in state of a dashboard client: the
// current user and the access token issued by an identity provider.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"sentinel/internal/models"
)

// Credentials is what an identity provider returns on a successful login.
type Credentials struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user,omitempty"`
}

// Identity is an identity provider. Login accepts a username or an email.
type Identity interface {
	Login(ctx context.Context, username, password string) (Credentials, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// LoginError carries the identity provider's failure message unchanged so it
// can be shown to the user.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return e.Message }

func (e *LoginError) Unwrap() error { return e.Err }

var ErrMissingCredentials = errors.New("Username and password are required")

// Holder is the session state shared by a client. It is safe for concurrent use.
type Holder struct {
	identity Identity

	mu    sync.RWMutex
	token string
	user  *models.User
}

func NewHolder(identity Identity) *Holder {
	return &Holder{identity: identity}
}

// Login authenticates against the identity provider. On failure the holder is
// left unauthenticated and the error is a *LoginError; calling Login again is
// allowed.
func (h *Holder) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		h.clear()
		return &LoginError{Message: ErrMissingCredentials.Error(), Err: ErrMissingCredentials}
	}

	creds, err := h.identity.Login(ctx, username, password)
	if err != nil {
		h.clear()
		return &LoginError{Message: err.Error(), Err: err}
	}
	user := creds.User
	if user == nil {
		user, err = h.identity.CurrentUser(ctx, creds.AccessToken)
		if err != nil {
			h.clear()
			return &LoginError{Message: err.Error(), Err: err}
		}
	}

	h.mu.Lock()
	h.token = creds.AccessToken
	h.user = user
	h.mu.Unlock()
	return nil
}

// Logout ends the session. Local state is cleared even when the provider
// call fails; that error is returned.
func (h *Holder) Logout(ctx context.Context) error {
	h.mu.Lock()
	token := h.token
	h.token = ""
	h.user = nil
	h.mu.Unlock()
	if token == "" {
		return nil
	}
	return h.identity.Logout(ctx, token)
}

// Refresh revalidates the token with the provider and updates the cached
// user. An invalid session is cleared.
func (h *Holder) Refresh(ctx context.Context) error {
	token := h.Token()
	if token == "" {
		return nil
	}
	user, err := h.identity.CurrentUser(ctx, token)
	if err != nil {
		h.clear()
		return err
	}
	h.mu.Lock()
	h.user = user
	h.mu.Unlock()
	return nil
}

// CurrentUser returns a copy of the signed-in user.
func (h *Holder) CurrentUser() (*models.User, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.user == nil {
		return nil, false
	}
	u := *h.user
	return &u, true
}

func (h *Holder) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token != "" && h.user != nil
}

func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *Holder) clear() {
	h.mu.Lock()
	h.token = ""
	h.user = nil
	h.mu.Unlock()
}
