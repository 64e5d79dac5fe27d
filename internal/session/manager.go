// Package session implements the mock sign-in: credential checks against an
// allow-list, the login token and the remember-me pair.
package session

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"fintrack/internal/log"
	"fintrack/internal/snapshot"
	"fintrack/internal/storage"
)

type State int

const (
	SignedOut State = iota
	SignedIn
)

func (s State) String() string {
	if s == SignedIn {
		return "signed_in"
	}
	return "signed_out"
}

var ErrInvalidCredentials = errors.New("invalid email or password")

// Form is what the sign-in screen shows.
type Form struct {
	Email      string
	Password   string
	RememberMe bool
}

type userRecord struct {
	Email string `json:"email"`
}

// Manager holds login state in the key-value store. Writes are serialized.
type Manager struct {
	mu       sync.Mutex
	kv       storage.Store
	verifier CredentialVerifier
	logger   *log.Logger
	newToken func() string
}

func NewManager(kv storage.Store, verifier CredentialVerifier, logger *log.Logger) *Manager {
	if verifier == nil {
		verifier = DefaultVerifier()
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Manager{
		kv:       kv,
		verifier: verifier,
		logger:   logger.WithComponent(log.ComponentSession),
		newToken: uuid.NewString,
	}
}

// SignIn checks the pair and on success stores a fresh token. With remember
// set, the pair is saved for Prefill. Without it the saved pair is left as is.
func (m *Manager) SignIn(ctx context.Context, email, password string, remember bool) (string, error) {
	if email == "" || password == "" || !m.verifier.Verify(email, password) {
		m.logger.WarnContext(ctx, "Sign-in rejected", log.FieldUser, email)
		return "", ErrInvalidCredentials
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	user, err := json.Marshal(userRecord{Email: email})
	if err != nil {
		return "", fmt.Errorf("encode user: %w", err)
	}
	token := m.newToken()
	values := map[string]string{
		snapshot.KeyToken: token,
		snapshot.KeyUser:  string(user),
	}
	if remember {
		values[snapshot.KeySavedEmail] = email
		values[snapshot.KeySavedPassword] = password
	}
	if err := m.kv.SetMany(ctx, values); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	m.logger.InfoContext(ctx, "User signed in",
		log.FieldUser, email,
		log.FieldOperation, log.OpSignIn,
		"remember_me", remember)
	return token, nil
}

// SetRememberMe toggles the saved pair. Turning it off erases the pair and
// returns the form with the password cleared.
func (m *Manager) SetRememberMe(ctx context.Context, enabled bool, email, password string) (Form, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !enabled {
		if err := m.kv.Delete(ctx, snapshot.KeySavedEmail, snapshot.KeySavedPassword); err != nil {
			return Form{Email: email, Password: password, RememberMe: true}, fmt.Errorf("forget credentials: %w", err)
		}
		return Form{Email: email}, nil
	}

	err := m.kv.SetMany(ctx, map[string]string{
		snapshot.KeySavedEmail:    email,
		snapshot.KeySavedPassword: password,
	})
	if err != nil {
		return Form{Email: email, Password: password}, fmt.Errorf("remember credentials: %w", err)
	}
	return Form{Email: email, Password: password, RememberMe: true}, nil
}

// Prefill returns the saved pair when both halves are present.
func (m *Manager) Prefill(ctx context.Context) Form {
	email, okEmail, err := m.kv.Get(ctx, snapshot.KeySavedEmail)
	if err != nil {
		m.logger.WarnContext(ctx, "Could not read saved email", log.FieldError, err.Error())
		return Form{}
	}
	password, okPassword, err := m.kv.Get(ctx, snapshot.KeySavedPassword)
	if err != nil {
		m.logger.WarnContext(ctx, "Could not read saved password", log.FieldError, err.Error())
		return Form{}
	}
	if !okEmail || !okPassword || email == "" || password == "" {
		return Form{}
	}
	return Form{Email: email, Password: password, RememberMe: true}
}

// SignOut erases the token, the user and the saved pair.
func (m *Manager) SignOut(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.kv.Delete(ctx,
		snapshot.KeyToken,
		snapshot.KeyUser,
		snapshot.KeySavedEmail,
		snapshot.KeySavedPassword)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	m.logger.InfoContext(ctx, "User signed out", log.FieldOperation, log.OpSignOut)
	return nil
}

// Status reports SignedIn only when token matches the stored one.
func (m *Manager) Status(ctx context.Context, token string) State {
	if token == "" {
		return SignedOut
	}
	stored, ok, err := m.kv.Get(ctx, snapshot.KeyToken)
	if err != nil || !ok || stored == "" {
		return SignedOut
	}
	if subtle.ConstantTimeCompare([]byte(stored), []byte(token)) != 1 {
		return SignedOut
	}
	return SignedIn
}

// CurrentUser returns the signed-in email, if any.
func (m *Manager) CurrentUser(ctx context.Context) (string, bool) {
	raw, ok, err := m.kv.Get(ctx, snapshot.KeyUser)
	if err != nil || !ok {
		return "", false
	}
	var u userRecord
	if err := json.Unmarshal([]byte(raw), &u); err != nil || u.Email == "" {
		return "", false
	}
	return u.Email, true
}
