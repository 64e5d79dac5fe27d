package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/snapshot"
	"fintrack/internal/storage/memory"
)

func newManager(t *testing.T) (*Manager, *memory.Store) {
	t.Helper()
	kv := memory.New()
	return NewManager(kv, DefaultVerifier(), nil), kv
}

func TestSignInValidAndInvalid(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	token, err := m.SignIn(ctx, "test@example.com", "password123", false)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, SignedIn, m.Status(ctx, token))

	user, ok := m.CurrentUser(ctx)
	assert.True(t, ok)
	assert.Equal(t, "test@example.com", user)

	m2, _ := newManager(t)
	bad, err := m2.SignIn(ctx, "test@example.com", "wrong", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, "invalid email or password", err.Error())
	assert.Empty(t, bad)
	assert.Equal(t, SignedOut, m2.Status(ctx, bad))
}

func TestSignInEmptyFieldsAreRejected(t *testing.T) {
	ctx := context.Background()
	m, kv := newManager(t)

	for _, pair := range [][2]string{{"", "password123"}, {"test@example.com", ""}, {"", ""}} {
		_, err := m.SignIn(ctx, pair[0], pair[1], true)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}
	assert.Equal(t, 0, kv.Len())
}

func TestStatusRequiresMatchingToken(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)
	m.newToken = func() string { return "fixed-token" }

	_, err := m.SignIn(ctx, DefaultEmail, DefaultPassword, false)
	require.NoError(t, err)

	assert.Equal(t, SignedIn, m.Status(ctx, "fixed-token"))
	assert.Equal(t, SignedOut, m.Status(ctx, "other-token"))
	assert.Equal(t, SignedOut, m.Status(ctx, ""))
}

func TestRememberMeThenSignOutClearsEverything(t *testing.T) {
	ctx := context.Background()
	m, kv := newManager(t)

	form, err := m.SetRememberMe(ctx, true, DefaultEmail, DefaultPassword)
	require.NoError(t, err)
	assert.True(t, form.RememberMe)

	token, err := m.SignIn(ctx, DefaultEmail, DefaultPassword, true)
	require.NoError(t, err)
	assert.Equal(t, Form{Email: DefaultEmail, Password: DefaultPassword, RememberMe: true}, m.Prefill(ctx))

	require.NoError(t, m.SignOut(ctx))

	for _, key := range []string{snapshot.KeyToken, snapshot.KeyUser, snapshot.KeySavedEmail, snapshot.KeySavedPassword} {
		_, ok, err := kv.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, "key %s should be erased", key)
	}
	assert.Equal(t, SignedOut, m.Status(ctx, token))
	assert.Equal(t, Form{}, m.Prefill(ctx))
}

func TestDisableRememberMeClearsPasswordKeepsEmail(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	_, err := m.SetRememberMe(ctx, true, "a@b.c", "pw")
	require.NoError(t, err)

	form, err := m.SetRememberMe(ctx, false, "a@b.c", "pw")
	require.NoError(t, err)
	assert.Equal(t, Form{Email: "a@b.c"}, form)
	assert.Equal(t, Form{}, m.Prefill(ctx))
}

func TestSignInWithoutRememberKeepsSavedPair(t *testing.T) {
	ctx := context.Background()
	m, _ := newManager(t)

	_, err := m.SetRememberMe(ctx, true, DefaultEmail, DefaultPassword)
	require.NoError(t, err)
	_, err = m.SignIn(ctx, DefaultEmail, DefaultPassword, false)
	require.NoError(t, err)

	assert.True(t, m.Prefill(ctx).RememberMe)
}

func TestPrefillNeedsBothHalves(t *testing.T) {
	kv := memory.NewWithData(map[string]string{snapshot.KeySavedEmail: "x@y.z"})
	m := NewManager(kv, nil, nil)
	assert.Equal(t, Form{}, m.Prefill(context.Background()))
}

func TestLoadAllowList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounts.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accounts:
  - email: alice@example.com
    password: s3cret
  - email: " bob@example.com "
    password: hunter2
`), 0o600))

	v, err := LoadAllowList(path)
	require.NoError(t, err)
	assert.Equal(t, 2, v.Len())
	assert.True(t, v.Verify("alice@example.com", "s3cret"))
	assert.True(t, v.Verify("bob@example.com", "hunter2"))
	assert.False(t, v.Verify("alice@example.com", "hunter2"))
	assert.False(t, v.Verify(DefaultEmail, DefaultPassword))
}

func TestLoadAllowListErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadAllowList(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("accounts: []\n"), 0o600))
	_, err = LoadAllowList(empty)
	assert.Error(t, err)

	partial := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(partial, []byte("accounts:\n  - email: a@b.c\n"), 0o600))
	_, err = LoadAllowList(partial)
	assert.Error(t, err)
}
