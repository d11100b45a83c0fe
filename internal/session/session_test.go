package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, subject string, expires time.Time) string {
	t.Helper()
	claims := jwt.RegisteredClaims{Subject: subject}
	if !expires.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expires)
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.False(t, s.LoggedIn())
}

func TestSaveLoad_RoundTripWithOwnerOnlyPerms(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.toml")
	want := Session{UserID: "u1", Email: "a@b.co", AccessToken: "acc", RefreshToken: "ref"}
	require.NoError(t, Save(path, want))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	require.NoError(t, os.WriteFile(path, []byte("email = ["), 0o600))
	_, err := Load(path)
	assert.ErrorContains(t, err, "parse session")
}

func TestClaims_ReadsSubjectAndExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s := Session{AccessToken: signedToken(t, "user-7", exp)}

	claims, err := s.Claims()
	require.NoError(t, err)
	assert.Equal(t, "user-7", claims.Subject)
	assert.True(t, exp.Equal(claims.ExpiresAt))

	assert.False(t, s.Expired(time.Now()))
	assert.True(t, s.Expired(exp.Add(time.Second)))
}

func TestExpired_UnparseableOrNoExpiryCountsAsLive(t *testing.T) {
	assert.False(t, Session{AccessToken: "not-a-jwt"}.Expired(time.Now()))
	assert.False(t, Session{AccessToken: signedToken(t, "x", time.Time{})}.Expired(time.Now()))

	_, err := Session{}.Claims()
	assert.Error(t, err)
}

func TestHolder_UpdateWritesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	h := NewHolder(path, Session{})

	require.NoError(t, h.Update("acc", "ref"))
	require.NoError(t, h.SetIdentity("u1", "a@b.co"))
	assert.Equal(t, "acc", h.AccessToken())
	assert.Equal(t, "ref", h.RefreshToken())

	onDisk, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, h.Session(), onDisk)
}

func TestHolder_EmptyUpdateSignsOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.toml")
	h := NewHolder(path, Session{Email: "a@b.co"})
	require.NoError(t, h.Update("acc", "ref"))

	require.NoError(t, h.Update("", ""))
	assert.Equal(t, Session{}, h.Session())
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, h.Update("", ""), "clearing twice is fine")
}

func TestHolder_InMemoryWithoutPath(t *testing.T) {
	h := NewHolder("", Session{})
	require.NoError(t, h.Update("acc", "ref"))
	assert.True(t, h.Session().LoggedIn())
}
