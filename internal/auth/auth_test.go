package auth

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

const testKeyHex = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// cheapParams keep hashing fast in tests.
var cheapParams = Argon2Params{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	h := NewPasswordHasher(cheapParams)

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify(hash, "correct horse")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(hash, "Correct horse")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	h := NewPasswordHasher(cheapParams)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestPasswordHasher_VerifiesOtherParams(t *testing.T) {
	hash, err := NewPasswordHasher(cheapParams).Hash("secret")
	require.NoError(t, err)

	ok, err := NewPasswordHasher(DefaultArgon2Params()).Verify(hash, "secret")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPasswordHasher_Rejects(t *testing.T) {
	h := NewPasswordHasher(cheapParams)

	_, err := h.Hash("")
	assert.Error(t, err)

	_, err = h.Hash(strings.Repeat("x", maxPasswordLength+1))
	assert.Error(t, err)

	for _, bad := range []string{"", "plain", "$argon2i$v=19$m=1,t=1,p=1$AA$AA", "$argon2id$v=1$m=1,t=1,p=1$AA$AA"} {
		ok, err := h.Verify(bad, "secret")
		require.NoError(t, err)
		assert.False(t, ok, bad)
	}
}

func TestTokenService_RoundTrip(t *testing.T) {
	ts, err := NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	user := &domain.User{ID: 42, Username: "alex"}
	token, err := ts.GenerateAccessToken(user, "sess-abc")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := ts.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sess-abc", claims.SessionID)
	assert.Equal(t, int64(42), claims.UserID)
	assert.Equal(t, "alex", claims.Username)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.TokenID)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.Expiration, 5*time.Second)
}

func TestTokenService_Rejects(t *testing.T) {
	ts, err := NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	expired, err := NewTokenService(testKeyHex, -time.Minute)
	require.NoError(t, err)
	old, err := expired.GenerateAccessToken(&domain.User{ID: 1}, "sess")
	require.NoError(t, err)
	_, err = ts.VerifyAccessToken(old)
	assert.Error(t, err)

	otherKey, err := NewTokenService(strings.Repeat("ab", 32), time.Hour)
	require.NoError(t, err)
	foreign, err := otherKey.GenerateAccessToken(&domain.User{ID: 1}, "sess")
	require.NoError(t, err)
	_, err = ts.VerifyAccessToken(foreign)
	assert.Error(t, err)

	_, err = ts.VerifyAccessToken("not-a-token")
	assert.Error(t, err)

	noSession, err := ts.GenerateAccessToken(&domain.User{ID: 1}, "")
	require.NoError(t, err)
	_, err = ts.VerifyAccessToken(noSession)
	assert.Error(t, err)
}

func TestNewTokenService_BadKey(t *testing.T) {
	_, err := NewTokenService("short", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(strings.Repeat("zz", 32), time.Hour)
	assert.Error(t, err)
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyBytesSize)

	info, err := os.Stat(filepath.Join(dir, keyFileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again)

	_, err = NewTokenService(hex.EncodeToString(key), time.Minute)
	assert.NoError(t, err)
}

func TestLoadOrGenerateKey_Corrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFileName), []byte("nothex"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}
