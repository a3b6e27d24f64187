package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/papervault/pkg/auth"
	"github.com/yeisme/papervault/pkg/configs"
)

func testConfig() configs.AuthConfig {
	return configs.AuthConfig{
		JWTSecret:     "super-secret-key",
		TokenTTL:      time.Hour,
		Issuer:        "papervault",
		AdminUsername: "admin",
		AdminPassword: "s3cret",
	}
}

func TestIssueAndVerify(t *testing.T) {
	t.Parallel()

	issuer := auth.NewIssuer(testConfig())

	tok, exp, err := issuer.Issue(auth.RoleAdmin)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := issuer.Verify(tok)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, claims.Role)
	assert.Equal(t, "papervault", claims.Issuer)
}

func TestVerify_Expired(t *testing.T) {
	t.Parallel()

	past := time.Now().Add(-2 * time.Hour)
	issuer := auth.NewIssuer(testConfig()).WithClock(func() time.Time { return past })

	tok, _, err := issuer.Issue(auth.RoleAdmin)
	require.NoError(t, err)

	_, err = auth.NewIssuer(testConfig()).Verify(tok)
	require.ErrorIs(t, err, auth.ErrInvalidToken)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := auth.NewIssuer(testConfig()).Issue(auth.RoleAdmin)
	require.NoError(t, err)

	other := testConfig()
	other.JWTSecret = "another-secret"

	_, err = auth.NewIssuer(other).Verify(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerify_Garbage(t *testing.T) {
	t.Parallel()

	_, err := auth.NewIssuer(testConfig()).Verify("not.a.jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerify_RejectsNoneAlg(t *testing.T) {
	t.Parallel()

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, auth.Claims{
		Role: auth.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "papervault",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.NewIssuer(testConfig()).Verify(s)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestParseBearer(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"  Bearer   abc  ", "abc", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic abc", "", false},
		{"abc", "", false},
	}

	for _, tc := range cases {
		got, err := auth.ParseBearer(tc.header)
		if tc.ok {
			require.NoError(t, err, tc.header)
			assert.Equal(t, tc.want, got)
		} else {
			assert.ErrorIs(t, err, auth.ErrUnauthorized, tc.header)
		}
	}
}

func TestCredentials_PlainPassword(t *testing.T) {
	t.Parallel()

	creds := auth.CredentialsFrom(testConfig())

	assert.NoError(t, creds.Check("admin", "s3cret"))
	assert.ErrorIs(t, creds.Check("admin", "wrong"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, creds.Check("root", "s3cret"), auth.ErrInvalidCredentials)
	assert.ErrorIs(t, creds.Check("", ""), auth.ErrInvalidCredentials)
}

func TestCredentials_EmptyConfiguredPassword(t *testing.T) {
	t.Parallel()

	creds := auth.Credentials{Username: "admin"}
	assert.ErrorIs(t, creds.Check("admin", ""), auth.ErrInvalidCredentials)
}

func TestCredentials_Hash(t *testing.T) {
	t.Parallel()

	hash, err := auth.HashPassword("hunter22")
	require.NoError(t, err)

	creds := auth.Credentials{Username: "admin", Password: "ignored", PasswordHash: hash}

	assert.NoError(t, creds.Check("admin", "hunter22"))
	assert.ErrorIs(t, creds.Check("admin", "ignored"), auth.ErrInvalidCredentials)
}
