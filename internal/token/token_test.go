package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkvault/internal/apperr"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T, secret string, clock *fakeClock) *Service {
	t.Helper()
	s, err := New(secret, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	_, err := New("", time.Hour)
	assert.Error(t, err)

	_, err = New("secret", -time.Second)
	assert.Error(t, err)

	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s, err := New("secret", 0, WithClock(clock.Now))
	require.NoError(t, err)
	tok, err := s.Issue("a.mp4")
	require.NoError(t, err)

	clock.Advance(DefaultTTL - time.Second)
	assert.NoError(t, s.Verify(tok, "a.mp4"))
	clock.Advance(time.Second)
	assert.Equal(t, apperr.KindTokenExpired, apperr.KindOf(s.Verify(tok, "a.mp4")))
}

func TestIssueVerify(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newTestService(t, "secret", clock)

	tok, err := s.Issue("a.mp4")
	require.NoError(t, err)

	assert.NoError(t, s.Verify(tok, "a.mp4"))

	err = s.Verify(tok, "b.mp4")
	assert.Equal(t, apperr.KindFilenameMismatch, apperr.KindOf(err))

	clock.Advance(time.Hour - time.Second)
	assert.NoError(t, s.Verify(tok, "a.mp4"))

	clock.Advance(time.Second)
	err = s.Verify(tok, "a.mp4")
	assert.Equal(t, apperr.KindTokenExpired, apperr.KindOf(err))
}

func TestVerifyOrder(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newTestService(t, "secret", clock)
	other := newTestService(t, "other-secret", clock)

	foreign, err := other.Issue("a.mp4")
	require.NoError(t, err)

	tok, err := s.Issue("a.mp4")
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)

	t.Run("signature is checked before expiry", func(t *testing.T) {
		err := s.Verify(foreign, "a.mp4")
		assert.Equal(t, apperr.KindSignatureInvalid, apperr.KindOf(err))
	})

	t.Run("expiry is checked before filename", func(t *testing.T) {
		err := s.Verify(tok, "b.mp4")
		assert.Equal(t, apperr.KindTokenExpired, apperr.KindOf(err))
	})
}

func TestVerifyRejectsMalformed(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newTestService(t, "secret", clock)

	tok, err := s.Issue("a.mp4")
	require.NoError(t, err)

	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)

	cases := map[string]string{
		"empty":            "",
		"garbage":          "not-a-token",
		"tampered payload": parts[0] + "." + parts[1] + "x." + parts[2],
		"missing sig":      parts[0] + "." + parts[1] + ".",
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			err := s.Verify(raw, "a.mp4")
			assert.Equal(t, apperr.KindSignatureInvalid, apperr.KindOf(err))
		})
	}

	t.Run("alg none", func(t *testing.T) {
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			File:             "a.mp4",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))},
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		err = s.Verify(unsigned, "a.mp4")
		assert.Equal(t, apperr.KindSignatureInvalid, apperr.KindOf(err))
	})

	t.Run("no expiry", func(t *testing.T) {
		noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{File: "a.mp4"}).SignedString([]byte("secret"))
		require.NoError(t, err)

		err = s.Verify(noExp, "a.mp4")
		assert.Equal(t, apperr.KindSignatureInvalid, apperr.KindOf(err))
	})
}

func TestScopes(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	s := newTestService(t, "secret", clock)

	read, err := s.Issue("a.mp4")
	require.NoError(t, err)
	manage, err := s.IssueManage("a.mp4")
	require.NoError(t, err)

	t.Run("read token cannot manage", func(t *testing.T) {
		assert.NoError(t, s.Verify(read, "a.mp4"))
		err := s.VerifyManage(read, "a.mp4")
		assert.Equal(t, apperr.KindScopeDenied, apperr.KindOf(err))
	})

	t.Run("manage token also reads", func(t *testing.T) {
		assert.NoError(t, s.VerifyManage(manage, "a.mp4"))
		assert.NoError(t, s.Verify(manage, "a.mp4"))
	})

	t.Run("manage token is bound to its file", func(t *testing.T) {
		err := s.VerifyManage(manage, "b.mp4")
		assert.Equal(t, apperr.KindFilenameMismatch, apperr.KindOf(err))
	})

	t.Run("unscoped token is read only", func(t *testing.T) {
		legacy, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			File:             "a.mp4",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))},
		}).SignedString([]byte("secret"))
		require.NoError(t, err)

		assert.NoError(t, s.Verify(legacy, "a.mp4"))
		assert.Equal(t, apperr.KindScopeDenied, apperr.KindOf(s.VerifyManage(legacy, "a.mp4")))
	})

	t.Run("expired manage token", func(t *testing.T) {
		c := &fakeClock{t: clock.t}
		s2 := newTestService(t, "secret", c)
		c.Advance(time.Hour)
		assert.Equal(t, apperr.KindTokenExpired, apperr.KindOf(s2.VerifyManage(manage, "a.mp4")))
	})
}
