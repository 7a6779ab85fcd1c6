package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"chunkvault/internal/apperr"
)

// DefaultTTL is how long an issued token stays valid.
const DefaultTTL = time.Hour

// Scope is what a token lets its holder do with the file.
type Scope string

const (
	// ScopeRead grants info and streaming. Tokens without a scope claim are read tokens.
	ScopeRead Scope = "read"
	// ScopeManage grants deletion in addition to read access.
	ScopeManage Scope = "manage"
)

// Claims binds a token to one filename and scope.
type Claims struct {
	File  string `json:"file"`
	Scope Scope  `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 capability tokens. It holds no mutable
// state, so one instance is shared by all requests.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New returns a Service signing with secret. A zero ttl means DefaultTTL.
func New(secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	if ttl < 0 {
		return nil, fmt.Errorf("token ttl must be positive")
	}
	if ttl == 0 {
		ttl = DefaultTTL
	}
	s := &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Issue returns a signed read token for filename expiring ttl from now.
func (s *Service) Issue(filename string) (string, error) {
	return s.issue(filename, ScopeRead)
}

// IssueManage returns a token that also authorises deleting filename.
// It is handed only to the uploader, never embedded in shareable URLs.
func (s *Service) IssueManage(filename string) (string, error) {
	return s.issue(filename, ScopeManage)
}

func (s *Service) issue(filename string, scope Scope) (string, error) {
	cl := Claims{
		File:  filename,
		Scope: scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(s.now().Add(s.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(s.secret)
	if err != nil {
		return "", apperr.Internal("token.Issue", err)
	}
	return signed, nil
}

// Verify checks, in order, the signature, the expiry (now >= exp is expired,
// no leeway) and that the token was issued for exactly filename. Any scope
// grants read access.
func (s *Service) Verify(raw, filename string) error {
	_, err := s.verify("token.Verify", raw, filename)
	return err
}

// VerifyManage is Verify followed by a check that the token carries ScopeManage.
func (s *Service) VerifyManage(raw, filename string) error {
	const op = "token.VerifyManage"
	cl, err := s.verify(op, raw, filename)
	if err != nil {
		return err
	}
	if cl.Scope != ScopeManage {
		return apperr.E(op, apperr.KindScopeDenied, "token does not grant this operation")
	}
	return nil
}

func (s *Service) verify(op, raw, filename string) (*Claims, error) {
	var cl Claims
	_, err := jwt.ParseWithClaims(raw, &cl, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, &apperr.Error{Op: op, Kind: apperr.KindSignatureInvalid, Msg: "invalid token", Err: err}
	}

	if cl.ExpiresAt == nil {
		return nil, apperr.E(op, apperr.KindSignatureInvalid, "token has no expiry")
	}
	if !s.now().Before(cl.ExpiresAt.Time) {
		return nil, apperr.E(op, apperr.KindTokenExpired, "token expired")
	}
	if cl.File != filename {
		return nil, apperr.E(op, apperr.KindFilenameMismatch, "token not valid for this file")
	}
	return &cl, nil
}
