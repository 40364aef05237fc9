package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/portfolio-backend/errs"
	"github.com/rpupo63/portfolio-backend/models"
	"github.com/rpupo63/portfolio-backend/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	SessionTTL = 24 * time.Hour
	RoleAdmin  = "admin"

	PermProjectsRead  = "projects:read"
	PermProjectsWrite = "projects:write"
	PermPortfolioSync = "portfolio:sync"
)

var AdminPermissions = []string{PermProjectsRead, PermProjectsWrite, PermPortfolioSync}

type claims struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Gate guards the admin surface with a single shared password and one
// active session stored under storage.KeyAuth.
type Gate struct {
	kv       storage.KV
	password string
	secret   []byte
	now      func() time.Time
	logger   zerolog.Logger
}

type Option func(*Gate)

func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// New builds a gate. An empty password disables login; an empty secret is
// replaced by a random one, so tokens do not survive a restart.
func New(kv storage.KV, password, secret string, opts ...Option) (*Gate, error) {
	g := &Gate{
		kv:       kv,
		password: password,
		secret:   []byte(secret),
		now:      time.Now,
		logger:   log.With().Str("component", "authGate").Logger(),
	}
	if len(g.secret) == 0 {
		g.secret = make([]byte, 32)
		if _, err := rand.Read(g.secret); err != nil {
			return nil, fmt.Errorf("generate auth secret: %w", err)
		}
		g.logger.Warn().Msg("AUTH_SECRET not set, using a per-process secret")
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Login checks password and replaces the stored session with a new one.
func (g *Gate) Login(ctx context.Context, password string) (*models.Session, error) {
	if g.password == "" {
		return nil, errs.NewLoginDisabledError()
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(g.password)) != 1 {
		g.logger.Warn().Msg("Rejected admin login")
		return nil, errs.NewWrongPasswordError()
	}

	now := g.now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role:        RoleAdmin,
		Permissions: AdminPermissions,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   RoleAdmin,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}).SignedString(g.secret)
	if err != nil {
		return nil, errs.NewInternalErrorWithCause("failed to sign session token", err)
	}

	session := models.Session{
		Token:       token,
		Role:        RoleAdmin,
		Permissions: append([]string{}, AdminPermissions...),
		Timestamp:   now,
	}
	if err := storage.SetJSON(ctx, g.kv, storage.KeyAuth, session); err != nil {
		return nil, err
	}

	g.logger.Info().Msg("Admin logged in")
	return &session, nil
}

// Verify accepts token only if it is signed by this gate, matches the stored
// session and the session is younger than SessionTTL.
func (g *Gate) Verify(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, errs.NewMissingTokenError()
	}

	_, err := jwt.ParseWithClaims(token, &claims{}, func(*jwt.Token) (any, error) {
		return g.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(g.now))
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, errs.NewExpiredTokenError()
	}
	if err != nil {
		return nil, errs.NewInvalidTokenError()
	}

	var session models.Session
	found, err := storage.GetJSON(ctx, g.kv, storage.KeyAuth, &session)
	if err != nil {
		return nil, err
	}
	if !found || subtle.ConstantTimeCompare([]byte(session.Token), []byte(token)) != 1 {
		return nil, errs.NewInvalidTokenError()
	}
	if session.Expired(g.now(), SessionTTL) {
		return nil, errs.NewExpiredTokenError()
	}
	return &session, nil
}

// Logout drops the stored session.
func (g *Gate) Logout(ctx context.Context) error {
	if err := g.kv.Delete(ctx, storage.KeyAuth); err != nil {
		return errs.NewStorageError("delete", storage.KeyAuth, err)
	}
	g.logger.Info().Msg("Admin logged out")
	return nil
}
