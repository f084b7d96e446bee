// Package auth implements account signup, password login and cookie sessions.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyperjump/glossary/internal/models"
	"github.com/hyperjump/glossary/internal/storage"
)

var (
	ErrInvalidInput  = errors.New("username and password are required")
	ErrWeakPassword  = errors.New("password must be 8+ chars with upper & lowercase")
	ErrUsernameTaken = errors.New("username already exists")
	ErrUnauthorized  = errors.New("unauthorized")
)

const (
	DefaultSessionTTL = 24 * time.Hour
	tokenBytes        = 32
)

// Store is the persistence the service needs.
type Store interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// Service manages accounts and sessions.
type Service struct {
	store  Store
	cost   int
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Service)

// WithHashCost sets the bcrypt cost. Values outside bcrypt's range fall back to the default.
func WithHashCost(cost int) Option {
	return func(s *Service) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.cost = cost
		}
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		cost:   bcrypt.DefaultCost,
		ttl:    DefaultSessionTTL,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidPassword reports whether p has at least 8 characters, one upper and one lower case letter.
func ValidPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	var upper, lower bool
	for _, r := range p {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		}
	}
	return upper && lower
}

// HashToken returns the hex SHA-256 of a raw session token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Signup creates an account. Username and password are trimmed.
func (s *Service) Signup(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return nil, ErrInvalidInput
	}
	if !ValidPassword(password) {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("auth.Signup hash password: %w", err)
	}

	user := &models.User{Username: username, PasswordHash: string(hash), CreatedAt: s.now()}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("auth.Signup create user: %w", err)
	}

	s.logger.Info("user signed up", zap.String("username", username))
	return user, nil
}

// Login checks the password and opens a session. It returns the raw token for the
// client and the session expiry. Unknown users and wrong passwords both give ErrUnauthorized.
func (s *Service) Login(ctx context.Context, username, password string) (string, time.Time, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return "", time.Time{}, ErrUnauthorized
	}

	user, err := s.store.GetUser(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", time.Time{}, ErrUnauthorized
		}
		return "", time.Time{}, fmt.Errorf("auth.Login get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", time.Time{}, ErrUnauthorized
	}

	now := s.now()
	if n, err := s.store.DeleteExpiredSessions(ctx, now); err != nil {
		s.logger.Warn("failed to prune sessions", zap.Error(err))
	} else if n > 0 {
		s.logger.Debug("pruned expired sessions", zap.Int64("count", n))
	}

	raw, err := newToken()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth.Login generate token: %w", err)
	}
	session := &models.Session{
		TokenHash: HashToken(raw),
		Username:  user.Username,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return "", time.Time{}, fmt.Errorf("auth.Login create session: %w", err)
	}

	s.logger.Info("user logged in", zap.String("username", user.Username))
	return raw, session.ExpiresAt, nil
}

// Authenticate returns the username owning token. Expired sessions are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrUnauthorized
	}
	hash := HashToken(token)
	session, err := s.store.GetSession(ctx, hash)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", ErrUnauthorized
		}
		return "", fmt.Errorf("auth.Authenticate get session: %w", err)
	}
	if session.Expired(s.now()) {
		if err := s.store.DeleteSession(ctx, hash); err != nil {
			s.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return "", ErrUnauthorized
	}
	return session.Username, nil
}

// Logout ends the session for token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.store.DeleteSession(ctx, HashToken(token)); err != nil {
		return fmt.Errorf("auth.Logout delete session: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
