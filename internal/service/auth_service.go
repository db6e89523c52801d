package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/yanasan/todo-api/internal/model"
	"github.com/yanasan/todo-api/internal/token"
)

const (
	DefaultAccessTTL  = 60 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// CredentialStore looks up users. Find* must return model.ErrUserNotFound for
// missing and soft-deleted users alike.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, user model.User) error
	SoftDelete(ctx context.Context, id string) error
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext string, hash string) bool
}

// AuthRecorder receives auth outcomes for metrics. Reasons are internal and
// never reach clients.
type AuthRecorder interface {
	RecordLogin(outcome string)
	RecordTokenIssued(kind string)
	RecordTokenRejected(operation string, reason string)
}

type AuthConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.AccessTTL <= 0 {
		c.AccessTTL = DefaultAccessTTL
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = DefaultRefreshTTL
	}
	return c
}

type AuthService struct {
	cfg       AuthConfig
	codec     *token.Codec
	users     CredentialStore
	passwords PasswordHasher
	recorder  AuthRecorder
	now       func() time.Time
	dummyHash string
}

func NewAuthService(cfg AuthConfig, codec *token.Codec, users CredentialStore, passwords PasswordHasher, recorder AuthRecorder) (*AuthService, error) {
	if codec == nil || users == nil || passwords == nil {
		return nil, errors.New("auth service requires a codec, a credential store and a password hasher")
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}

	// Unknown emails are verified against this hash so both login failure
	// paths cost one hash comparison.
	dummyHash, err := passwords.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("prepare dummy password hash: %w", err)
	}

	return &AuthService{
		cfg:       cfg.withDefaults(),
		codec:     codec,
		users:     users,
		passwords: passwords,
		recorder:  recorder,
		now:       time.Now,
		dummyHash: dummyHash,
	}, nil
}

// SetClock replaces the issuing clock. The codec keeps its own clock for
// expiry checks.
func (s *AuthService) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *AuthService) AccessTTL() time.Duration {
	return s.cfg.AccessTTL
}

func (s *AuthService) Register(ctx context.Context, req model.SignupRequest) (model.User, error) {
	email := normalizeEmail(req.Email)
	req.Email = email
	req.Name = strings.TrimSpace(req.Name)
	if err := req.Validate(); err != nil {
		return model.User{}, err
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return model.User{}, err
	}
	if exists {
		return model.User{}, model.ErrEmailTaken
	}

	hash, err := s.passwords.Hash(req.Password)
	if err != nil {
		return model.User{}, err
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         req.Name,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return model.User{}, err
	}

	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// DeleteAccount soft-deletes the user. Outstanding tokens keep their expiry but
// are rejected on the next use because the subject no longer resolves.
func (s *AuthService) DeleteAccount(ctx context.Context, user model.User) error {
	if err := s.users.SoftDelete(ctx, user.ID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "user deleted", "user_id", user.ID)
	return nil
}

// Login checks credentials and issues a fresh token pair. An unknown email and
// a wrong password both yield model.ErrAuthentication.
func (s *AuthService) Login(ctx context.Context, email string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			return model.TokenPair{}, err
		}
		s.passwords.Verify(password, s.dummyHash)
		s.recorder.RecordLogin("unknown_email")
		slog.InfoContext(ctx, "login rejected", "reason", "unknown_email")
		return model.TokenPair{}, model.ErrAuthentication
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		s.recorder.RecordLogin("bad_password")
		slog.InfoContext(ctx, "login rejected", "reason", "bad_password", "user_id", user.ID)
		return model.TokenPair{}, model.ErrAuthentication
	}

	accessToken, err := s.IssueAccessToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}
	refreshToken, err := s.IssueRefreshToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	s.recorder.RecordLogin("success")
	return s.pair(accessToken, refreshToken), nil
}

func (s *AuthService) IssueAccessToken(user model.User) (string, error) {
	return s.issue(user, token.KindAccess, s.cfg.AccessTTL)
}

func (s *AuthService) IssueRefreshToken(user model.User) (string, error) {
	return s.issue(user, token.KindRefresh, s.cfg.RefreshTTL)
}

// Authenticate resolves the user behind an access token. Refresh tokens are
// rejected with model.ErrWrongTokenKind.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (model.User, error) {
	return s.resolve(ctx, "authenticate", raw, token.KindAccess)
}

// Refresh exchanges a refresh token for a new access token. The refresh token
// itself is returned unchanged and stays valid until its own expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	user, err := s.resolve(ctx, "refresh", refreshToken, token.KindRefresh)
	if err != nil {
		return model.TokenPair{}, err
	}

	accessToken, err := s.IssueAccessToken(user)
	if err != nil {
		return model.TokenPair{}, err
	}

	return s.pair(accessToken, refreshToken), nil
}

func (s *AuthService) resolve(ctx context.Context, operation string, raw string, want token.Kind) (model.User, error) {
	claims, err := s.codec.Decode(strings.TrimSpace(raw))
	if err != nil {
		return model.User{}, s.reject(ctx, operation, err)
	}

	if claims.Subject == "" {
		return model.User{}, s.reject(ctx, operation, fmt.Errorf("%w: missing subject", model.ErrMalformedToken))
	}

	if claims.Kind != want {
		return model.User{}, s.reject(ctx, operation, fmt.Errorf("%w: got %q, want %q", model.ErrWrongTokenKind, claims.Kind, want))
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, s.reject(ctx, operation, fmt.Errorf("%w: %s", model.ErrUnknownSubject, claims.Subject))
	}
	if err != nil {
		return model.User{}, err
	}

	return user, nil
}

func (s *AuthService) reject(ctx context.Context, operation string, err error) error {
	reason := rejectionReason(err)
	s.recorder.RecordTokenRejected(operation, reason)
	slog.WarnContext(ctx, "token rejected", "operation", operation, "reason", reason, "error", err)
	return err
}

func (s *AuthService) issue(user model.User, kind token.Kind, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := token.Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if kind == token.KindAccess {
		claims.Email = user.Email
		claims.Name = user.Name
	}

	raw, err := s.codec.Encode(claims)
	if err != nil {
		return "", err
	}

	s.recorder.RecordTokenIssued(string(kind))
	return raw, nil
}

func (s *AuthService) pair(accessToken string, refreshToken string) model.TokenPair {
	return model.TokenPair{
		AccessToken:  accessToken,
		TokenType:    model.TokenTypeBearer,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.cfg.AccessTTL / time.Second),
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, model.ErrTokenExpired):
		return "expired"
	case errors.Is(err, model.ErrTokenSignature):
		return "signature"
	case errors.Is(err, model.ErrWrongTokenKind):
		return "wrong_kind"
	case errors.Is(err, model.ErrUnknownSubject):
		return "unknown_subject"
	default:
		return "malformed"
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type noopRecorder struct{}

func (noopRecorder) RecordLogin(string)                 {}
func (noopRecorder) RecordTokenIssued(string)           {}
func (noopRecorder) RecordTokenRejected(string, string) {}
