package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/quickkart/backend-grocer/internal/common"
	"github.com/quickkart/backend-grocer/internal/store"
)

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour

	// RoleCustomer is the default role for new accounts.
	RoleCustomer = "customer"
	// RoleAdmin unlocks catalogue, coupon, and order administration.
	RoleAdmin = "admin"

	roleClaim = "role"
)

// Queries is the subset of the store the auth service needs.
type Queries interface {
	CreateUser(ctx context.Context, arg store.CreateUserParams) (store.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id pgtype.UUID) (store.User, error)
	CreateSession(ctx context.Context, arg store.CreateSessionParams) (store.Session, error)
	GetSessionByTokenHash(ctx context.Context, hash string) (store.Session, error)
	RotateSessionToken(ctx context.Context, id pgtype.UUID, hash string, expiresAt pgtype.Timestamptz) (store.Session, error)
	DeleteSessionByTokenHash(ctx context.Context, hash string) error
	DeleteSessionsByUser(ctx context.Context, userID pgtype.UUID) error
}

// Service issues and validates tokens and manages refresh sessions.
type Service struct {
	queries    Queries
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	signer     jwa.SignatureAlgorithm
	issuer     string
	audience   string
	clockSkew  time.Duration
}

// Config configures the auth service.
type Config struct {
	Queries         Queries
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
	Audience        string
	ClockSkew       time.Duration
}

// User is the safe subset of the account returned to clients.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// TokenPair bundles an access/refresh token set.
type TokenPair struct {
	AccessToken   string    `json:"accessToken"`
	AccessExpiry  time.Time `json:"accessExpiresAt"`
	RefreshToken  string    `json:"refreshToken"`
	RefreshExpiry time.Time `json:"refreshExpiresAt"`
}

// LoginResult is the user plus fresh token material.
type LoginResult struct {
	User   User
	Tokens TokenPair
}

// NewService constructs a Service with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Queries == nil {
		return nil, errors.New("auth: queries is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	refreshTTL := cfg.RefreshTokenTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "grocer-api"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "grocer-app"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}
	return &Service{
		queries:    cfg.Queries,
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		signer:     jwa.HS256,
		issuer:     issuer,
		audience:   audience,
		clockSkew:  clockSkew,
	}, nil
}

// WithNow lets tests override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Register creates a customer account.
func (s *Service) Register(ctx context.Context, name, email, phone, password string) (User, error) {
	if strings.TrimSpace(name) == "" {
		return User{}, common.NewAppError("VALIDATION_ERROR", "name is required", http.StatusBadRequest, nil)
	}
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || !strings.Contains(normalizedEmail, "@") {
		return User{}, common.NewAppError("VALIDATION_ERROR", "a valid email is required", http.StatusBadRequest, nil)
	}
	if len(password) < 8 {
		return User{}, common.NewAppError("VALIDATION_ERROR", "password must be at least 8 characters", http.StatusBadRequest, nil)
	}

	hash, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        normalizedEmail,
		PasswordHash: hash,
		Name:         strings.TrimSpace(name),
		Phone:        store.TextOrNull(strings.TrimSpace(phone)),
		Role:         RoleCustomer,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, common.NewAppError("EMAIL_ALREADY_USED", "email is already registered", http.StatusConflict, err)
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	return toUser(created), nil
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	if normalizedEmail == "" || password == "" {
		return LoginResult{}, invalidCredentials(nil)
	}
	record, err := s.queries.GetUserByEmail(ctx, normalizedEmail)
	if err != nil {
		return LoginResult{}, invalidCredentials(nil)
	}
	ok, err := argon2id.ComparePasswordAndHash(password, record.PasswordHash)
	if err != nil || !ok {
		return LoginResult{}, invalidCredentials(nil)
	}

	tokens, err := s.issueTokens(ctx, record)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: toUser(record), Tokens: tokens}, nil
}

// Refresh rotates a refresh token and issues a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return TokenPair{}, invalidRefresh(nil)
	}
	hashed := hashRefreshToken(token)
	session, err := s.queries.GetSessionByTokenHash(ctx, hashed)
	if err != nil {
		return TokenPair{}, invalidRefresh(err)
	}
	if !session.ExpiresAt.Valid || s.now().After(session.ExpiresAt.Time) {
		_ = s.queries.DeleteSessionByTokenHash(ctx, hashed)
		return TokenPair{}, invalidRefresh(nil)
	}
	record, err := s.queries.GetUserByID(ctx, session.UserID)
	if err != nil {
		_ = s.queries.DeleteSessionByTokenHash(ctx, hashed)
		return TokenPair{}, invalidRefresh(err)
	}

	accessToken, accessExpiry, err := s.signAccessToken(record)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	newToken, newHash, refreshExpiry, err := s.newRefreshToken()
	if err != nil {
		return TokenPair{}, err
	}
	if _, err := s.queries.RotateSessionToken(ctx, session.ID, newHash, pgtype.Timestamptz{Time: refreshExpiry, Valid: true}); err != nil {
		_ = s.queries.DeleteSessionByTokenHash(ctx, hashed)
		return TokenPair{}, fmt.Errorf("rotate session token: %w", err)
	}
	return TokenPair{
		AccessToken:   accessToken,
		AccessExpiry:  accessExpiry,
		RefreshToken:  newToken,
		RefreshExpiry: refreshExpiry,
	}, nil
}

// Logout revokes the refresh token. An empty token is a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	token := strings.TrimSpace(refreshToken)
	if token == "" {
		return nil
	}
	return s.queries.DeleteSessionByTokenHash(ctx, hashRefreshToken(token))
}

// Me fetches the authenticated user's profile.
func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	id, err := store.ToUUID(userID)
	if err != nil {
		return User{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	record, err := s.queries.GetUserByID(ctx, id)
	if err != nil {
		return User{}, common.NewAppError("UNAUTHORIZED", "unauthorized", http.StatusUnauthorized, err)
	}
	return toUser(record), nil
}

// ParseAccessToken validates an access token and returns the subject and role.
func (s *Service) ParseAccessToken(token string) (string, string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if algorithm != s.signer {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if err := s.validateToken(parsed); err != nil {
		return "", "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	role := RoleCustomer
	if raw, ok := parsed.Get(roleClaim); ok {
		if v, ok := raw.(string); ok && v != "" {
			role = v
		}
	}
	return parsed.Subject(), role, nil
}

func (s *Service) validateToken(tok jwt.Token) error {
	now := s.now()
	options := []jwt.ValidateOption{
		jwt.WithClock(jwt.ClockFunc(func() time.Time { return now })),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
	}
	if s.clockSkew > 0 {
		options = append(options, jwt.WithAcceptableSkew(s.clockSkew))
	}
	return jwt.Validate(tok, options...)
}

func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}

func (s *Service) issueTokens(ctx context.Context, record store.User) (TokenPair, error) {
	accessToken, accessExpiry, err := s.signAccessToken(record)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access token: %w", err)
	}
	token, hashed, refreshExpiry, err := s.newRefreshToken()
	if err != nil {
		return TokenPair{}, err
	}
	if _, err := s.queries.CreateSession(ctx, store.CreateSessionParams{
		UserID:           record.ID,
		RefreshTokenHash: hashed,
		ExpiresAt:        pgtype.Timestamptz{Time: refreshExpiry, Valid: true},
	}); err != nil {
		return TokenPair{}, fmt.Errorf("create session: %w", err)
	}
	return TokenPair{
		AccessToken:   accessToken,
		AccessExpiry:  accessExpiry,
		RefreshToken:  token,
		RefreshExpiry: refreshExpiry,
	}, nil
}

func (s *Service) signAccessToken(record store.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.accessTTL)
	builder := jwt.NewBuilder().
		Subject(store.UUIDString(record.ID)).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(roleClaim, record.Role)
	token, err := builder.Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

func (s *Service) newRefreshToken() (string, string, time.Time, error) {
	token, err := generateToken(48)
	if err != nil {
		return "", "", time.Time{}, err
	}
	return token, hashRefreshToken(token), s.now().Add(s.refreshTTL), nil
}

func generateToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashRefreshToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func toUser(u store.User) User {
	out := User{
		ID:    store.UUIDString(u.ID),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
	if u.Phone.Valid {
		out.Phone = u.Phone.String
	}
	if u.CreatedAt.Valid {
		out.CreatedAt = u.CreatedAt.Time
	}
	return out
}

func invalidCredentials(err error) error {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, err)
}

func invalidRefresh(err error) error {
	return common.NewAppError("UNAUTHORIZED", "invalid refresh token", http.StatusUnauthorized, err)
}
