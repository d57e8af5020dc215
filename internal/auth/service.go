package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/DevSheroz/glori82-admin/internal/common"
	"github.com/DevSheroz/glori82-admin/internal/obs"
)

const (
	defaultAccessTTL   = 24 * time.Hour
	defaultRememberTTL = 60 * 24 * time.Hour

	roleClaim = "role"
)

// UserStore is the persistence surface the service needs.
type UserStore interface {
	GetByUserName(ctx context.Context, userName string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
}

// Service verifies credentials and issues/parses access tokens.
type Service struct {
	store       UserStore
	secret      []byte
	accessTTL   time.Duration
	rememberTTL time.Duration
	now         func() time.Time
	signer      jwa.SignatureAlgorithm
	validator   TokenValidator
	issuer      string
	audience    string
	clockSkew   time.Duration
}

// Config configures the auth service.
type Config struct {
	Store            UserStore
	Secret           string
	AccessTokenTTL   time.Duration
	RememberTokenTTL time.Duration
	Issuer           string
	Audience         string
	ClockSkew        time.Duration
}

// UserView is the safe subset of the user model returned to clients.
type UserView struct {
	ID        string    `json:"id"`
	UserName  string    `json:"user_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResult bundles the token material returned after a successful login.
type LoginResult struct {
	User        UserView  `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// NewService constructs a Service instance with sane defaults.
func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("auth: store is required")
	}
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, errors.New("auth: secret is required")
	}
	accessTTL := cfg.AccessTokenTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	rememberTTL := cfg.RememberTokenTTL
	if rememberTTL <= 0 {
		rememberTTL = defaultRememberTTL
	}

	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		issuer = "glori82-admin"
	}
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		audience = "glori82-backoffice"
	}
	clockSkew := cfg.ClockSkew
	if clockSkew < 0 {
		clockSkew = 0
	}

	return &Service{
		store:       cfg.Store,
		secret:      []byte(secret),
		accessTTL:   accessTTL,
		rememberTTL: rememberTTL,
		now:         time.Now,
		signer:      jwa.HS256,
		validator: TokenValidator{
			Issuer:         issuer,
			Audience:       audience,
			ClockSkew:      clockSkew,
			Algorithm:      jwa.HS256,
			RequireSubject: true,
		},
		issuer:    issuer,
		audience:  audience,
		clockSkew: clockSkew,
	}, nil
}

// WithNow allows tests to override the time provider.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Login verifies credentials and issues an access token. Remember-me logins
// get the long TTL.
func (s *Service) Login(ctx context.Context, userName, password string, rememberMe bool) (LoginResult, error) {
	name := strings.TrimSpace(userName)
	if name == "" || password == "" {
		return LoginResult{}, invalidCredentials(nil)
	}

	user, err := s.store.GetByUserName(ctx, name)
	if err != nil {
		countLogin("invalid")
		return LoginResult{}, invalidCredentials(err)
	}

	ok, err := argon2id.ComparePasswordAndHash(password, user.PasswordHash)
	if err != nil || !ok {
		countLogin("invalid")
		return LoginResult{}, invalidCredentials(err)
	}

	ttl := s.accessTTL
	if rememberMe {
		ttl = s.rememberTTL
	}
	token, expiresAt, err := s.signAccessToken(user, ttl)
	if err != nil {
		countLogin("error")
		return LoginResult{}, fmt.Errorf("sign access token: %w", err)
	}

	countLogin("ok")
	return LoginResult{
		User:        toView(user),
		AccessToken: token,
		ExpiresAt:   expiresAt,
	}, nil
}

// Me fetches the authenticated user.
func (s *Service) Me(ctx context.Context, userID string) (UserView, error) {
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return UserView{}, common.NewAppError("UNAUTHORIZED", "unauthorized", httpStatusUnauthorized, err)
	}
	user, err := s.store.GetByID(ctx, id)
	if err != nil {
		return UserView{}, common.NewAppError("UNAUTHORIZED", "unauthorized", httpStatusUnauthorized, err)
	}
	return toView(user), nil
}

// ParseAccessToken validates a token and returns the session it carries.
func (s *Service) ParseAccessToken(token string) (common.Session, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return common.Session{}, common.NewAppError("UNAUTHORIZED", "missing token", httpStatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return common.Session{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	if s.validator.Algorithm != "" && algorithm != s.validator.Algorithm {
		return common.Session{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return common.Session{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	if err := s.validator.Validate(parsed, algorithm, s.now()); err != nil {
		return common.Session{}, common.NewAppError("UNAUTHORIZED", "invalid token", httpStatusUnauthorized, err)
	}
	role := ""
	if v, ok := parsed.Get(roleClaim); ok {
		if str, ok := v.(string); ok {
			role = str
		}
	}
	return common.Session{UserID: parsed.Subject(), Role: role}, nil
}

func (s *Service) signAccessToken(user User, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(ttl)
	token, err := jwt.NewBuilder().
		Subject(user.ID.String()).
		JwtID(uuid.NewString()).
		Issuer(s.issuer).
		Audience([]string{s.audience}).
		IssuedAt(now).
		NotBefore(now.Add(-s.clockSkew)).
		Expiration(expiresAt).
		Claim(roleClaim, user.Role).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(s.signer, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
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

func invalidCredentials(err error) error {
	return common.NewAppError("INVALID_CREDENTIALS", "invalid user name or password", httpStatusUnauthorized, err)
}

func countLogin(result string) {
	if obs.LoginTotal != nil {
		obs.LoginTotal.WithLabelValues(result).Inc()
	}
}

func toView(u User) UserView {
	return UserView{
		ID:        u.ID.String(),
		UserName:  u.UserName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

const httpStatusUnauthorized = 401
