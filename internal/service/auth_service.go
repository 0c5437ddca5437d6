package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/teacher-ratings-api/internal/models"
	"github.com/noah-isme/teacher-ratings-api/pkg/config"
	appErrors "github.com/noah-isme/teacher-ratings-api/pkg/errors"
)

// Authenticator verifies administrator credentials and the tokens handed out for them.
type Authenticator interface {
	ValidateCredentials(ctx context.Context, username, password string) error
	IssueToken(ctx context.Context, username string) (string, *time.Time, error)
	ValidateToken(ctx context.Context, token string) (*models.AdminClaims, error)
}

// StaticAuthenticator accepts one fixed username/password pair and one fixed token.
type StaticAuthenticator struct {
	username string
	password string
	token    string
}

// NewStaticAuthenticator constructs a StaticAuthenticator.
func NewStaticAuthenticator(username, password, token string) *StaticAuthenticator {
	return &StaticAuthenticator{username: username, password: password, token: token}
}

// ValidateCredentials compares both values in constant time.
func (a *StaticAuthenticator) ValidateCredentials(ctx context.Context, username, password string) error {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	if !userOK || !passOK || a.username == "" {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, appErrors.ErrInvalidCredentials.Message)
	}
	return nil
}

// IssueToken returns the configured token. It never expires.
func (a *StaticAuthenticator) IssueToken(ctx context.Context, username string) (string, *time.Time, error) {
	return a.token, nil, nil
}

// ValidateToken accepts only the configured token.
func (a *StaticAuthenticator) ValidateToken(ctx context.Context, token string) (*models.AdminClaims, error) {
	if a.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) != 1 {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, appErrors.ErrUnauthorized.Message)
	}
	return &models.AdminClaims{Username: a.username}, nil
}

// JWTConfig configures signed admin tokens.
type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// JWTAuthenticator checks a bcrypt password hash and issues HS256 tokens.
type JWTAuthenticator struct {
	username     string
	passwordHash []byte
	config       JWTConfig
	now          func() time.Time
}

// NewJWTAuthenticator constructs a JWTAuthenticator from a bcrypt hash.
func NewJWTAuthenticator(username, passwordHash string, cfg JWTConfig) *JWTAuthenticator {
	if cfg.Expiration <= 0 {
		cfg.Expiration = 24 * time.Hour
	}
	return &JWTAuthenticator{username: username, passwordHash: []byte(passwordHash), config: cfg, now: time.Now}
}

// ValidateCredentials checks the username and bcrypt hash.
func (a *JWTAuthenticator) ValidateCredentials(ctx context.Context, username, password string) error {
	if subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) != 1 {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, appErrors.ErrInvalidCredentials.Message)
	}
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, appErrors.ErrInvalidCredentials.Message)
	}
	return nil
}

// IssueToken signs a token for username.
func (a *JWTAuthenticator) IssueToken(ctx context.Context, username string) (string, *time.Time, error) {
	issuedAt := a.now().UTC()
	expiresAt := issuedAt.Add(a.config.Expiration)
	claims := &models.AdminClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.config.Issuer,
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.config.Secret))
	if err != nil {
		return "", nil, err
	}
	return signed, &expiresAt, nil
}

// ValidateToken parses and verifies a signed token.
func (a *JWTAuthenticator) ValidateToken(ctx context.Context, tokenString string) (*models.AdminClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(a.config.Secret), nil
	}, jwt.WithIssuer(a.config.Issuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, appErrors.ErrUnauthorized.Message)
	}
	claims, ok := token.Claims.(*models.AdminClaims)
	if !ok || !token.Valid || claims.Username != a.username {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, appErrors.ErrUnauthorized.Message)
	}
	return claims, nil
}

// NewAuthenticator picks the implementation named by cfg.AuthMode.
func NewAuthenticator(cfg config.AdminConfig, jwtCfg config.JWTConfig) (Authenticator, error) {
	switch cfg.AuthMode {
	case "", config.AuthModeStatic:
		return NewStaticAuthenticator(cfg.Username, cfg.Password, cfg.Token), nil
	case config.AuthModeJWT:
		hash := cfg.PasswordHash
		if hash == "" {
			generated, err := bcrypt.GenerateFromPassword([]byte(cfg.Password), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash admin password: %w", err)
			}
			hash = string(generated)
		}
		return NewJWTAuthenticator(cfg.Username, hash, JWTConfig{
			Secret:     jwtCfg.Secret,
			Expiration: jwtCfg.Expiration,
			Issuer:     jwtCfg.Issuer,
		}), nil
	default:
		return nil, fmt.Errorf("unknown admin auth mode %q", cfg.AuthMode)
	}
}

// AuthService provides the admin login use case.
type AuthService struct {
	auth      Authenticator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(auth Authenticator, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{auth: auth, validator: validate, logger: logger}
}

// Login authenticates the administrator and returns a token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidCredentials.Code, appErrors.ErrInvalidCredentials.Status, appErrors.ErrInvalidCredentials.Message)
	}
	if err := s.auth.ValidateCredentials(ctx, req.Username, req.Password); err != nil {
		s.logger.Warn("admin login rejected", zap.String("username", req.Username), zap.String("ip", req.IP))
		return nil, err
	}
	token, expiresAt, err := s.auth.IssueToken(ctx, req.Username)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create token")
	}
	s.logger.Info("admin logged in", zap.String("username", req.Username), zap.String("ip", req.IP))
	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt}, nil
}

// Authenticator exposes the configured authenticator for middleware wiring.
func (s *AuthService) Authenticator() Authenticator {
	return s.auth
}
