package auth

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
	"github.com/vladislavdragonenkov/appliances/internal/metrics"
)

// CredentialStore разрешает пользователя по email вместе с хешем пароля.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (domain.Identity, error)
}

// LoginResult — результат успешного входа.
type LoginResult struct {
	Token    Token
	Identity domain.Identity
}

// Service выполняет вход: проверка блокировки, пароля и выпуск токена.
type Service struct {
	users   CredentialStore
	encoder PasswordEncoder
	issuer  *TokenIssuer
	limiter *LoginLimiter
	metrics *metrics.AuthMetrics
	logger  *log.Entry
}

// NewService создаёт сервис входа. metrics и logger могут быть nil.
func NewService(users CredentialStore, encoder PasswordEncoder, issuer *TokenIssuer, limiter *LoginLimiter, m *metrics.AuthMetrics, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "auth-service")
	}
	return &Service{
		users:   users,
		encoder: encoder,
		issuer:  issuer,
		limiter: limiter,
		metrics: m,
		logger:  logger,
	}
}

// Login проверяет учётные данные. Заблокированный email даёт ErrTooManyAttempts,
// неверные учётные данные — ErrUnauthenticated без уточнения причины.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	key := domain.NormalizeEmail(email)

	blocked, err := s.limiter.Blocked(ctx, key)
	if err != nil {
		return LoginResult{}, err
	}
	if blocked {
		s.record(metrics.LoginBlocked)
		s.logger.WithField("email", key).Warn("login blocked after too many failed attempts")
		return LoginResult{}, domain.ErrTooManyAttempts
	}

	identity, err := s.users.FindByEmail(ctx, key)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}
	if err != nil || !s.encoder.Matches(identity.User().PasswordHash, password) {
		if failErr := s.limiter.Failed(ctx, key); failErr != nil {
			s.logger.WithError(failErr).Warn("failed to record login failure")
		}
		s.record(metrics.LoginFailure)
		return LoginResult{}, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthenticated)
	}

	if err := s.limiter.Succeeded(ctx, key); err != nil {
		s.logger.WithError(err).Warn("failed to reset login attempts")
	}

	token, err := s.issuer.Issue(identity)
	if err != nil {
		return LoginResult{}, err
	}
	s.record(metrics.LoginSuccess)
	s.logger.WithFields(log.Fields{
		"user_id": identity.ID(),
		"role":    identity.Role(),
	}).Info("user logged in")
	return LoginResult{Token: token, Identity: identity}, nil
}

// Authenticate разрешает bearer-токен в идентичность пользователя.
// Пользователь, удалённый после выпуска токена, не проходит проверку.
func (s *Service) Authenticate(ctx context.Context, bearer string) (domain.Identity, error) {
	claims, err := s.issuer.Parse(bearer)
	if err != nil {
		return domain.Identity{}, err
	}
	identity, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Identity{}, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthenticated)
		}
		return domain.Identity{}, err
	}
	return identity, nil
}

func (s *Service) record(result string) {
	if s.metrics != nil {
		s.metrics.RecordLogin(result)
	}
}
