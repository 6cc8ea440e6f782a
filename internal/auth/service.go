package auth

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/docbot-ai/docbot/internal/common"
	"github.com/docbot-ai/docbot/internal/models"
	"github.com/docbot-ai/docbot/internal/users"
)

// Service wires the credential store, token codec and user directory into the
// register/login/verify/refresh flows.
type Service struct {
	users  *users.Repo
	hasher PasswordHasher
	codec  TokenCodec
	log    *zap.Logger

	maxLoginAttempts int
	tokenTTL         time.Duration
}

func NewService(repo *users.Repo, hasher PasswordHasher, codec TokenCodec, log *zap.Logger, maxLoginAttempts int, tokenTTL time.Duration) *Service {
	if maxLoginAttempts <= 0 {
		maxLoginAttempts = 5
	}
	if tokenTTL <= 0 {
		tokenTTL = 30 * time.Minute
	}
	return &Service{
		users:            repo,
		hasher:           hasher,
		codec:            codec,
		log:              log,
		maxLoginAttempts: maxLoginAttempts,
		tokenTTL:         tokenTTL,
	}
}

func (s *Service) TokenTTL() time.Duration { return s.tokenTTL }

type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     models.Role
}

// Register creates an unverified user. The returned record still carries the
// verification token internally; the json tags keep it out of responses.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	exists, err := s.users.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, common.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	token, err := NewVerificationToken()
	if err != nil {
		return nil, err
	}

	role := in.Role
	if role == "" {
		role = models.RoleUser
	}

	u := &models.User{
		Email:             in.Email,
		FullName:          in.FullName,
		Role:              role,
		Status:            models.StatusActive,
		HashedPassword:    hash,
		IsVerified:        false,
		VerificationToken: &token,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// the unique index catches registrations that raced past EmailExists
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, common.ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("user registered", zap.Uint64("user_id", u.ID), zap.String("email", u.Email))
	return u, nil
}

type LoginResult struct {
	AccessToken string
	ExpiresIn   int
	User        *models.User
}

// Login authenticates by email and password. The suspended and lockout checks
// run before password verification; that ordering is deliberate and matches
// the documented behavior.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	if u.Status == models.StatusSuspended {
		return nil, common.ErrAccountSuspended
	}
	if u.LoginAttempts >= s.maxLoginAttempts {
		return nil, common.ErrTooManyAttempts
	}

	if !s.hasher.Verify(password, u.HashedPassword) {
		if _, err := s.users.IncrementLoginAttempts(ctx, email); err != nil {
			s.log.Error("increment login attempts", zap.String("email", email), zap.Error(err))
		}
		return nil, common.ErrInvalidCredentials
	}

	if _, err := s.users.RecordSuccessfulLogin(ctx, u.ID); err != nil {
		return nil, err
	}

	token, err := s.codec.Issue(u.ID, s.tokenTTL)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u.LastLogin = &now
	u.LoginAttempts = 0

	s.log.Info("user authenticated", zap.Uint64("user_id", u.ID))
	return &LoginResult{
		AccessToken: token,
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		User:        u,
	}, nil
}

// VerifyEmail consumes a verification token. The token is cleared on success,
// so a second call with the same value fails.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	u, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.ErrVerificationToken
		}
		return err
	}

	ok, err := s.users.MarkVerified(ctx, u.ID)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrVerificationToken
	}

	s.log.Info("email verified", zap.Uint64("user_id", u.ID))
	return nil
}

// Refresh issues a new token for the same subject. The old token stays valid
// until its own expiry; there is no revocation.
func (s *Service) Refresh(ctx context.Context, userID uint64) (string, error) {
	return s.codec.Issue(userID, s.tokenTTL)
}

// ResolvePrincipal validates a bearer token and loads the user it names.
func (s *Service) ResolvePrincipal(ctx context.Context, token string) (*models.User, error) {
	sub, err := s.codec.Validate(token)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	u, err := s.users.GetByID(ctx, sub)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}
