// Package services contains the identity core: the registration and
// verification state machine, the authenticator, and the lookup service.
package services

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/identia/apiserver/config"
	"github.com/identia/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// EmailPlaceholder is returned from Search instead of an unverified address.
const EmailPlaceholder = "Not verified"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByNickname(ctx context.Context, nickname string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	MarkVerified(ctx context.Context, id int) error
	Delete(ctx context.Context, id int) error
}

// Notifier delivers a verification code to an email address out-of-band.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string) error
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token    string
	UserID   int
	Nickname string
}

// UserService encapsulates the identity use-cases: register, verify,
// login, and search.
type UserService struct {
	repo     UserRepository
	notifier Notifier
	secret   []byte
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewUserService constructs a UserService. The signing secret and token
// lifetime are injected here rather than read from ambient state.
func NewUserService(repo UserRepository, notifier Notifier, cfg config.TokenConfig, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:     repo,
		notifier: notifier,
		secret:   []byte(cfg.Secret),
		tokenTTL: cfg.TTL,
		logger:   logger,
	}
}

// Register creates an unverified user and sends the verification code.
// When the notifier fails, the just-created row is deleted again so a
// later registration with the same email or nickname starts clean.
func (s *UserService) Register(ctx context.Context, email, nickname, password string) (types.User, error) {
	email = strings.TrimSpace(email)
	nickname = strings.TrimSpace(nickname)
	if email == "" || nickname == "" || password == "" {
		return types.User{}, ErrValidation
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	code := newVerificationCode()
	user, err := s.repo.Create(ctx, types.User{
		Email:        email,
		Nickname:     nickname,
		PasswordHash: string(hashed),
		PendingCode:  code,
	})
	if err != nil {
		return types.User{}, err
	}

	if err := s.notifier.SendVerificationCode(ctx, email, code); err != nil {
		s.logger.Error("verification mail failed, rolling back registration",
			"user_id", user.ID, "error", err)
		if delErr := s.repo.Delete(ctx, user.ID); delErr != nil {
			s.logger.Error("rollback delete failed", "user_id", user.ID, "error", delErr)
		}
		return types.User{}, ErrDelivery
	}

	return user, nil
}

// Verify consumes a pending verification code. The transition to verified
// is terminal; there is no resend, expiry, or de-verification path.
func (s *UserService) Verify(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(email)
	if email == "" || code == "" {
		return ErrValidation
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Verified {
		return ErrAlreadyVerified
	}
	if user.PendingCode != code {
		return ErrInvalidCode
	}

	return s.repo.MarkVerified(ctx, user.ID)
}

// Login checks credentials and issues a signed bearer token. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, ErrInvalidCredentials
	}

	if !user.Verified {
		return LoginResult{}, ErrNotVerified
	}

	token, err := IssueToken(user.ID, s.secret, s.tokenTTL)
	if err != nil {
		return LoginResult{}, err
	}

	return LoginResult{
		Token:    token,
		UserID:   user.ID,
		Nickname: user.Nickname,
	}, nil
}

// Search resolves a user by numeric id or by nickname, exact match only.
// Unverified users get the email placeholder so an address is never
// leaked before its owner proved it.
func (s *UserService) Search(ctx context.Context, query string) (types.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.UserSummary{}, ErrValidation
	}

	var (
		user types.User
		err  error
	)
	if id, convErr := strconv.Atoi(query); convErr == nil {
		user, err = s.repo.GetByID(ctx, id)
	} else {
		user, err = s.repo.GetByNickname(ctx, query)
	}
	if err != nil {
		return types.UserSummary{}, err
	}

	summary := types.UserSummary{
		ID:       user.ID,
		Nickname: user.Nickname,
		Email:    user.Email,
	}
	if !user.Verified {
		summary.Email = EmailPlaceholder
	}
	return summary, nil
}

// GetByID loads a user by id. Used by the /me endpoint after token auth.
func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}
