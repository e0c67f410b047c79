package service

//go:generate mockgen -destination=../../mocks/mock_user_repository.go -package=mocks github.com/piyush1222p/Samadhan-Kendra/internal/identity/domain UserRepository

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	apperr "github.com/piyush1222p/Samadhan-Kendra/internal/errors"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/domain"
	"github.com/piyush1222p/Samadhan-Kendra/internal/identity/dto"
	"github.com/piyush1222p/Samadhan-Kendra/pkg/constant"
)

// dummyHash is a valid bcrypt digest compared against when the looked-up
// email has no account, so that login failures for unknown emails and wrong
// passwords take the same time and return the same error.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

var validate = validator.New()

type UserService struct {
	repo        domain.UserRepository
	tokens      TokenGenerator
	log         *zap.Logger
	bcryptCost  int
	upvoteAward int
}

func NewUserService(repo domain.UserRepository, tokens TokenGenerator, log *zap.Logger, bcryptCost int) *UserService {
	if log == nil {
		log = zap.NewNop()
	}
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}

	return &UserService{
		repo:        repo,
		tokens:      tokens,
		log:         log,
		bcryptCost:  bcryptCost,
		upvoteAward: constant.UpvoteAward,
	}
}

func (s *UserService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	// Normalize first so validation sees the canonical form; padded or
	// mixed-case emails are accepted, not rejected by the format check.
	input.Email = domain.NormalizeEmail(input.Email)

	if err := validate.Struct(&input); err != nil {
		return nil, apperr.ErrMissingFields
	}

	email := input.Email

	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.ErrEmailAlreadyInUse
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        email,
		City:         input.City,
		Phone:        input.Phone,
		PasswordHash: string(hashed),
		Points:       0,
		Joined:       time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, user); err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID))

	return &dto.AuthResponse{
		User:         toUserOutput(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *UserService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	email := domain.NormalizeEmail(input.Identity())

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user == nil {
		// Burn the same hashing cost as a real comparison so unknown emails
		// are indistinguishable from wrong passwords.
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(input.Password))
		return nil, apperr.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, apperr.ErrInvalidCredentials
	}

	accessToken, refreshToken, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID))

	return &dto.AuthResponse{
		User:         toUserOutput(user),
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Refresh verifies the presented refresh token, re-resolves the subject and
// mints a rotated token pair.
func (s *UserService) Refresh(ctx context.Context, input dto.RefreshInput) (*dto.TokenResponse, error) {
	claims, err := s.tokens.VerifyRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, apperr.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrInvalidToken
	}

	accessToken, refreshToken, err := s.tokens.Generate(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *UserService) CurrentUser(ctx context.Context, userID string) (*dto.UserOutput, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrUserNotFound
	}

	out := toUserOutput(user)

	return &out, nil
}

// Redeem debits cost points from the user's balance. The balance is left
// untouched when it cannot cover the cost.
func (s *UserService) Redeem(ctx context.Context, userID string, cost int) (int, error) {
	if cost < 0 {
		cost = 0
	}

	newBalance, err := s.repo.AdjustPoints(ctx, userID, -cost)
	if err != nil {
		return 0, err
	}

	s.log.Info("points redeemed",
		zap.String("user_id", userID),
		zap.Int("cost", cost),
		zap.Int("new_balance", newBalance))

	return newBalance, nil
}

// AwardUpvote credits the fixed upvote award. Repeated upvotes for the same
// issue keep crediting; there is no per-issue dedup.
func (s *UserService) AwardUpvote(ctx context.Context, userID string) (int, error) {
	newBalance, err := s.repo.AdjustPoints(ctx, userID, s.upvoteAward)
	if err != nil {
		return 0, err
	}

	s.log.Info("upvote awarded",
		zap.String("user_id", userID),
		zap.Int("new_balance", newBalance))

	return newBalance, nil
}

func toUserOutput(user *domain.User) dto.UserOutput {
	return dto.UserOutput{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
		City:      user.City,
		Phone:     user.Phone,
		Points:    user.Points,
	}
}
