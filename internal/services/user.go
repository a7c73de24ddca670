package service

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/parfumarie/ecommerce-backend/internal/config"
	"github.com/parfumarie/ecommerce-backend/internal/errors"
	"github.com/parfumarie/ecommerce-backend/internal/models"
	repository "github.com/parfumarie/ecommerce-backend/internal/repositories"
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userService struct {
	userRepo  repository.UserRepository
	rateLimit repository.RateLimitRepository
	cfg       *config.Config
}

func NewUserService(userRepo repository.UserRepository, rateLimit repository.RateLimitRepository, cfg *config.Config) UserService {
	return &userService{userRepo: userRepo, rateLimit: rateLimit, cfg: cfg}
}

func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.InternalError("Failed to hash password").WithError(err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if isUniqueViolation(err) {
			return nil, errors.DuplicateEntryError("An account with this email already exists").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to create user").WithError(err)
	}

	return user, nil
}

func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	allowed, remaining, retryAfter, err := s.rateLimit.CheckLoginRateLimit(ctx, req.Email)
	if err != nil {
		return nil, errors.InternalError("Failed to check rate limit").WithError(err)
	}

	if !allowed {
		resp := &models.LoginResponse{
			Success:    false,
			Message:    "Too many login attempts, try again later",
			RetryAfter: retryAfter,
		}

		return resp, errors.TooManyRequestsError(resp.Message)
	}

	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.UnauthorizedError("Invalid email or password")
		}

		return nil, errors.DatabaseError("Failed to look up user").WithError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return &models.LoginResponse{
			Success:        false,
			Message:        "Invalid email or password",
			RemainingTries: remaining,
		}, errors.UnauthorizedError("Invalid email or password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, errors.InternalError("Failed to issue session token").WithError(err)
	}

	return &models.LoginResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     token,
		ExpiresIn: int(s.cfg.Security.SessionTTL.Seconds()),
	}, nil
}

func (s *userService) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("User not found").WithError(err)
		}

		return nil, errors.DatabaseError("Failed to retrieve user").WithError(err)
	}

	return user, nil
}

func (s *userService) issueToken(user *models.User) (string, error) {
	now := time.Now()

	claims := &models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Security.SessionTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.cfg.Security.JWTKey))
}
