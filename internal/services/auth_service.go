package services

import (
	"context"
	"time"

	"agroguide_backend/internal/auth"
	"agroguide_backend/internal/dto"
	"agroguide_backend/internal/logger"
	"agroguide_backend/internal/models"
	"agroguide_backend/internal/repositories"
	"agroguide_backend/internal/services/subscription"
	"agroguide_backend/pkg/apperrors"
)

type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
}

type authService struct {
	users repositories.UserRepository
}

func NewAuthService(users repositories.UserRepository) AuthService {
	return &authService{users: users}
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.LoginResponse, error) {
	if err := auth.ValidatePassword(req.Password); err != nil {
		return nil, apperrors.NewBadRequestError(err.Error())
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, apperrors.New(apperrors.CodeAlreadyExists, "auth", "Email already registered", 409)
	} else if err != repositories.ErrUserNotFound {
		return nil, apperrors.InternalError(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	user := &models.User{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Phone:        req.Phone,
		Role:         models.UserRoleUser,
		Status:       models.UserStatusActive,
		FarmLocation: req.FarmLocation,
		FarmSize:     req.FarmSize,
		// New accounts start on the free plan; a verified payment is the
		// only way onto a paid one.
		Subscription: models.Subscription{
			Plan:   models.PlanFree,
			Status: models.SubscriptionStatusFree,
		},
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "auth", "Failed to create user", 500)
	}

	logger.CtxInfo(ctx, "user registered", "user_id", user.ID, "email", user.Email)
	return s.buildLoginResponse(user)
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.ErrInvalidCredentials()
		}
		return nil, apperrors.InternalError(err)
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials()
	}
	if user.Status != models.UserStatusActive {
		return nil, apperrors.NewUnauthorizedError("Account is not active")
	}

	return s.buildLoginResponse(user)
}

func (s *authService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if err == repositories.ErrUserNotFound {
			return nil, apperrors.ErrNotFound(err)
		}
		return nil, apperrors.InternalError(err)
	}
	return user, nil
}

func (s *authService) buildLoginResponse(user *models.User) (*dto.LoginResponse, error) {
	token, err := auth.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	status := subscription.Evaluate(user.Subscription, time.Now())
	return &dto.LoginResponse{
		Token:        token,
		UserID:       user.ID,
		Email:        user.Email,
		FirstName:    user.FirstName,
		Role:         string(user.Role),
		Subscription: dto.NewSubscriptionSnapshot(&user.Subscription, status),
	}, nil
}
