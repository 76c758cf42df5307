package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"ayurveda-clinic-backend/internal/converter"
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/internal/domain/repository"
	"ayurveda-clinic-backend/internal/service"
	"ayurveda-clinic-backend/pkg/jwt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// TokenStore is the allow-list of issued tokens.
type TokenStore interface {
	Store(ctx context.Context, kind string, userID uuid.UUID, tokenID string, ttl time.Duration) error
	Exists(ctx context.Context, kind string, userID uuid.UUID, tokenID string) (bool, error)
	Revoke(ctx context.Context, kind string, userID uuid.UUID, tokenIDs ...string) error
}

type AuthUsecase interface {
	RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error)
	RegisterDoctor(ctx context.Context, req *dto.RegisterDoctorRequest) (*dto.UserResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshToken string) error
	RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error)
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type authUsecase struct {
	log          *logrus.Logger
	userRepo     repository.UserRepository
	jwtService   *jwt.JWTService
	tokens       TokenStore
	auditService service.AuditService
}

func NewAuthUsecase(
	log *logrus.Logger,
	userRepo repository.UserRepository,
	jwtService *jwt.JWTService,
	tokens TokenStore,
	auditService service.AuditService,
) AuthUsecase {
	return &authUsecase{
		log:          log,
		userRepo:     userRepo,
		jwtService:   jwtService,
		tokens:       tokens,
		auditService: auditService,
	}
}

func (u *authUsecase) RegisterPatient(ctx context.Context, req *dto.RegisterPatientRequest) (*dto.UserResponse, error) {
	user := &entity.User{
		Email:    normalizeEmail(req.Email),
		FullName: req.FullName,
		Phone:    req.Phone,
		RoleID:   entity.RoleIDPatient,
		IsActive: true,
	}
	return u.register(ctx, user, req.Password)
}

func (u *authUsecase) RegisterDoctor(ctx context.Context, req *dto.RegisterDoctorRequest) (*dto.UserResponse, error) {
	user := &entity.User{
		Email:    normalizeEmail(req.Email),
		FullName: req.FullName,
		Phone:    req.Phone,
		RoleID:   entity.RoleIDDoctor,
		IsActive: true,
		DoctorProfile: &entity.DoctorProfile{
			Specialization:  req.Specialization,
			ExperienceYears: req.ExperienceYears,
			Biography:       req.Biography,
		},
	}
	return u.register(ctx, user, req.Password)
}

// register hashes the password and stores the user (and doctor profile) in one write.
func (u *authUsecase) register(ctx context.Context, user *entity.User, password string) (*dto.UserResponse, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		u.log.Warnf("Failed to hash password: %+v", err)
		return nil, err
	}
	user.Password = string(hashedPassword)

	if err := u.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		u.log.Warnf("Failed to create user: %+v", err)
		return nil, storeError(err)
	}

	u.log.Infof("User registered: id=%s, role=%s", user.ID, entity.RoleName(user.RoleID))
	u.audit(ctx, user.ID, entity.AuditActionUserRegister, map[string]interface{}{"role": entity.RoleName(user.RoleID)})

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := u.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		u.log.Warnf("Failed to find user by email: %+v", err)
		return nil, storeError(err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	tokens, err := u.issueTokens(ctx, user.ID, user.Email, user.RoleID)
	if err != nil {
		return nil, err
	}

	u.audit(ctx, user.ID, entity.AuditActionUserLogin, nil)
	return tokens, nil
}

// Logout revokes the current access token and, when supplied, the refresh token.
func (u *authUsecase) Logout(ctx context.Context, userID uuid.UUID, accessTokenID, refreshToken string) error {
	if err := u.tokens.Revoke(ctx, string(jwt.AccessToken), userID, accessTokenID); err != nil {
		u.log.Warnf("Failed to delete access token: %+v", err)
		return err
	}

	if refreshToken != "" {
		claims, err := u.jwtService.ValidateToken(refreshToken)
		if err == nil && claims.TokenType == jwt.RefreshToken && claims.UserID == userID {
			if err := u.tokens.Revoke(ctx, string(jwt.RefreshToken), userID, claims.TokenID); err != nil {
				u.log.Warnf("Failed to delete refresh token: %+v", err)
				return err
			}
		}
	}

	u.audit(ctx, userID, entity.AuditActionUserLogout, nil)
	return nil
}

// RefreshToken rotates the pair: the presented refresh token is revoked and a new
// access/refresh pair is issued with the user's current role.
func (u *authUsecase) RefreshToken(ctx context.Context, req *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	claims, err := u.jwtService.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != jwt.RefreshToken {
		return nil, ErrInvalidToken
	}

	exists, err := u.tokens.Exists(ctx, string(jwt.RefreshToken), claims.UserID, claims.TokenID)
	if err != nil {
		u.log.Warnf("Failed to check refresh token: %+v", err)
		return nil, err
	}
	if !exists {
		return nil, ErrTokenRevoked
	}

	if err := u.tokens.Revoke(ctx, string(jwt.RefreshToken), claims.UserID, claims.TokenID); err != nil {
		u.log.Warnf("Failed to delete old refresh token: %+v", err)
		return nil, err
	}

	user, err := u.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		u.log.Warnf("Failed to find user %s: %+v", claims.UserID, err)
		return nil, storeError(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return u.issueTokens(ctx, user.ID, user.Email, user.RoleID)
}

func (u *authUsecase) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error) {
	user, err := u.userRepo.FindByID(ctx, userID)
	if err != nil {
		u.log.Warnf("Failed to find user by ID: %+v", err)
		return nil, storeError(err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	return converter.UserToResponse(user), nil
}

func (u *authUsecase) issueTokens(ctx context.Context, userID uuid.UUID, email string, roleID int) (*dto.TokenResponse, error) {
	accessToken, accessTokenID, err := u.jwtService.GenerateAccessToken(userID, email, roleID)
	if err != nil {
		u.log.Warnf("Failed to generate access token: %+v", err)
		return nil, err
	}

	refreshToken, refreshTokenID, err := u.jwtService.GenerateRefreshToken(userID, email, roleID)
	if err != nil {
		u.log.Warnf("Failed to generate refresh token: %+v", err)
		return nil, err
	}

	if err := u.tokens.Store(ctx, string(jwt.AccessToken), userID, accessTokenID, u.jwtService.GetAccessExpiry()); err != nil {
		u.log.Warnf("Failed to store access token in Redis: %+v", err)
		return nil, err
	}
	if err := u.tokens.Store(ctx, string(jwt.RefreshToken), userID, refreshTokenID, u.jwtService.GetRefreshExpiry()); err != nil {
		u.log.Warnf("Failed to store refresh token in Redis: %+v", err)
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(u.jwtService.GetAccessExpiry().Seconds()),
	}, nil
}

func (u *authUsecase) audit(ctx context.Context, userID uuid.UUID, action string, value interface{}) {
	if u.auditService == nil {
		return
	}
	if err := u.auditService.LogCreate(context.WithoutCancel(ctx), &userID, action, "user", userID.String(), value); err != nil {
		u.log.Warnf("Failed to write audit log (non-fatal): %+v", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// storeError maps a timed-out store call to ErrUnavailable.
func storeError(err error) error {
	if errors.Is(err, repository.ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded) {
		return ErrUnavailable
	}
	return err
}
