package jwt

import (
	"errors"
	"fmt"
	"time"

	"ayurveda-clinic-backend/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "ayurveda-clinic"

// leeway tolerates clock skew between API instances.
const leeway = 30 * time.Second

// ErrInvalidToken wraps every parse or verification failure.
var ErrInvalidToken = errors.New("invalid token")

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

type Claims struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	RoleID    int       `json:"role_id"`
	TokenType TokenType `json:"token_type"`
	TokenID   string    `json:"token_id"`
	jwt.RegisteredClaims
}

// JWTService issues and verifies HS256 tokens. Each token carries a random id that
// the allow-list in Redis is keyed by.
type JWTService struct {
	config config.JWTConfig
	parser *jwt.Parser
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	return &JWTService{
		config: cfg,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(leeway),
		),
	}
}

func (s *JWTService) GenerateAccessToken(userID uuid.UUID, email string, roleID int) (string, string, error) {
	return s.generate(AccessToken, s.config.AccessExpiry, userID, email, roleID)
}

func (s *JWTService) GenerateRefreshToken(userID uuid.UUID, email string, roleID int) (string, string, error) {
	return s.generate(RefreshToken, s.config.RefreshExpiry, userID, email, roleID)
}

// generate returns the signed token and its id.
func (s *JWTService) generate(kind TokenType, ttl time.Duration, userID uuid.UUID, email string, roleID int) (string, string, error) {
	now := time.Now()
	tokenID := uuid.NewString()
	claims := Claims{
		UserID:    userID,
		Email:     email,
		RoleID:    roleID,
		TokenType: kind,
		TokenID:   tokenID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Issuer:    issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, tokenID, nil
}

// ValidateToken verifies signature, issuer and expiry. It does not check the token
// type or the allow-list; callers do.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.TokenID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *JWTService) GetAccessExpiry() time.Duration {
	return s.config.AccessExpiry
}

func (s *JWTService) GetRefreshExpiry() time.Duration {
	return s.config.RefreshExpiry
}
