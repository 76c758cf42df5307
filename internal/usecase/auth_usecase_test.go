package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ayurveda-clinic-backend/config"
	"ayurveda-clinic-backend/internal/delivery/dto"
	"ayurveda-clinic-backend/internal/domain/entity"
	"ayurveda-clinic-backend/pkg/jwt"

	"github.com/google/uuid"
)

type fakeTokenStore struct {
	mu     sync.Mutex
	tokens map[string]bool
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{tokens: make(map[string]bool)}
}

func tokenKey(kind string, userID uuid.UUID, tokenID string) string {
	return kind + ":" + userID.String() + ":" + tokenID
}

func (s *fakeTokenStore) Store(ctx context.Context, kind string, userID uuid.UUID, tokenID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[tokenKey(kind, userID, tokenID)] = true
	return nil
}

func (s *fakeTokenStore) Exists(ctx context.Context, kind string, userID uuid.UUID, tokenID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens[tokenKey(kind, userID, tokenID)], nil
}

func (s *fakeTokenStore) Revoke(ctx context.Context, kind string, userID uuid.UUID, tokenIDs ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range tokenIDs {
		delete(s.tokens, tokenKey(kind, userID, id))
	}
	return nil
}

type authFixture struct {
	uc     AuthUsecase
	users  *fakeUserRepo
	tokens *fakeTokenStore
	jwt    *jwt.JWTService
}

func newAuthFixture() *authFixture {
	users := newFakeUserRepo()
	tokens := newFakeTokenStore()
	jwtService := jwt.NewJWTService(config.JWTConfig{
		Secret:        "test-secret",
		AccessExpiry:  15 * time.Minute,
		RefreshExpiry: time.Hour,
	})
	return &authFixture{
		uc:     NewAuthUsecase(quietLogger(), users, jwtService, tokens, nil),
		users:  users,
		tokens: tokens,
		jwt:    jwtService,
	}
}

func (f *authFixture) registerPatient(t *testing.T, email string) *dto.UserResponse {
	t.Helper()
	res, err := f.uc.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:    email,
		Password: "secret123",
		FullName: "Asha Nair",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return res
}

func TestRegisterPatient_NormalizesEmailAndRejectsDuplicates(t *testing.T) {
	f := newAuthFixture()

	res := f.registerPatient(t, "  Asha@Example.com ")
	if res.Email != "asha@example.com" || res.Role != "patient" {
		t.Fatalf("unexpected response %+v", res)
	}

	_, err := f.uc.RegisterPatient(context.Background(), &dto.RegisterPatientRequest{
		Email:    "asha@example.com",
		Password: "another1",
		FullName: "Someone Else",
	})
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("expected ErrEmailAlreadyExists, got %v", err)
	}
}

func TestRegisterDoctor_CreatesProfile(t *testing.T) {
	f := newAuthFixture()

	res, err := f.uc.RegisterDoctor(context.Background(), &dto.RegisterDoctorRequest{
		Email:           "rao@example.com",
		Password:        "secret123",
		FullName:        "Dr. Rao",
		Specialization:  "Panchakarma",
		ExperienceYears: 12,
	})
	if err != nil {
		t.Fatalf("register doctor: %v", err)
	}
	if res.Role != "doctor" || res.DoctorProfile == nil || res.DoctorProfile.Specialization != "Panchakarma" {
		t.Fatalf("unexpected response %+v", res)
	}
}

func TestLogin_IssuesStoredTokens(t *testing.T) {
	f := newAuthFixture()
	user := f.registerPatient(t, "asha@example.com")

	tokens, err := f.uc.Login(context.Background(), &dto.LoginRequest{Email: "ASHA@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tokens.ExpiresIn != int64((15 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expiry %d", tokens.ExpiresIn)
	}

	claims, err := f.jwt.ValidateToken(tokens.AccessToken)
	if err != nil {
		t.Fatalf("access token invalid: %v", err)
	}
	if claims.UserID != user.ID || claims.RoleID != entity.RoleIDPatient {
		t.Fatalf("unexpected claims %+v", claims)
	}
	ok, _ := f.tokens.Exists(context.Background(), string(jwt.AccessToken), user.ID, claims.TokenID)
	if !ok {
		t.Fatalf("access token should be allow-listed")
	}
}

func TestLogin_Failures(t *testing.T) {
	f := newAuthFixture()
	user := f.registerPatient(t, "asha@example.com")

	cases := []struct {
		name  string
		email string
		pass  string
		want  error
	}{
		{"unknown email", "nobody@example.com", "secret123", ErrInvalidCredentials},
		{"wrong password", "asha@example.com", "wrong-pass", ErrInvalidCredentials},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.uc.Login(context.Background(), &dto.LoginRequest{Email: tc.email, Password: tc.pass})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}

	f.users.users[user.ID].IsActive = false
	_, err := f.uc.Login(context.Background(), &dto.LoginRequest{Email: "asha@example.com", Password: "secret123"})
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestRefreshToken_RotatesAndRejectsReuse(t *testing.T) {
	f := newAuthFixture()
	f.registerPatient(t, "asha@example.com")

	first, err := f.uc.Login(context.Background(), &dto.LoginRequest{Email: "asha@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: first.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("refresh token should rotate")
	}

	if _, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: first.RefreshToken}); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("reused refresh token: expected ErrTokenRevoked, got %v", err)
	}
	if _, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: second.AccessToken}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("access token as refresh: expected ErrInvalidToken, got %v", err)
	}
	if _, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: "garbage"}); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: expected ErrInvalidToken, got %v", err)
	}
}

func TestLogout_RevokesBothTokens(t *testing.T) {
	f := newAuthFixture()
	user := f.registerPatient(t, "asha@example.com")

	tokens, err := f.uc.Login(context.Background(), &dto.LoginRequest{Email: "asha@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	access, _ := f.jwt.ValidateToken(tokens.AccessToken)

	if err := f.uc.Logout(context.Background(), user.ID, access.TokenID, tokens.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(f.tokens.tokens) != 0 {
		t.Fatalf("expected all tokens revoked, %d left", len(f.tokens.tokens))
	}
	if _, err := f.uc.RefreshToken(context.Background(), &dto.RefreshTokenRequest{RefreshToken: tokens.RefreshToken}); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("expected ErrTokenRevoked after logout, got %v", err)
	}
}

func TestGetCurrentUser_NotFound(t *testing.T) {
	f := newAuthFixture()

	if _, err := f.uc.GetCurrentUser(context.Background(), uuid.New()); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
