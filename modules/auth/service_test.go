package auth

import (
	"context"
	"testing"

	domain "github.com/example/taskboard/domain/user"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestService creates an auth service over an in-memory SQLite database.
func setupTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return NewService(NewUserRepository(db), NewPasswordHasherWithCost(bcrypt.MinCost), NewJWTManager(testJWTConfig()))
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, "al", "a@x.com", "p")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID == "" {
		t.Error("Register() returned user with empty ID")
	}
	if user.Username != "al" || user.Email != "a@x.com" {
		t.Errorf("Register() user = %s/%s, want al/a@x.com", user.Username, user.Email)
	}
	if user.PasswordHash == "p" {
		t.Error("Register() stored the plaintext password")
	}

	pair, err := svc.Login(ctx, "a@x.com", "p")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("Login() returned empty tokens")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("pair.TokenType = %q, want Bearer", pair.TokenType)
	}

	claims, err := svc.ValidateToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims.UserID = %q, want %q", claims.UserID, user.ID)
	}
	if claims.Username != "al" {
		t.Errorf("claims.Username = %q, want al", claims.Username)
	}
}

func TestService_RegisterValidation(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}

	tests := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{name: "missing username", username: "", email: "a@x.com", password: "p", wantErr: ErrUsernameRequired},
		{name: "invalid email", username: "al", email: "not-an-email", password: "p", wantErr: ErrInvalidEmail},
		{name: "missing password", username: "al", email: "a@x.com", password: "", wantErr: ErrPasswordRequired},
		{name: "password over bcrypt limit", username: "al", email: "a@x.com", password: string(long), wantErr: ErrPasswordTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.username, tt.email, tt.password)
			if err != tt.wantErr {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "al", "a@x.com", "p"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := svc.Register(ctx, "bo", "a@x.com", "q"); err != ErrUserExists {
		t.Errorf("Register() duplicate email: error = %v, want ErrUserExists", err)
	}
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "al", "a@x.com", "p"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if _, err := svc.Login(ctx, "a@x.com", "wrong"); err != ErrInvalidCredentials {
		t.Errorf("Login() wrong password: error = %v, want ErrInvalidCredentials", err)
	}
	// Unknown email is indistinguishable from a bad password
	if _, err := svc.Login(ctx, "nobody@x.com", "p"); err != ErrInvalidCredentials {
		t.Errorf("Login() unknown email: error = %v, want ErrInvalidCredentials", err)
	}
}

func TestService_RefreshTokens(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "al", "a@x.com", "p"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	pair, err := svc.Login(ctx, "a@x.com", "p")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	fresh, err := svc.RefreshTokens(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshTokens() error = %v", err)
	}
	if fresh.AccessToken == "" {
		t.Error("RefreshTokens() returned empty access token")
	}

	// An access token must not work as a refresh token
	if _, err := svc.RefreshTokens(ctx, pair.AccessToken); err == nil {
		t.Error("RefreshTokens(access token) expected error, got nil")
	}
}

func TestService_ListUsers(t *testing.T) {
	svc := setupTestService(t)
	ctx := context.Background()

	for _, u := range []struct{ name, email string }{
		{"zed", "z@x.com"},
		{"al", "a@x.com"},
	} {
		if _, err := svc.Register(ctx, u.name, u.email, "p"); err != nil {
			t.Fatalf("Register(%s) error = %v", u.name, err)
		}
	}

	users, err := svc.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("ListUsers() returned %d users, want 2", len(users))
	}
	if users[0].Username != "al" || users[1].Username != "zed" {
		t.Errorf("ListUsers() order = %s, %s; want al, zed", users[0].Username, users[1].Username)
	}
}
