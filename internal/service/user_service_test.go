package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoicer/internal/middleware"
	"invoicer/internal/model"
)

var testSecret = []byte("test-secret")

func newTestUserService() (*userService, *fakeUserRepo, *fakeAuditRepo) {
	repo := newFakeUserRepo()
	audit := &fakeAuditRepo{}
	svc := NewUserService(repo, audit, fakeTx{}, testSecret).(*userService)
	svc.now = time.Now
	return svc, repo, audit
}

func TestRegisterFirstUserIsAdmin(t *testing.T) {
	svc, repo, audit := newTestUserService()
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if first.Role != model.RoleAdmin {
		t.Errorf("first user role = %q, want admin", first.Role)
	}

	second, err := svc.Register(ctx, RegisterRequest{Username: "bob", Password: "secret2"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if second.Role != model.RoleUser {
		t.Errorf("second user role = %q, want user", second.Role)
	}

	if repo.users["alice"].Password == "secret1" {
		t.Error("password stored in plain text")
	}
	if got := audit.actions(); len(got) != 2 || got[0] != model.ActionRegisterUser {
		t.Errorf("audit actions = %v", got)
	}

	if _, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "another"}); !errors.Is(err, ErrUserExists) {
		t.Errorf("duplicate Register() error = %v, want ErrUserExists", err)
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()
	registered, err := svc.Register(ctx, RegisterRequest{Username: "alice", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{"valid", "alice", "secret1", nil},
		{"wrong password", "alice", "nope", ErrInvalidCredentials},
		{"unknown user", "mallory", "secret1", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.Login(ctx, LoginUserRequest{Username: tt.username, Password: tt.password})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Login() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			claims, err := middleware.ParseToken(resp.Token, testSecret)
			if err != nil {
				t.Fatalf("issued token does not verify: %v", err)
			}
			if claims["sub"] != registered.ID.String() || claims["role"] != model.RoleAdmin {
				t.Errorf("claims = %v", claims)
			}
			exp, err := claims.GetExpirationTime()
			if err != nil || exp == nil {
				t.Fatalf("exp claim missing: %v", err)
			}
			if ttl := time.Until(exp.Time); ttl < TokenTTL-time.Minute || ttl > TokenTTL {
				t.Errorf("token ttl = %v, want about %v", ttl, TokenTTL)
			}
		})
	}
}

func TestGetUserByID(t *testing.T) {
	svc, _, _ := newTestUserService()
	ctx := context.Background()
	registered, err := svc.Register(ctx, RegisterRequest{Username: "alice", Email: "alice@example.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	got, err := svc.GetUserByID(ctx, registered.ID.String())
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.Username != "alice" || got.Email != "alice@example.com" {
		t.Errorf("GetUserByID() = %+v", got)
	}

	if _, err := svc.GetUserByID(ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown id error = %v, want ErrUserNotFound", err)
	}
}
