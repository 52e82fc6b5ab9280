package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mercadolocal/mercados-backend/pkg/config"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.IdentityConfig{
		URL:            srv.URL,
		AnonKey:        "anon",
		ServiceRoleKey: "service",
		Timeout:        2 * time.Second,
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestNewClientRequiresConfig(t *testing.T) {
	if _, err := NewClient(config.IdentityConfig{AnonKey: "a", ServiceRoleKey: "s"}); err == nil {
		t.Fatal("expected error without url")
	}
	if _, err := NewClient(config.IdentityConfig{URL: "https://idp.example.com"}); err == nil {
		t.Fatal("expected error without keys")
	}
}

func TestVerifySuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/user" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-123" {
			t.Fatalf("unexpected auth header %q", got)
		}
		if got := r.Header.Get("apikey"); got != "anon" {
			t.Fatalf("unexpected apikey %q", got)
		}
		json.NewEncoder(w).Encode(User{
			ID:           "u-1",
			Email:        "ana@x.com",
			UserMetadata: Metadata{Name: "Ana"},
		})
	})

	user, err := client.Verify(context.Background(), "tok-123")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if user.ID != "u-1" || user.DisplayName() != "Ana" {
		t.Fatalf("unexpected user %+v", user)
	}
}

func TestVerifyRejectedToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"msg": "invalid JWT"})
	})

	_, err := client.Verify(context.Background(), "bad")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyEmptyToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})
	if _, err := client.Verify(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank token")
	}
}

func TestDisplayNameFallsBackToEmail(t *testing.T) {
	u := &User{Email: "ana@x.com"}
	if got := u.DisplayName(); got != "ana@x.com" {
		t.Fatalf("expected email fallback, got %q", got)
	}
}

func TestAdminCreateUserSendsServiceRole(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/v1/admin/users" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "service" {
			t.Fatalf("expected service role key, got %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload["email_confirm"] != true {
			t.Fatalf("expected email_confirm true, got %v", payload["email_confirm"])
		}
		json.NewEncoder(w).Encode(User{ID: "u-9", Email: payload["email"].(string)})
	})

	user, err := client.AdminCreateUser(context.Background(), CreateUserParams{
		Email:    "ana@x.com",
		Password: "secret1",
		Name:     "Ana",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if user.ID != "u-9" {
		t.Fatalf("unexpected user id %q", user.ID)
	}
}

func TestAdminCreateUserDuplicateEmailSurfacesMessage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"msg": "User already registered"})
	})

	_, err := client.AdminCreateUser(context.Background(), CreateUserParams{
		Email:    "dup@x.com",
		Password: "secret1",
		Name:     "Dup",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "User already registered" {
		t.Fatalf("expected provider message surfaced, got %q", typed.Message())
	}
}

func TestSignInWithPassword(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("grant_type"); got != "password" {
			t.Fatalf("unexpected grant type %q", got)
		}
		json.NewEncoder(w).Encode(Session{
			AccessToken:  "at-1",
			RefreshToken: "rt-1",
			TokenType:    "bearer",
			ExpiresIn:    3600,
			User:         &User{ID: "u-1", Email: "ana@x.com"},
		})
	})

	session, err := client.SignInWithPassword(context.Background(), "ana@x.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if session.AccessToken != "at-1" || session.User == nil {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestSignInBadCredentials(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error_description": "Invalid login credentials"})
	})

	_, err := client.SignInWithPassword(context.Background(), "ana@x.com", "wrong")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "Invalid login credentials" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestAdminUpdateUser(t *testing.T) {
	name := "Nueva Ana"
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/auth/v1/admin/users/u-1" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if _, ok := payload["email"]; ok {
			t.Fatal("email should not be sent when not updated")
		}
		json.NewEncoder(w).Encode(User{ID: "u-1", Email: "ana@x.com", UserMetadata: Metadata{Name: name}})
	})

	user, err := client.AdminUpdateUser(context.Background(), "u-1", UserUpdates{Name: &name})
	if err != nil {
		t.Fatalf("update user: %v", err)
	}
	if user.UserMetadata.Name != name {
		t.Fatalf("unexpected name %q", user.UserMetadata.Name)
	}
}

func TestAdminUpdateUserRequiresFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.AdminUpdateUser(context.Background(), "u-1", UserUpdates{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
