package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Mikelesnr/tsviyo-frontend/internal/logger"
	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
)

func testClient(t *testing.T, handler http.HandlerFunc, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, func() string { return token }, logger.Get())
}

func TestLoginParsesUserAndToken(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing request id")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"user": {"id": 42, "name": "Tina", "email": "tina@example.com",
			         "role": "rider", "email_verified_at": "2026-01-15T10:00:00Z"},
			"access_token": "abc.def.ghi",
			"token_type": "Bearer"
		}`))
	}, "")

	user, err := c.Login(context.Background(), "tina@example.com", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != 42 || user.Role != models.RoleRider {
		t.Errorf("user %+v", user)
	}
	if user.Token != "Bearer abc.def.ghi" {
		t.Errorf("token = %q", user.Token)
	}
	if !user.Verified() {
		t.Error("user should be verified")
	}
}

func TestBearerAttachedWhenPresent(t *testing.T) {
	var got string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"data": []}`))
	}, "Bearer tok123")

	if _, err := c.ListRides(context.Background()); err != nil {
		t.Fatalf("list: %v", err)
	}
	if got != "Bearer tok123" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestNoBearerWhenLoggedOut(t *testing.T) {
	got := "unset"
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{"data": []}`))
	}, "")

	c.ListRides(context.Background())
	if got != "" {
		t.Errorf("Authorization should be absent, got %q", got)
	}
}

func TestErrorKindMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantKind ErrorKind
		wantMsg  string
	}{
		{"unauthorized", 401, `{"message": "Unauthenticated."}`, KindAuth, "Unauthenticated."},
		{"forbidden", 403, `{"message": "Forbidden."}`, KindAuth, "Forbidden."},
		{"validation", 422, `{"message": "The email field is required."}`, KindValidation, "The email field is required."},
		{"server error", 500, `{"message": "Server Error"}`, KindRejected, "Server Error"},
		{"no message", 400, `{}`, KindRejected, "request failed, try again"},
		{"garbage body", 502, `<html>`, KindRejected, "request failed, try again"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, "")

			_, err := c.ListRides(context.Background())
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("want *Error, got %T: %v", err, err)
			}
			if apiErr.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", apiErr.Kind, tt.wantKind)
			}
			if apiErr.Status != tt.status {
				t.Errorf("status = %d, want %d", apiErr.Status, tt.status)
			}
			if apiErr.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", apiErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestNetworkFailureIsTagged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	c := NewClient(srv.URL, time.Second, func() string { return "" }, logger.Get())

	_, err := c.ListRides(context.Background())
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("want *Error, got %T", err)
	}
	if apiErr.Kind != KindNetwork {
		t.Errorf("kind = %s, want network", apiErr.Kind)
	}
	if apiErr.Message != "network error, try again" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestCreateRideResponseShapes(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    uint
		wantErr bool
	}{
		{"wrapped in data", `{"data": {"id": 7}}`, 7, false},
		{"top level", `{"id": 9}`, 9, false},
		{"no id", `{"ok": true}`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusCreated)
				w.Write([]byte(tt.body))
			}, "Bearer tok")

			id, err := c.CreateRide(context.Background(), models.RideCreate{RiderID: 42})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if id != tt.want {
				t.Errorf("id = %d, want %d", id, tt.want)
			}
		})
	}
}

func TestLoginFallsBackToSubmittedEmail(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user": {"id": 1, "role": "rider"}, "access_token": "t", "token_type": "Bearer"}`))
	}, "")

	user, err := c.Login(context.Background(), "fallback@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.Email != "fallback@example.com" {
		t.Errorf("email = %q", user.Email)
	}
}

func TestMetricEndpointCollapsesIDs(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/rides/7/cancel", "/rides/:id/cancel"},
		{"/rides/12345/late-cancel", "/rides/:id/late-cancel"},
		{"/driver/rides/8/accept", "/driver/rides/:id/accept"},
		{"/drivers/99", "/drivers/:id"},
		{"/admin/users/3", "/admin/users/:id"},
		{"/admin/drivers/5/suspend", "/admin/drivers/:id/suspend"},
		{"/auth/login", "/auth/login"},
		{"/rides", "/rides"},
	}
	for _, tt := range tests {
		if got := metricEndpoint(tt.path); got != tt.want {
			t.Errorf("metricEndpoint(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
