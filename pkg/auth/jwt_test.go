package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGuestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	token, err := GenerateGuestToken("session-123")
	if err != nil {
		t.Fatalf("GenerateGuestToken failed: %v", err)
	}

	claims, err := ValidateGuestToken(token)
	if err != nil {
		t.Fatalf("ValidateGuestToken failed: %v", err)
	}
	if claims.SessionID != "session-123" {
		t.Errorf("session ID = %q, want session-123", claims.SessionID)
	}
	if claims.Subject != "guest" {
		t.Errorf("subject = %q, want guest", claims.Subject)
	}
}

func TestValidateRejectsTampering(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	token, err := GenerateGuestToken("session-123")
	if err != nil {
		t.Fatalf("GenerateGuestToken failed: %v", err)
	}

	if _, err := ValidateGuestToken(token + "x"); err == nil {
		t.Error("tampered token validated successfully")
	}
	if _, err := ValidateGuestToken("not-a-token"); err == nil {
		t.Error("garbage token validated successfully")
	}
}

func TestExtractTokenFromRequest(t *testing.T) {
	tests := []struct {
		name     string
		build    func(r *http.Request)
		expected string
		hasError bool
	}{
		{
			name: "bearer header",
			build: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer abc123")
			},
			expected: "abc123",
		},
		{
			name: "malformed header",
			build: func(r *http.Request) {
				r.Header.Set("Authorization", "abc123")
			},
			hasError: true,
		},
		{
			name: "cookie",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: "guest_token", Value: "cookie-token"})
			},
			expected: "cookie-token",
		},
		{
			name:     "query parameter",
			build:    func(r *http.Request) { r.URL.RawQuery = "token=query-token" },
			expected: "query-token",
		},
		{
			name:     "no token anywhere",
			build:    func(r *http.Request) {},
			hasError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/ws", nil)
			tt.build(r)

			token, err := ExtractTokenFromRequest(r)
			if tt.hasError {
				if err == nil {
					t.Fatalf("expected error, got token %q", token)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if token != tt.expected {
				t.Errorf("token = %q, want %q", token, tt.expected)
			}
		})
	}
}

func TestHandleCreateSession(t *testing.T) {
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	r := httptest.NewRequest("POST", "/api/auth/session", nil)
	w := httptest.NewRecorder()
	HandleCreateSession(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp SessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("response decode failed: %v", err)
	}
	if !resp.Success || resp.SessionID == "" || resp.Token == "" {
		t.Errorf("incomplete response: %+v", resp)
	}

	// The issued token must validate and carry the returned session ID.
	claims, err := ValidateGuestToken(resp.Token)
	if err != nil {
		t.Fatalf("issued token does not validate: %v", err)
	}
	if claims.SessionID != resp.SessionID {
		t.Errorf("token session = %q, response session = %q", claims.SessionID, resp.SessionID)
	}
}

func TestHandleCreateSessionRejectsGet(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/auth/session", nil)
	w := httptest.NewRecorder()
	HandleCreateSession(w, r)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Method not allowed") {
		t.Errorf("body = %q", w.Body.String())
	}
}
