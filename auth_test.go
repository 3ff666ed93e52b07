package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"lg/fitness-tracker-api/internal/models"
)

type loginResponse struct {
	User struct {
		ID    uint   `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"user"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"valid credentials", `{"email":"runner@example.com","password":"` + testPassword + `"}`, http.StatusOK},
		{"email is case-insensitive", `{"email":"  Runner@Example.COM ","password":"` + testPassword + `"}`, http.StatusOK},
		{"wrong password", `{"email":"runner@example.com","password":"nope"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"ghost@example.com","password":"` + testPassword + `"}`, http.StatusUnauthorized},
		{"missing password", `{"email":"runner@example.com"}`, http.StatusBadRequest},
		{"malformed body", `{"email":`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.doAs("", "POST", "/api/auth/login", tc.body)
			expectStatus(t, w, tc.wantStatus)
			if tc.wantStatus != http.StatusOK {
				return
			}
			resp := decode[loginResponse](t, w)
			if resp.User.ID != env.user.ID || resp.User.Email != "runner@example.com" {
				t.Errorf("unexpected user in response: %+v", resp.User)
			}
			if resp.AccessToken == "" || resp.RefreshToken == "" {
				t.Fatal("expected both tokens")
			}
			// The new access token authenticates.
			expectStatus(t, env.doAs(resp.AccessToken, "GET", "/api/goals", ""), http.StatusOK)
		})
	}
}

func TestLogin_StoresOnlyTokenHashes(t *testing.T) {
	env := newTestEnv(t)
	resp := decode[loginResponse](t, env.doAs("", "POST", "/api/auth/login",
		`{"email":"runner@example.com","password":"`+testPassword+`"}`))

	var n int64
	env.db.Model(&models.Session{}).Where("access_hash = ?", resp.AccessToken).Count(&n)
	if n != 0 {
		t.Error("raw access token must not be stored")
	}
	env.db.Model(&models.Session{}).Where("access_hash = ?", hashToken(resp.AccessToken)).Count(&n)
	if n != 1 {
		t.Errorf("expected one session keyed by the token hash, got %d", n)
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"unknown token", "Bearer not-a-token"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/goals", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			env.router.ServeHTTP(w, req)
			expectStatus(t, w, http.StatusUnauthorized)
		})
	}

	t.Run("expired token", func(t *testing.T) {
		env.h.now = func() time.Time { return testNow.Add(accessTokenTTL + time.Minute) }
		defer func() { env.h.now = func() time.Time { return testNow } }()

		w := env.do("GET", "/api/goals", "")
		expectStatus(t, w, http.StatusUnauthorized)
		if resp := decode[map[string]string](t, w); resp["error"] != "token expired" {
			t.Errorf("expected 'token expired', got %q", resp["error"])
		}
	})
}

func TestRefresh_RotatesTokens(t *testing.T) {
	env := newTestEnv(t)
	login := decode[loginResponse](t, env.doAs("", "POST", "/api/auth/login",
		`{"email":"runner@example.com","password":"`+testPassword+`"}`))

	w := env.doAs("", "POST", "/api/auth/refresh", `{"refreshToken":"`+login.RefreshToken+`"}`)
	expectStatus(t, w, http.StatusOK)
	pair := decode[tokenPair](t, w)
	if pair.AccessToken == login.AccessToken || pair.RefreshToken == login.RefreshToken {
		t.Fatal("expected a fresh token pair")
	}

	// The old pair is gone; the new access token works.
	expectStatus(t, env.doAs(login.AccessToken, "GET", "/api/goals", ""), http.StatusUnauthorized)
	expectStatus(t, env.doAs(pair.AccessToken, "GET", "/api/goals", ""), http.StatusOK)

	// A refresh token is single-use.
	w = env.doAs("", "POST", "/api/auth/refresh", `{"refreshToken":"`+login.RefreshToken+`"}`)
	expectStatus(t, w, http.StatusUnauthorized)

	expectStatus(t, env.doAs("", "POST", "/api/auth/refresh", `{}`), http.StatusBadRequest)
}

func TestPruneSessions(t *testing.T) {
	env := newTestEnv(t)

	n, err := pruneSessions(t.Context(), env.db, testNow.Add(refreshTokenTTL+time.Hour))
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 expired session pruned, got %d", n)
	}

	n, err = pruneSessions(t.Context(), env.db, testNow)
	if err != nil || n != 0 {
		t.Errorf("expected nothing left to prune, got %d (%v)", n, err)
	}
}

func TestStartJobs_SchedulesHourlyPrune(t *testing.T) {
	env := newTestEnv(t)

	scheduler, err := startJobs(env.db, zap.NewNop())
	if err != nil {
		t.Fatalf("startJobs: %v", err)
	}
	defer scheduler.Stop()

	entries := scheduler.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 scheduled job, got %d", len(entries))
	}
	next := entries[0].Schedule.Next(testNow)
	if wait := next.Sub(testNow); wait <= 0 || wait > time.Hour || next.Minute() != 0 {
		t.Errorf("next run = %s, want the top of the next hour after %s", next, testNow)
	}
}
