package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/antares-fit/antares/internal/auth"
	"github.com/antares-fit/antares/internal/shared"
	_ "github.com/antares-fit/antares/testing"
)

// commitWriter persists the session before the first byte of the response,
// matching the commit ordering the application middleware uses.
type commitWriter struct {
	http.ResponseWriter
	ctx       context.Context
	sm        *shared.SessionManager
	req       *http.Request
	sess      *shared.Session
	committed bool
}

func (w *commitWriter) WriteHeader(code int) {
	if !w.committed {
		w.committed = true
		_ = w.sm.Commit(w.ctx, w.ResponseWriter, w.req, w.sess)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *commitWriter) Write(b []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// newAuthRouter mounts the handler behind a minimal session middleware so
// requests flow the same way they do through the full stack.
func newAuthRouter(t *testing.T, repo auth.Repository) (http.Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := auth.NewHandler(logger, auth.NewService(repo, nil), sessionManager, csrfManager, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			if err != nil {
				t.Fatalf("load session: %v", err)
			}
			ctx := shared.ContextWithSession(req.Context(), sess)
			cw := &commitWriter{ResponseWriter: w, ctx: ctx, sm: sessionManager, req: req, sess: sess}
			next.ServeHTTP(cw, req.WithContext(ctx))
		})
	})
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

func TestLoginIssuesSessionAndCSRFToken(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{account: activeAccount(t)})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"coach@box.test","password":"correct-horse"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var body struct {
		Account struct {
			ID    int64  `json:"id"`
			Email string `json:"email"`
		} `json:"account"`
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	require.Equal(t, int64(7), body.Account.ID)
	require.NotEmpty(t, body.CSRFToken)

	var cookie *http.Cookie
	for _, c := range res.Result().Cookies() {
		if c.Name == "test_session" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "session cookie missing")
	require.NotEmpty(t, cookie.Value)
}

func TestLoginInvalidCredentials(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{account: activeAccount(t)})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"coach@box.test","password":"wrongpass"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestMeRequiresSession(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{account: activeAccount(t)})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLoginThenMe(t *testing.T) {
	router, sessionManager := newAuthRouter(t, &stubRepo{account: activeAccount(t)})

	loginReq := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"coach@box.test","password":"correct-horse"}`))
	loginReq.Header.Set("Content-Type", "application/json")
	loginRes := httptest.NewRecorder()
	router.ServeHTTP(loginRes, loginReq)
	require.Equal(t, http.StatusOK, loginRes.Code)

	meReq := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	for _, c := range loginRes.Result().Cookies() {
		if c.Name == sessionManager.CookieName() {
			meReq.AddCookie(c)
		}
	}
	meRes := httptest.NewRecorder()
	router.ServeHTTP(meRes, meReq)
	require.Equal(t, http.StatusOK, meRes.Code)

	var body struct {
		Email string `json:"email"`
	}
	require.NoError(t, json.Unmarshal(meRes.Body.Bytes(), &body))
	require.Equal(t, "coach@box.test", body.Email)
}

func TestSignupValidation(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{})

	req := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(`{"email":"not-an-email","name":"x","password":"short"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusBadRequest, res.Code)
}
