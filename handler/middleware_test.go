package handler

import (
	"context"
	"go-medstore-api/model"
	"go-medstore-api/service"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	pair  model.TokenPair
	user  *model.User
	err   error
	calls int
}

func (s *stubRefresher) Refresh(context.Context, string) (model.TokenPair, *model.User, error) {
	s.calls++
	return s.pair, s.user, s.err
}

func newTestCodec(t *testing.T) *service.TokenCodec {
	t.Helper()
	codec, err := service.NewTokenCodec(map[service.TokenKind]service.TokenSpec{
		service.KindAccess:       {Secret: []byte("access-secret"), TTL: 15 * time.Minute},
		service.KindRefresh:      {Secret: []byte("refresh-secret"), TTL: 7 * 24 * time.Hour},
		service.KindVerification: {Secret: []byte("verification-secret"), TTL: time.Hour},
	})
	require.NoError(t, err)
	return codec
}

// issueAccess signs an access token as of issuedAt.
func issueAccess(t *testing.T, codec *service.TokenCodec, userID int, role model.Role, issuedAt time.Time) string {
	t.Helper()
	token, err := codec.WithClock(func() time.Time { return issuedAt }).
		Issue(service.KindAccess, userID, service.TokenClaims{Role: string(role)})
	require.NoError(t, err)
	return token
}

// echoIdentity writes the user id placed in the context by the session middleware.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, _ := r.Context().Value(UserIDKey).(int)
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(strconv.Itoa(id)))
})

func newProtectedChain(t *testing.T, refresher *stubRefresher, limiter service.RateLimiter) (http.Handler, *service.TokenCodec) {
	t.Helper()
	codec := newTestCodec(t)
	session := NewSessionMiddleware(service.NewSessionResolver(codec, refresher), SessionConfig{
		LoginPath:   "/login",
		CSRFEnabled: true,
		Cookies:     testCookies,
	})
	mux := http.NewServeMux()
	mux.Handle("/", echoIdentity)
	mux.Handle("/api/admin/", AdminMiddleware(echoIdentity))

	h := session.Handler(mux)
	h = RateLimit(limiter, false)(h)
	h = CORS("https://shop.example.com")(h)
	return h, codec
}

func TestSessionMiddleware(t *testing.T) {
	t.Run("valid access token", func(t *testing.T) {
		h, codec := newProtectedChain(t, &stubRefresher{}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+issueAccess(t, codec, 7, model.RoleUser, time.Now()))
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "7", rr.Body.String())
	})

	t.Run("expired access token with refresh cookie passes through", func(t *testing.T) {
		refresher := &stubRefresher{
			pair: model.TokenPair{AccessToken: "fresh-access", RefreshToken: "fresh-refresh"},
			user: &model.User{ID: 7, Role: model.RoleUser},
		}
		h, codec := newProtectedChain(t, refresher, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+issueAccess(t, codec, 7, model.RoleUser, time.Now().Add(-time.Hour)))
		req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "old-refresh"})
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "7", rr.Body.String())
		assert.Equal(t, "Bearer fresh-access", rr.Header().Get("Authorization"))
		assert.Equal(t, "fresh-access", rr.Header().Get("X-Access-Token"))
		cookie := findCookie(rr.Result().Cookies(), refreshCookieName)
		require.NotNil(t, cookie)
		assert.Equal(t, "fresh-refresh", cookie.Value)
		assert.Equal(t, 1, refresher.calls)
	})

	t.Run("expired access token without cookie redirects", func(t *testing.T) {
		h, codec := newProtectedChain(t, &stubRefresher{}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+issueAccess(t, codec, 7, model.RoleUser, time.Now().Add(-time.Hour)))
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
		assert.Equal(t, "/login", rr.Header().Get("Location"))
	})

	t.Run("consumed refresh token redirects", func(t *testing.T) {
		h, codec := newProtectedChain(t, &stubRefresher{err: service.ErrRefreshReused}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+issueAccess(t, codec, 7, model.RoleUser, time.Now().Add(-time.Hour)))
		req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "old-refresh"})
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusFound, rr.Code)
	})

	t.Run("blocked user on refresh", func(t *testing.T) {
		h, codec := newProtectedChain(t, &stubRefresher{err: service.ErrAccountBlocked}, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+issueAccess(t, codec, 7, model.RoleUser, time.Now().Add(-time.Hour)))
		req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "old-refresh"})
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		refresher := &stubRefresher{}
		h, _ := newProtectedChain(t, refresher, nil)
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "old-refresh"})
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, 0, refresher.calls)
	})

	t.Run("missing header", func(t *testing.T) {
		h, _ := newProtectedChain(t, &stubRefresher{}, nil)
		rr := httptest.NewRecorder()

		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/user", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.JSONEq(t, `{"status":"error","code":401,"message":"Authorization header is required"}`, rr.Body.String())
	})

	t.Run("public routes skip authentication", func(t *testing.T) {
		h, _ := newProtectedChain(t, &stubRefresher{}, nil)
		for _, path := range []string{"/", "/health", "/authentication/login", "/swagger/index.html"} {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
			assert.Equal(t, http.StatusOK, rr.Code, path)
		}
	})
}

func TestSessionMiddleware_CSRF(t *testing.T) {
	h, codec := newProtectedChain(t, &stubRefresher{}, nil)
	access := issueAccess(t, codec, 7, model.RoleUser, time.Now())

	newRequest := func(header, cookie string) *http.Request {
		req := httptest.NewRequest(http.MethodPut, "/api/user/password", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		if header != "" {
			req.Header.Set(csrfHeaderName, header)
		}
		if cookie != "" {
			req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: cookie})
		}
		return req
	}

	cases := []struct {
		name   string
		header string
		cookie string
		want   int
	}{
		{"matching", "csrf-1", "csrf-1", http.StatusOK},
		{"mismatch", "csrf-1", "csrf-2", http.StatusUnauthorized},
		{"missing header", "", "csrf-1", http.StatusUnauthorized},
		{"missing cookie", "csrf-1", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, newRequest(tc.header, tc.cookie))
			assert.Equal(t, tc.want, rr.Code)
		})
	}

	t.Run("safe methods are not checked", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/user", nil)
		req.Header.Set("Authorization", "Bearer "+access)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestAdminMiddleware(t *testing.T) {
	h, codec := newProtectedChain(t, &stubRefresher{}, nil)

	for role, want := range map[model.Role]int{
		model.RoleAdmin:   http.StatusOK,
		model.RoleUser:    http.StatusForbidden,
		model.RoleManager: http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
		req.Header.Set("Authorization", "Bearer "+issueAccess(t, codec, 1, role, time.Now()))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		assert.Equal(t, want, rr.Code, string(role))
	}
}

func TestRateLimit(t *testing.T) {
	limiter := service.NewMemoryRateLimiter(100, 15*time.Minute)
	defer limiter.Stop()
	h, _ := newProtectedChain(t, &stubRefresher{}, limiter)

	for i := 1; i <= 100; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, rr.Code, "request %d", i)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "Too many requests, please try again later.")

	protected := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	protected.Header.Set("Authorization", "Bearer not-a-jwt")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, protected)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)

	other := httptest.NewRequest(http.MethodGet, "/health", nil)
	other.RemoteAddr = "198.51.100.7:5555"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, other)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCORS_Preflight(t *testing.T) {
	h, _ := newProtectedChain(t, &stubRefresher{}, nil)
	rr := httptest.NewRecorder()

	h.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/api/user", nil))

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://shop.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.9:4321"
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")

	assert.Equal(t, "10.0.0.9", ClientIP(req, false))
	assert.Equal(t, "203.0.113.5", ClientIP(req, true))
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	var seen string
	h := RequestLogger(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(RequestIDKey).(string)
		w.WriteHeader(http.StatusTeapot)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rr.Header().Get(requestIDHeader))
}
