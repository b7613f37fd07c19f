package handler

import (
	"context"
	"crypto/subtle"
	"go-medstore-api/common"
	"go-medstore-api/logger"
	"go-medstore-api/model"
	"go-medstore-api/service"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserRoleKey  contextKey = "userRole"
	RequestIDKey contextKey = "requestID"
)

const requestIDHeader = "X-Request-ID"

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// RequestLogger tags every request with an id and logs it once it completes.
func RequestLogger(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			next.ServeHTTP(rec, r.WithContext(ctx))

			logger.Log.WithFields(logrus.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"duration":   time.Since(start).String(),
				"client_ip":  ClientIP(r, trustProxy),
			}).Info("Request handled")
		})
	}
}

// CORS sets the cross-origin headers and answers preflight requests.
func CORS(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
			h.Set("Access-Control-Expose-Headers", "Authorization, X-Access-Token, X-Request-ID")
			if origin != "*" {
				h.Set("Access-Control-Allow-Credentials", "true")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects clients that exceed the limiter's budget with 429.
func RateLimit(limiter service.RateLimiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}
			allowed, retryAfter := limiter.Allow(r.Context(), ClientIP(r, trustProxy))
			if !allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
				common.NewAppError(http.StatusTooManyRequests, "Too many requests, please try again later.", nil).Send(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the address the rate limiter keys on. X-Forwarded-For is
// honoured only behind a trusted proxy.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
			first, _, _ := strings.Cut(forwarded, ",")
			return strings.TrimSpace(first)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type sessionResolver interface {
	Resolve(ctx context.Context, accessToken, refreshToken string) service.SessionResult
}

// SessionConfig configures SessionMiddleware.
type SessionConfig struct {
	LoginPath   string
	CSRFEnabled bool
	Cookies     CookieConfig
}

// SessionMiddleware authenticates every non-public request.
type SessionMiddleware struct {
	resolver sessionResolver
	cfg      SessionConfig
}

func NewSessionMiddleware(resolver sessionResolver, cfg SessionConfig) *SessionMiddleware {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	return &SessionMiddleware{resolver: resolver, cfg: cfg}
}

// isPublic reports whether path skips authentication.
func isPublic(path string) bool {
	switch {
	case path == "/", path == "/health":
		return true
	case strings.HasPrefix(path, "/swagger/"), strings.HasPrefix(path, "/authentication/"):
		return true
	}
	return false
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func bearerToken(r *http.Request) (string, *common.AppError) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
	}
	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || token == "" {
		return "", common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
	}
	return token, nil
}

func (m *SessionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		accessToken, appErr := bearerToken(r)
		if appErr != nil {
			appErr.Send(w)
			return
		}

		res := m.resolver.Resolve(r.Context(), accessToken, cookieValue(r, refreshCookieName))
		log := logger.Log.WithFields(logrus.Fields{
			"path":    r.URL.Path,
			"outcome": res.Outcome.String(),
		})

		switch res.Outcome {
		case service.OutcomeValid:
		case service.OutcomeRefreshed:
			w.Header().Set("Authorization", "Bearer "+res.Tokens.AccessToken)
			w.Header().Set("X-Access-Token", res.Tokens.AccessToken)
			m.cfg.Cookies.setRefresh(w, res.Tokens.RefreshToken)
			log.WithField("user_id", res.Identity.UserID).Info("Access token refreshed in flight")
		case service.OutcomeRedirect:
			log.WithError(res.Err).Info("Session expired, redirecting to login")
			http.Redirect(w, r, m.cfg.LoginPath, http.StatusFound)
			return
		default:
			toAppError(res.Err).Send(w)
			return
		}

		if m.cfg.CSRFEnabled && isUnsafeMethod(r.Method) && !csrfMatches(r) {
			log.WithField("user_id", res.Identity.UserID).Warn("CSRF token mismatch")
			common.NewAppError(http.StatusUnauthorized, "Invalid CSRF token.", nil).Send(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, res.Identity.UserID)
		ctx = context.WithValue(ctx, UserRoleKey, res.Identity.Role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func csrfMatches(r *http.Request) bool {
	header := r.Header.Get(csrfHeaderName)
	cookie := cookieValue(r, csrfCookieName)
	if header == "" || cookie == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(header), []byte(cookie)) == 1
}

func AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role, ok := r.Context().Value(UserRoleKey).(model.Role)

		if !ok || role != model.RoleAdmin {
			err := common.NewAppError(http.StatusForbidden, "Access denied. Admin privileges required.", nil)
			err.Send(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func userIDFromContext(r *http.Request) (int, *common.AppError) {
	userID, ok := r.Context().Value(UserIDKey).(int)
	if !ok || userID <= 0 {
		return 0, common.NewAppError(http.StatusUnauthorized, "Invalid user ID in token", nil)
	}
	return userID, nil
}
