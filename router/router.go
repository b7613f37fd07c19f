package router

import (
	_ "go-medstore-api/docs"
	"go-medstore-api/handler"
	"go-medstore-api/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Deps holds everything the router wires together.
type Deps struct {
	Auth       *handler.AuthHandler
	OTP        *handler.OTPHandler
	User       *handler.UserHandler
	Session    *handler.SessionMiddleware
	Limiter    service.RateLimiter
	Cookies    handler.CookieConfig
	CORSOrigin string
	TrustProxy bool
}

func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /{$}", handler.Welcome(d.Cookies))
	mux.HandleFunc("GET /health", handler.HealthCheck)
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)

	mux.Handle("POST /authentication/register", handler.ErrorHandlingMiddleware(d.Auth.Register))
	mux.Handle("GET /authentication/register", handler.ErrorHandlingMiddleware(d.Auth.VerifyEmail))
	mux.Handle("POST /authentication/login", handler.ErrorHandlingMiddleware(d.Auth.Login))
	mux.Handle("GET /authentication/refresh-token", handler.ErrorHandlingMiddleware(d.Auth.RefreshToken))
	mux.Handle("GET /authentication/otp", handler.ErrorHandlingMiddleware(d.OTP.SendOTP))
	mux.Handle("POST /authentication/otp", handler.ErrorHandlingMiddleware(d.OTP.VerifyOTP))

	// Protected
	mux.Handle("POST /api/logout", handler.ErrorHandlingMiddleware(d.Auth.Logout))
	mux.Handle("GET /api/user", handler.ErrorHandlingMiddleware(d.User.GetProfile))
	mux.Handle("PATCH /api/user", handler.ErrorHandlingMiddleware(d.User.UpdateProfile))
	mux.Handle("PUT /api/user/password", handler.ErrorHandlingMiddleware(d.User.ChangePassword))
	mux.Handle("DELETE /api/user", handler.ErrorHandlingMiddleware(d.User.DeleteAccount))

	// Admin
	mux.Handle("PATCH /api/admin/users/{id}/role", handler.AdminMiddleware(handler.ErrorHandlingMiddleware(d.User.UpdateUserRole)))

	var h http.Handler = mux
	if d.Session != nil {
		h = d.Session.Handler(h)
	}
	h = handler.RateLimit(d.Limiter, d.TrustProxy)(h)
	h = handler.CORS(d.CORSOrigin)(h)
	h = handler.RequestLogger(d.TrustProxy)(h)
	return h
}
