package http

import (
	"net/http"

	"github.com/atinyakov/donorlink/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the mock
// API. Every request is logged; JSON endpoints reject other content types.
//
// Routes:
//
//	POST /api/signup                          → authHandler.Signup
//	POST /api/otp/verify                      → authHandler.VerifyOTP
//	POST /api/otp/resend                      → authHandler.ResendOTP
//	POST /api/login                           → authHandler.Login
//	GET  /api/user/profile                    → accountHandler.Profile (token)
//	GET  /api/user/stats                      → accountHandler.Stats (verified)
//	POST /api/user/update-email               → accountHandler.UpdateEmail (verified)
//	POST /api/user/verify-update-email        → accountHandler.VerifyUpdateEmail (verified)
//	POST /api/user/update-phone               → accountHandler.UpdatePhone (verified)
//	POST /api/user/verify-update-phone        → accountHandler.VerifyUpdatePhone (verified)
//	POST /api/user/update-password            → accountHandler.UpdatePassword (verified)
//	POST /api/user/upload-profile-picture     → accountHandler.UploadProfilePicture (verified, multipart)
//	GET  /api/donations/history               → donationHandler.History (verified)
//	GET  /api/donations/track/{id}            → donationHandler.Track (verified)
//	GET  /uploads/{name}                      → accountHandler.Avatar
//
// Middleware chain, applied in order: Recoverer, WithRequestLogging,
// Authenticate (401 without a valid bearer token) and RequireVerified (403
// for pending accounts).
func NewRouter(
	authHandler *AuthHandler,
	accountHandler *AccountHandler,
	donationHandler *DonationHandler,
	authn middleware.Authenticator,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger))

	jsonOnly := chiMiddleware.AllowContentType("application/json")

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Group(func(r chi.Router) {
			r.Use(jsonOnly)
			r.Post("/signup", authHandler.Signup)
			r.Post("/otp/verify", authHandler.VerifyOTP)
			r.Post("/otp/resend", authHandler.ResendOTP)
			r.Post("/login", authHandler.Login)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(authn, logger))

			r.Get("/user/profile", accountHandler.Profile)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireVerified)

				r.Get("/user/stats", accountHandler.Stats)
				r.Get("/donations/history", donationHandler.History)
				r.Get("/donations/track/{id}", donationHandler.Track)
				r.With(chiMiddleware.AllowContentType("multipart/form-data")).
					Post("/user/upload-profile-picture", accountHandler.UploadProfilePicture)

				r.Group(func(r chi.Router) {
					r.Use(jsonOnly)
					r.Post("/user/update-email", accountHandler.UpdateEmail)
					r.Post("/user/verify-update-email", accountHandler.VerifyUpdateEmail)
					r.Post("/user/update-phone", accountHandler.UpdatePhone)
					r.Post("/user/verify-update-phone", accountHandler.VerifyUpdatePhone)
					r.Post("/user/update-password", accountHandler.UpdatePassword)
				})
			})
		})
	})

	r.Get("/uploads/{name}", accountHandler.Avatar)

	return r
}
