package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jakechorley/escala/pkg/auth"
	"github.com/jakechorley/escala/pkg/core/model"
	"github.com/jakechorley/escala/pkg/core/policy"
)

// StateStore defines the synchronized-state operations the API serves.
// Satisfied by *sync.Syncer.
type StateStore interface {
	Snapshot() model.Snapshot
	UpsertSchedule(ctx context.Context, schedule model.Schedule) error
	DeleteSchedule(ctx context.Context, id string) error
	UpsertAvailability(ctx context.Context, userID string, dates []string) error
	UpdateMinistryImage(ctx context.Context, id, imageURL string) error
}

// AuthService defines the authentication operations the API exposes.
// Satisfied by *auth.Bridge.
type AuthService interface {
	SignUp(ctx context.Context, email, password string, profile model.User) (string, error)
	SignIn(ctx context.Context, email, password string) (*auth.Session, *model.User, error)
	SignOut()
	CurrentSession(token string) (*auth.Session, error)
}

// Server is the HTTP surface over the scheduling actions
type Server struct {
	router    *chi.Mux
	store     StateStore
	auth      AuthService
	overrides []policy.Override
	logger    *zap.Logger
}

// NewServer builds the router with all routes and middleware wired
func NewServer(
	store StateStore,
	authService AuthService,
	overrides []policy.Override,
	allowedOrigins []string,
	logger *zap.Logger,
) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		store:     store,
		auth:      authService,
		overrides: overrides,
		logger:    logger,
	}

	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(chimiddleware.Timeout(30 * time.Second))

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: allowedOrigins[0] != "*",
		MaxAge:           300,
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/me", s.handleMe)
		r.Get("/me/schedules", s.handleMySchedules)
		r.Get("/me/calendar", s.handleMyCalendar)
		r.Put("/availability", s.handleSetAvailability)

		r.Post("/schedules/book", s.handleBook)
		r.Post("/schedules/toggle", s.handleToggleMember)
		r.Put("/schedules/{id}/members/{memberID}/details", s.handleSetDetails)
		r.Delete("/schedules/{id}", s.handleDeleteSchedule)

		r.Put("/ministries/{id}/image", s.handleUpdateMinistryImage)
		r.Get("/ministries/{id}/overview", s.handleMonthlyOverview)
	})
}

// Handler returns the root http.Handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
