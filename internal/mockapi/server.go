// Package mockapi is an in-memory Assessment Service for development and
// end-to-end tests.
package mockapi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type attemptKey struct {
	userID string
	testID string
}

// failure injects error responses into an endpoint.
type failure struct {
	remaining int
	status    int
}

// Server serves the Assessment Service contract from memory.
type Server struct {
	mu       sync.Mutex
	secret   []byte
	tests    map[string]*Test
	attempts map[attemptKey]*Attempt
	now      func() time.Time

	failPrimary  failure
	failLegacy   failure
	primaryCalls int
	legacyCalls  int

	engine *gin.Engine
}

// New creates a Server that accepts HS256 tokens signed with secret.
func New(secret string, tests ...Test) *Server {
	s := &Server{
		secret:   []byte(secret),
		tests:    make(map[string]*Test),
		attempts: make(map[attemptKey]*Attempt),
		now:      time.Now,
	}
	for _, t := range tests {
		s.AddTest(t)
	}
	s.engine = s.routes()
	return s
}

// AddTest stores or replaces a test.
func (s *Server) AddTest(t Test) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tests[t.ID] = &t
}

// Handler returns the HTTP handler. Routes are mounted under /api.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// FailPrimary makes the next n group-scoped submissions answer status.
func (s *Server) FailPrimary(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failPrimary = failure{remaining: n, status: status}
}

// FailLegacy makes the next n legacy submissions answer status.
func (s *Server) FailLegacy(n, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failLegacy = failure{remaining: n, status: status}
}

// PrimaryCalls returns how many group-scoped submissions were received.
func (s *Server) PrimaryCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primaryCalls
}

// LegacyCalls returns how many legacy submissions were received.
func (s *Server) LegacyCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.legacyCalls
}

// Attempt returns the stored attempt of a user, or nil.
func (s *Server) Attempt(userID, testID string) *Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptKey{userID: userID, testID: testID}]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// AttemptCount returns the number of stored attempts across all users.
func (s *Server) AttemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()

	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		log.Info().
			Str("client_ip", param.ClientIP).
			Str("method", param.Method).
			Str("path", param.Path).
			Int("status_code", param.StatusCode).
			Dur("latency", param.Latency).
			Str("error_message", param.ErrorMessage).
			Msg("gin_request")
		return ""
	}))
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	apiGroup := r.Group("/api", s.authenticate)
	{
		apiGroup.GET("/groups/:group_id/tests/:test_id", s.getTest)
		apiGroup.POST("/groups/:group_id/tests/:test_id/submit", s.inject(&s.failPrimary, &s.primaryCalls), s.submitPrimary)
		apiGroup.GET("/groups/:group_id/tests/:test_id/results/:user_id", s.getResults)

		apiGroup.POST("/tests/:test_id/submit", s.inject(&s.failLegacy, &s.legacyCalls), s.submitLegacy)
	}
	return r
}

// inject counts calls to an endpoint and answers with the configured
// failure while one is pending.
func (s *Server) inject(f *failure, calls *int) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		s.mu.Lock()
		*calls++
		fail := f.remaining > 0
		status := f.status
		if fail {
			f.remaining--
		}
		s.mu.Unlock()

		if fail {
			log.Warn().Int("status", status).Str("path", ctx.FullPath()).Msg("injected failure")
			ctx.AbortWithStatusJSON(status, ErrorResponse{Message: http.StatusText(status)})
			return
		}
		ctx.Next()
	}
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("assessment service listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
