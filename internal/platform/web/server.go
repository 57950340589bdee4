package web

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"vaktpost/internal/platform/config"
	"vaktpost/internal/platform/logger"
)

// Server is a thin wrapper over chi + stdlib http.Server
type Server struct {
	addr string
	mux  *chi.Mux
	srv  *stdhttp.Server
}

// NewServer builds the admin server with CORS enabled for configured origins
func NewServer(cfg config.Conf) *Server {
	addr := cfg.MayString("API_ADDR", ":4080")
	m := chi.NewRouter()
	m.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.MayCSV("API_CORS_ORIGINS", []string{"*"}),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	return &Server{
		addr: addr,
		mux:  m,
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           m,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router returns the facade modules mount routes on
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr returns the listening address
func (s *Server) Addr() string { return s.addr }

// Run starts the server and blocks until shutdown or failure
func (s *Server) Run(ctx context.Context) error {
	log := logger.Named("web")
	log.Info().Str("addr", s.addr).Msg("http listening")

	errc := make(chan error, 1)
	go func() { errc <- s.srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shCtx)
	case err := <-errc:
		if err == stdhttp.ErrServerClosed {
			return nil
		}
		return err
	}
}
