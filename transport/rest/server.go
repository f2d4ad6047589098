package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/gameroom-backend/internal/entity"
	"github.com/rocketscienceinc/gameroom-backend/internal/usecase"
)

type sessionUseCase interface {
	Attach(ctx context.Context, sessionID string, identity entity.Identity) (*entity.Session, entity.Role, error)
	SelectVariant(ctx context.Context, sessionID string, variant entity.Variant, starter entity.Role) (*entity.Session, error)
	MakeTurn(ctx context.Context, sessionID string, identity entity.Identity, cell int) (*entity.Session, error)
	ToggleCell(ctx context.Context, sessionID string, identity entity.Identity, target entity.Role, cell entity.Cell) (*entity.Session, error)
	Rematch(ctx context.Context, sessionID string) (*entity.Session, error)
	ReassignStarter(ctx context.Context, sessionID string, identity entity.Identity, starter entity.Role, swapSeats bool) (*entity.Session, error)
	Session(ctx context.Context, sessionID string) (*usecase.SessionView, error)
	PostMessage(ctx context.Context, sessionID string, author entity.Identity, kind, payload string) (*entity.ChatMessage, error)
	Messages(ctx context.Context, sessionID string) ([]*entity.ChatMessage, error)
}

type Server struct {
	logger   *slog.Logger
	sessions sessionUseCase
}

func New(logger *slog.Logger, sessions sessionUseCase) *Server {
	return &Server{
		logger:   logger,
		sessions: sessions,
	}
}

// Start - starts the HTTP command surface and blocks until the context is
// canceled or the listener fails.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func (that *Server) routes() http.Handler {
	router := chi.NewRouter()

	router.Get("/ping", that.handlePing)

	router.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", that.handleGetSession)
		r.Post("/attach", that.handleAttach)
		r.Post("/variant", that.handleSelectVariant)
		r.Post("/moves", that.handleMakeTurn)
		r.Post("/toggles", that.handleToggleCell)
		r.Post("/rematch", that.handleRematch)
		r.Post("/starter", that.handleReassignStarter)
		r.Get("/chat", that.handleListMessages)
		r.Post("/chat", that.handlePostMessage)
	})

	return router
}
