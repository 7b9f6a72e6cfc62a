package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"wizards-server/internal/board"
	"wizards-server/internal/storage"
)

type Server struct {
	config      Config
	session     *Session
	rateLimiter *RateLimiter
	journal     storage.Journal
	cancel      context.CancelFunc

	originPatterns []string
}

type journalPruner interface {
	Prune(ctx context.Context, retention time.Duration) (int64, error)
}

// NewServer builds the session and its background tasks and returns the HTTP
// server to run them behind.
func NewServer(cfg Config) (*Server, *http.Server, error) {
	boards, err := board.LoadEmbedded(cfg.DefaultMap)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load boards: %w", err)
	}
	log.Printf("Loaded boards %v (default %s)", boards.Names(), cfg.DefaultMap)

	journal, err := openJournal(cfg)
	if err != nil {
		return nil, nil, err
	}

	s := newServer(cfg, boards, journal)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, server, nil
}

func newServer(cfg Config, boards *board.Registry, journal storage.Journal) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config: cfg,
		session: NewSession(SessionOptions{
			Boards:          boards,
			DefaultMap:      cfg.DefaultMap,
			PointerInterval: cfg.PointerInterval,
			Journal:         journal,
		}),
		rateLimiter:    NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		journal:        journal,
		cancel:         cancel,
		originPatterns: originPatterns(cfg.AllowedOrigins),
	}

	go s.session.Run(ctx)
	if pruner, ok := journal.(journalPruner); ok {
		go s.cleanupTask(ctx, pruner)
	}

	return s
}

func openJournal(cfg Config) (storage.Journal, error) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set, game journal disabled")
		return storage.NopJournal{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	journal, err := storage.Open(ctx, cfg.DatabaseURL, cfg.JournalBuffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	return journal, nil
}

// originPatterns strips schemes so the same list works for CORS and the
// websocket origin check, which matches on host only.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if _, host, ok := strings.Cut(origin, "://"); ok {
			origin = host
		}
		if origin != "" {
			patterns = append(patterns, origin)
		}
	}
	if len(patterns) == 0 {
		patterns = append(patterns, "*")
	}
	return patterns
}

// cleanupTask runs every hour and deletes journal rows past retention
func (s *Server) cleanupTask(ctx context.Context, pruner journalPruner) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := pruner.Prune(ctx, s.config.JournalRetain)
			if err != nil {
				log.Printf("Cleanup task failed: %v", err)
				continue
			}
			if deleted > 0 {
				log.Printf("Cleanup task: deleted %d journal events", deleted)
			}
		}
	}
}

// Shutdown stops the session, closing every client, and flushes the journal.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	select {
	case <-s.session.done:
	case <-ctx.Done():
		return fmt.Errorf("session did not stop: %w", ctx.Err())
	}

	if err := s.journal.Close(); err != nil {
		return fmt.Errorf("failed to close journal: %w", err)
	}
	return nil
}
