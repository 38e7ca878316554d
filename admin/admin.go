// Package admin provides the http endpoint exposing the liveness, readiness and dispatch statistics
// of a running modscot instance
package admin

import (
	"context"
	"sort"
	"time"

	"github.com/alexandre-normand/modscot"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// StatsProvider is implemented by modscot.Modscot
type StatsProvider interface {
	Stats() modscot.Stats
}

// Pinger checks that a dependency (a database or a cache) is reachable
type Pinger func(ctx context.Context) error

// Server holds the admin http application
type Server struct {
	app *fiber.App

	name    string
	version string
	stats   StatsProvider
	pingers map[string]Pinger
	logger  *zap.Logger
	started time.Time
}

// Option defines an option for a Server
type Option func(*Server)

// OptionPinger adds a named dependency checked by the readiness probe
func OptionPinger(name string, p Pinger) func(*Server) {
	return func(s *Server) {
		s.pingers[name] = p
	}
}

// New creates a new admin server
func New(name string, version string, stats StatsProvider, logger *zap.Logger, options ...Option) (s *Server) {
	s = &Server{name: name, version: version, stats: stats, logger: logger, pingers: make(map[string]Pinger), started: time.Now()}
	for _, opt := range options {
		opt(s)
	}

	s.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	s.app.Use(s.requestLogger)
	s.app.Get("/healthz", s.live)
	s.app.Get("/readyz", s.ready)
	s.app.Get("/stats", s.showStats)

	return s
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves requests on addr until Shutdown is called
func (s *Server) Listen(addr string) error {
	s.logger.Info("admin endpoint listening", zap.String("addr", addr))
	return s.app.Listen(addr)
}

// Shutdown stops the server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	s.logger.Debug("admin request",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Int("status", c.Response().StatusCode()),
		zap.Duration("latency", time.Since(start)))

	return err
}

func (s *Server) live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "alive",
		"service": s.name,
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), readinessTimeout)
	defer cancel()

	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	depStatus := fiber.Map{}
	ready := true
	for _, name := range names {
		if err := s.pingers[name](ctx); err != nil {
			depStatus[name] = err.Error()
			ready = false
		} else {
			depStatus[name] = "ok"
		}
	}

	if !ready {
		s.logger.Warn("admin readiness check failed", zap.Any("dependencies", depStatus))
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "dependencies": depStatus})
	}

	return c.JSON(fiber.Map{"status": "ready", "dependencies": depStatus})
}

func (s *Server) showStats(c *fiber.Ctx) error {
	return c.JSON(s.stats.Stats())
}
