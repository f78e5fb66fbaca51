package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muurk/froeling/internal/config"
	"github.com/muurk/froeling/internal/discovery"
	"github.com/muurk/froeling/internal/link"
	"github.com/muurk/froeling/internal/logging"
	"github.com/muurk/froeling/internal/metrics"
	"github.com/muurk/froeling/internal/relay"
	"github.com/muurk/froeling/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// Link is the boiler connection the server relays to
type Link interface {
	relay.Executor
	Close() error
}

// Opener opens the boiler link. The default opens the serial port.
type Opener func(cfg link.Config) (Link, error)

func openSerial(cfg link.Config) (Link, error) {
	l, err := link.Open(cfg)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Server runs the relay: the serial link, the TCP listener, and optionally
// the HTTP endpoints and mDNS advertisement
type Server struct {
	config *config.Config
	open   Opener

	ready     chan struct{}
	relayAddr net.Addr
	httpAddr  net.Addr
}

// New creates a new Server instance. Logging is initialized from the
// configuration here, before anything else can log.
func New(cfg *config.Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logging.InitializeWithOptions(logging.Options{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	return &Server{
		config: cfg,
		open:   openSerial,
		ready:  make(chan struct{}),
	}, nil
}

// SetOpener replaces how the boiler link is opened
func (s *Server) SetOpener(open Opener) {
	s.open = open
}

// Start runs the server until SIGINT or SIGTERM
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Run(ctx)
}

// Ready is closed once every listener is bound
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// RelayAddr returns the bound relay address; valid after Ready
func (s *Server) RelayAddr() net.Addr {
	return s.relayAddr
}

// HTTPAddr returns the bound HTTP address, nil when HTTP is disabled; valid after Ready
func (s *Server) HTTPAddr() net.Addr {
	return s.httpAddr
}

// Run opens the link and serves until ctx is cancelled or a listener fails
func (s *Server) Run(ctx context.Context) error {
	defer logging.Sync()

	cfg := s.config
	logging.Info("Starting Fröling relay",
		zap.String("version", version.Full()),
		zap.String("tty", cfg.Serial.TTY),
		zap.String("relay_listen", cfg.Relay.Listen),
		zap.String("http_listen", cfg.HTTP.Listen),
	)

	l, err := s.open(link.Config{
		Device:         cfg.Serial.TTY,
		BaudRate:       cfg.Serial.Baud,
		ReadTimeout:    cfg.Serial.ReadTimeout,
		IgnoreChecksum: cfg.Serial.IgnoreChecksum,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			logging.Warn("Error closing serial link", zap.Error(err))
		}
	}()

	reg := metrics.NewRegistry()
	rel := relay.New(l, relay.Config{
		MaxLineLength:    cfg.Relay.MaxLineLength,
		MaxPendingOutput: cfg.Relay.MaxPendingOutput,
		Metrics:          metrics.NewRelay(reg),
	})

	ln, err := net.Listen("tcp", cfg.Relay.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.Relay.Listen, err)
	}
	s.relayAddr = ln.Addr()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	relayDone := make(chan error, 1)
	go func() { relayDone <- rel.Run(ctx, ln) }()

	httpErr := make(chan error, 1)
	var httpServer *http.Server
	if cfg.HTTP.Listen != "" {
		hln, err := net.Listen("tcp", cfg.HTTP.Listen)
		if err != nil {
			cancel()
			<-relayDone
			return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.Listen, err)
		}
		s.httpAddr = hln.Addr()
		httpServer = &http.Server{
			Handler:           NewHandler(rel, reg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logging.Info("HTTP listening", zap.String("addr", hln.Addr().String()))
			if err := httpServer.Serve(hln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				httpErr <- err
			}
		}()
	}

	var adv *discovery.Advertiser
	if cfg.MDNS.Enabled {
		adv, err = discovery.Advertise(discovery.AdvertiseOptions{
			Instance: cfg.MDNS.Instance,
			Port:     discovery.PortOf(ln.Addr()),
			TTY:      cfg.Serial.TTY,
			Version:  version.Version,
		})
		if err != nil {
			// The relay works without advertisement
			logging.Warn("mDNS advertisement failed", zap.Error(err))
		}
	}

	close(s.ready)

	var runErr error
	relayStopped := false
	select {
	case <-ctx.Done():
		logging.Info("Shutdown signal received, stopping relay...")
	case runErr = <-httpErr:
		logging.Error("HTTP server failed", zap.Error(runErr))
	case runErr = <-relayDone:
		relayStopped = true
	}

	cancel()
	adv.Shutdown()
	if httpServer != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn("HTTP shutdown incomplete", zap.Error(err))
		}
		cancelShutdown()
	}
	if !relayStopped {
		if err := <-relayDone; err != nil && runErr == nil {
			runErr = err
		}
	}

	logging.Info("Server stopped")
	return runErr
}

// NewHandler returns the HTTP routes: the WebSocket relay, Prometheus
// metrics and a health check
func NewHandler(rel *relay.Relay, reg *prometheus.Registry) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", relay.WebSocketHandler(rel))
	mux.Handle("/metrics", metrics.Handler(reg))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	return mux
}
