package cli

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/soapd/pkg/config"
	"github.com/getmockd/soapd/pkg/endpoint"
	"github.com/getmockd/soapd/pkg/httputil"
	"github.com/getmockd/soapd/pkg/metrics"
	"github.com/getmockd/soapd/pkg/requestlog"
)

const (
	defaultShutdownTimeout = 5 * time.Second
	runtimeSampleInterval  = 15 * time.Second
)

// server hosts the calculator endpoint with the auxiliary routes enabled in
// the configuration.
type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	endpoint *endpoint.Endpoint
	store    *requestlog.MemoryStore
	inspect  *requestlog.Handler
	handler  http.Handler
}

func newServer(cfg *config.Config, logger *slog.Logger) (*server, error) {
	opts, err := cfg.Endpoint.Options(logger)
	if err != nil {
		return nil, err
	}

	s := &server{cfg: cfg, logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteOK(w, map[string]string{"status": "ok"})
	})

	if cfg.Server.Metrics {
		mux.Handle("GET /metrics", metrics.Init().Handler())
	}
	if cfg.Server.Inspection {
		s.store = requestlog.NewMemoryStore(cfg.Server.RequestLogCapacity)
		s.inspect = requestlog.NewHandler(requestlog.DefaultPrefix, s.store)
		mux.Handle(requestlog.DefaultPrefix, s.inspect)
		mux.Handle(requestlog.DefaultPrefix+"/", s.inspect)
		opts = append(opts, endpoint.WithRequestLogger(s.store))
	}

	s.endpoint, err = endpoint.New(calculatorService(logger), opts...)
	if err != nil {
		return nil, err
	}
	s.handler = s.endpoint.Wrap(mux)
	return s, nil
}

// Run serves on ln until ctx is done, then shuts down gracefully.
func (s *server) Run(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.cfg.Server.ReadTimeout.Std(),
		ReadHeaderTimeout: s.cfg.Server.ReadTimeout.Std(),
		WriteTimeout:      s.cfg.Server.WriteTimeout.Std(),
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	// In-flight SOAP requests drain; inspection streams are told to end.
	if s.inspect != nil {
		srv.RegisterOnShutdown(s.inspect.Shutdown)
	}

	g.Go(func() error {
		s.logger.Info("server started", "addr", ln.Addr().String(), "path", s.endpoint.Path())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.Server.ShutdownTimeout.Std()
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		s.logger.Info("server stopped")
		return err
	})

	if s.cfg.Server.Metrics && metrics.RuntimeCollectorInstance != nil {
		collector := metrics.RuntimeCollectorInstance
		g.Go(func() error {
			return collector.Run(gctx, runtimeSampleInterval)
		})
	}

	return g.Wait()
}
