package cli

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getmockd/soapd/pkg/config"
	"github.com/getmockd/soapd/pkg/logging"
)

type serveFlags struct {
	listen    string
	logLevel  string
	logFormat string
}

func newServeCmd(g *globalFlags) *cobra.Command {
	f := &serveFlags{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the SOAP server (foreground)",
		Long: `Start the SOAP server hosting the demo Calculator service.

The endpoint runs the logging filter, the configured rules, the timing filter
and the configured value binders. /metrics and /__soapd/requests are mounted
unless disabled in the configuration.`,
		Example: `  # Start with soapd.yaml from the working directory
  soapd serve

  # Start with an explicit config on another address
  soapd serve --config calc.yaml --listen :9090 --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, path, err := loadConfig(g.configFile, true)
			if err != nil {
				return err
			}
			if err := f.apply(cfg); err != nil {
				return err
			}

			lc, err := cfg.Log.LoggingConfig(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger := logging.New(lc)
			if path != "" {
				logger.Debug("configuration loaded", "path", path)
			}

			srv, err := newServer(cfg, logger)
			if err != nil {
				return err
			}
			ln, err := net.Listen("tcp", cfg.Server.Listen)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", cfg.Server.Listen, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.OutOrStdout(), "soapd listening on http://%s%s\n", ln.Addr(), srv.endpoint.Path())
			err = srv.Run(ctx, ln)
			fmt.Fprintln(cmd.OutOrStdout(), "soapd stopped")
			return err
		},
	}

	cmd.Flags().StringVarP(&f.listen, "listen", "l", "", "Listen address, overrides server.listen")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides log.level")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format (text, json), overrides log.format")
	return cmd
}

// apply overlays explicitly set flags on cfg.
func (f *serveFlags) apply(cfg *config.Config) error {
	if f.listen != "" {
		cfg.Server.Listen = f.listen
	}
	if f.logLevel != "" {
		if _, err := logging.ParseLevel(f.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = f.logLevel
	}
	if f.logFormat != "" {
		if _, err := logging.ParseFormat(f.logFormat); err != nil {
			return err
		}
		cfg.Log.Format = f.logFormat
	}
	return nil
}

// loadConfig loads path, or the discovered configuration when path is empty.
// With allowDefault, finding no configuration yields config.Default.
func loadConfig(path string, allowDefault bool) (*config.Config, string, error) {
	if path == "" {
		discovered, err := config.Discover()
		if err != nil {
			if allowDefault && errors.Is(err, config.ErrNoConfig) {
				return config.Default(), "", nil
			}
			return nil, "", err
		}
		path = discovered
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
