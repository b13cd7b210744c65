package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/dayview/internal/config"
	"github.com/matzehuels/dayview/pkg/server"
	"github.com/matzehuels/dayview/pkg/store"
)

// passwordEnv overrides the configured basic auth password.
const passwordEnv = "DAYVIEW_PASSWORD"

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen   string
		backend  string
		username string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the layout HTTP API",
		Long: `Serve the layout HTTP API.

Endpoints:
  GET    /health
  POST   /v1/layout                 events → layout JSON
  POST   /v1/render?format=svg      events → artifact
  POST   /v1/layouts                compute and store a layout
  GET    /v1/layouts                list stored layouts
  GET    /v1/layouts/{id}           fetch a stored layout
  DELETE /v1/layouts/{id}           delete a stored layout
  GET    /v1/layouts/{id}/render    render a stored layout

Basic auth is enabled when a username and password are configured. The
password can also be given in the ` + passwordEnv + ` environment variable.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("listen") {
				cfg.Server.Listen = listen
			}
			if cmd.Flags().Changed("user") {
				if cfg.Server.BasicAuth == nil {
					cfg.Server.BasicAuth = &config.BasicAuthConfig{}
				}
				cfg.Server.BasicAuth.Username = username
			}
			return c.runServe(cmd.Context(), cfg, backend, noCache)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", config.DefaultListen, "listen address")
	cmd.Flags().StringVar(&backend, "store", "", "layout store: memory, file, mongo (default: config)")
	cmd.Flags().StringVar(&username, "user", "", "basic auth username")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config, backend string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	st, err := c.newStore(ctx, backend)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if fs, ok := st.(*store.FileStore); ok {
		if n, err := fs.Cleanup(ctx); err != nil {
			c.Logger.Warn("cleanup expired layouts", "err", err)
		} else if n > 0 {
			c.Logger.Info("removed expired layouts", "count", n)
		}
	}

	srvCfg := serverConfig(cfg)
	srv := server.New(srvCfg, runner, st, c.Logger.WithPrefix("http"))

	printSuccess("Serving on %s", srvCfg.Addr)
	if srvCfg.Username != "" && srvCfg.Password != "" {
		printKeyValue("auth", "basic ("+srvCfg.Username+")")
	}
	if backend == "" {
		backend = cfg.Store.Backend
	}
	printKeyValue("store", backend)
	printKeyValue("cache", cacheLabel(cfg.Cache, noCache))

	return srv.ListenAndServe(ctx)
}

// serverConfig maps the config file onto server settings.
func serverConfig(cfg *config.Config) server.Config {
	sc := server.Config{
		Addr:     cfg.Server.Listen,
		Defaults: cfg.PipelineOptions(),
	}
	if a := cfg.Server.BasicAuth; a != nil {
		sc.Username, sc.Password = a.Username, a.Password
	}
	if pw := os.Getenv(passwordEnv); pw != "" {
		sc.Password = pw
	}
	return sc
}

func cacheLabel(cfg config.CacheConfig, noCache bool) string {
	if noCache {
		return config.CacheNone
	}
	return cfg.Backend
}
