package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/cookiejar"
	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
	"github.com/abdul-hamid-achik/hitreq/packages/http"
	"github.com/abdul-hamid-achik/hitreq/packages/logger"
)

// session is the state shared by the requests of one command: resolved
// configuration, logger, client and cookie jar.
type session struct {
	cfg    *config.Config
	log    *logger.Logger
	client *http.Client
	jar    *cookiejar.Jar
	store  *cookiejar.Store
}

// loadConfig reads the config file and overlays the flags the user set.
func (g *globalOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(g.configPath)
	if err != nil {
		return nil, configError(err)
	}

	flags := &config.Config{
		CookieStore: g.cookieStore,
		Proxy:       g.proxy,
		LogLevel:    g.logLevel,
		LogFormat:   g.logFormat,
	}
	changed := cmd.Flags().Changed
	if changed("insecure") {
		flags.ValidateSSL = config.BoolPtr(!g.insecure)
	}
	if changed("debug") {
		flags.Debug = config.BoolPtr(g.debug)
	}
	if changed("no-color") {
		flags.NoColor = config.BoolPtr(g.noColor)
	}
	cfg = cfg.Merge(flags)

	lc := cfg.LoggerConfig()
	lc.ApplyDefaults()
	if err := lc.Validate(); err != nil {
		return nil, configError(err)
	}
	return cfg, nil
}

// openSession builds the client and jar for cmd. When a cookie store is
// configured the jar is seeded from it and written back by close.
func (g *globalOptions) openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	lc := cfg.LoggerConfig()
	lc.Writer = cmd.ErrOrStderr()
	log := logger.New(lc)

	s := &session{
		cfg:    cfg,
		log:    log,
		client: http.NewClient(cfg.ClientOptions(log)...),
		jar:    cookiejar.New(),
	}

	if cfg.CookieStore != "" {
		store, err := cookiejar.Open(cfg.CookieStore)
		if err != nil {
			return nil, configError(err)
		}
		n, err := store.Load(ctx, s.jar)
		if err != nil {
			_ = store.Close()
			return nil, configError(err)
		}
		log.Debug().Str("store", store.Path()).Int("cookies", n).Msg("cookies loaded")
		s.store = store
	}
	return s, nil
}

// close persists the jar when a store is open.
func (s *session) close(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	defer s.store.Close()

	if err := s.store.Save(ctx, s.jar); err != nil {
		return fmt.Errorf("saving cookies: %w", err)
	}
	s.log.Debug().Str("store", s.store.Path()).Int("cookies", s.jar.Len()).Msg("cookies saved")
	return nil
}

// noColor reports whether console output should be plain.
func (s *session) noColor() bool {
	return s.cfg.GetNoColor()
}
