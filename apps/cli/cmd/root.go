package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	cookieStore string
	proxy       string
	insecure    bool
	debug       bool
	noColor     bool
	logLevel    string
	logFormat   string
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	g := &globalOptions{}

	root := &cobra.Command{
		Use:   "hitreq",
		Short: "Build, send and check HTTP requests.",
		Long: `hitreq sends HTTP requests built from flags or YAML request files.
Cookies set by responses are kept in a jar shared by every request of a
session and can be persisted between runs with --cookie-store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", getEnvString("HITREQ_CONFIG", ""), "Path to config file (env: HITREQ_CONFIG)")
	pf.StringVar(&g.cookieStore, "cookie-store", getEnvString("HITREQ_COOKIE_STORE", ""), "SQLite file used to persist cookies (env: HITREQ_COOKIE_STORE)")
	pf.StringVar(&g.proxy, "proxy", getEnvString("HITREQ_PROXY", ""), "Proxy URL for HTTP requests (env: HITREQ_PROXY)")
	pf.BoolVarP(&g.insecure, "insecure", "k", getEnvBool("HITREQ_INSECURE", false), "Disable SSL certificate validation (env: HITREQ_INSECURE)")
	pf.BoolVar(&g.debug, "debug", getEnvBool("HITREQ_DEBUG", false), "Log request and response headers (env: HITREQ_DEBUG)")
	pf.BoolVar(&g.noColor, "no-color", getEnvBool("HITREQ_NO_COLOR", false), "Disable colored output (env: HITREQ_NO_COLOR)")
	pf.StringVar(&g.logLevel, "log-level", getEnvString("HITREQ_LOG_LEVEL", ""), "Log level: trace, debug, info, warn, error, disabled (env: HITREQ_LOG_LEVEL)")
	pf.StringVar(&g.logFormat, "log-format", getEnvString("HITREQ_LOG_FORMAT", ""), "Log format: console, json (env: HITREQ_LOG_FORMAT)")

	root.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageError(err)
	})

	root.AddCommand(
		newSendCmd(g),
		newRunCmd(g),
		newBenchCmd(g),
		newCookiesCmd(g),
		newValidateCmd(),
		newInitCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI and exits with the code matching the outcome.
func Execute(v, bt string) {
	version = v
	buildTime = bt

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	stop()
	os.Exit(exitCode(err))
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
