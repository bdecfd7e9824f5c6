package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/core/runner"
	"github.com/abdul-hamid-achik/hitreq/packages/output"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

type runOptions struct {
	variableOptions

	name         string
	bail         bool
	output       string
	outputFile   string
	verbose      bool
	watch        bool
	waitFor      string
	waitStatus   int
	waitTimeout  time.Duration
	waitInterval time.Duration
}

func newRunCmd(g *globalOptions) *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run <file|directory>...",
		Short: "Run requests from YAML request files",
		Long: `Run the requests defined in .yaml or .yml request files, in order.

Requests of one file share a cookie jar and can reuse values captured from
earlier responses with {{name}} or {{request.name}}. With --cookie-store the
jar is shared by every file of the run and persisted afterwards.

Examples:
  hitreq run api.yaml
  hitreq run ./requests/ --env-file .env.staging
  hitreq run api.yaml --name "login*" --bail
  hitreq run api.yaml --output json --output-file results.json
  hitreq run api.yaml --wait-for http://localhost:8080/health
  hitreq run ./requests/ --watch`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, g, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.name, "name", "n", "", "Run only requests matching name pattern ('*' wildcard)")
	f.BoolVar(&o.bail, "bail", getEnvBool("HITREQ_BAIL", false), "Stop on first failure (env: HITREQ_BAIL)")
	f.StringVarP(&o.output, "output", "o", getEnvString("HITREQ_OUTPUT", "console"), "Output format: console, json (env: HITREQ_OUTPUT)")
	f.StringVar(&o.outputFile, "output-file", getEnvString("HITREQ_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: HITREQ_OUTPUT_FILE)")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "Show every assertion and capture")
	f.BoolVarP(&o.watch, "watch", "w", false, "Watch files for changes and re-run")
	f.StringVar(&o.waitFor, "wait-for", "", "Poll this URL until it responds before running")
	f.IntVar(&o.waitStatus, "wait-for-status", 200, "Status expected from --wait-for")
	f.DurationVar(&o.waitTimeout, "wait-for-timeout", 30*time.Second, "How long to wait for --wait-for")
	f.DurationVar(&o.waitInterval, "wait-for-interval", 500*time.Millisecond, "Polling interval for --wait-for")
	o.variableOptions.register(cmd)

	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, g *globalOptions, args []string) error {
	ctx := cmd.Context()

	files, err := collectFiles(args)
	if err != nil {
		return usageError(err)
	}
	if len(files) == 0 {
		return usageError(fmt.Errorf("no request files found in %v", args))
	}

	s, err := g.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	base, err := o.resolver(s.log)
	if err != nil {
		_ = s.close(ctx)
		return err
	}

	if o.waitFor != "" {
		s.log.Info().Str("url", o.waitFor).Msg("waiting for service")
		if err := runner.WaitFor(ctx, s.client, o.waitFor, o.waitStatus, o.waitTimeout, o.waitInterval); err != nil {
			_ = s.close(ctx)
			return withCode(ExitNetworkError, err)
		}
	}

	runErr := o.runFiles(ctx, cmd, s, base, files)
	if err := s.close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	if !o.watch {
		return runErr
	}
	if runErr != nil && exitCode(runErr) != ExitTestFailure {
		s.log.Warn().Err(runErr).Msg("run failed")
	}
	return o.watchLoop(ctx, cmd, g, args, files)
}

// runFiles runs every file and reports it. Without a cookie store each file
// gets a fresh jar.
func (o *runOptions) runFiles(ctx context.Context, cmd *cobra.Command, s *session, base *env.Resolver, files []string) error {
	w := cmd.OutOrStdout()
	if o.outputFile != "" {
		f, err := os.Create(o.outputFile)
		if err != nil {
			return configError(fmt.Errorf("creating output file: %w", err))
		}
		defer f.Close()
		w = f
	}

	formatter, err := output.New(o.output, w, s.noColor(), o.verbose)
	if err != nil {
		return usageError(err)
	}

	var (
		failed     int
		networkErr bool
	)
	for _, path := range files {
		opts := []runner.Option{
			runner.WithClient(s.client),
			runner.WithResolver(base.Clone()),
			runner.WithDefaults(s.cfg),
			runner.WithLogger(s.log),
		}
		if s.store != nil {
			opts = append(opts, runner.WithJar(s.jar))
		}

		r := runner.NewRunner(&runner.Config{Bail: o.bail, NameFilter: o.name}, opts...)
		result, err := r.RunFile(ctx, path)
		if err != nil {
			return err
		}
		if err := formatter.FormatResult(result); err != nil {
			return err
		}

		failed += result.Failed
		networkErr = networkErr || result.HasNetworkError()
		if result.Failed > 0 && o.bail {
			break
		}
	}

	switch {
	case networkErr:
		return withCode(ExitNetworkError, errors.New("one or more requests could not be sent"))
	case failed > 0:
		return expectationError(fmt.Errorf("%d request(s) failed", failed))
	}
	return nil
}

// watchLoop re-runs the files whenever one of them is written.
func (o *runOptions) watchLoop(ctx context.Context, cmd *cobra.Command, g *globalOptions, args, files []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	watchedDirs := make(map[string]bool)
	for _, file := range files {
		dir := filepath.Dir(file)
		if !watchedDirs[dir] {
			if err := watcher.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			watchedDirs[dir] = true
		}
	}
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil || !info.IsDir() {
			continue
		}
		_ = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if info.IsDir() && !watchedDirs[path] {
				_ = watcher.Add(path)
				watchedDirs[path] = true
			}
			return nil
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var (
		debounce <-chan time.Time
		changed  string
	)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) && isRequestFile(event.Name) {
				changed = event.Name
				debounce = time.After(WatchDebounceDelay)
			}
		case <-debounce:
			debounce = nil
			fmt.Fprintf(out, "\nFile changed: %s\nRe-running...\n\n", changed)

			current, err := collectFiles(args)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				continue
			}
			if err := o.rerun(ctx, cmd, g, current); err != nil && exitCode(err) != ExitTestFailure {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			}
			fmt.Fprintf(out, "\nWatching for changes... (press Ctrl+C to stop)\n")
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watcher error: %v\n", err)
		}
	}
}

// rerun opens a fresh session so each pass sees the current config and
// cookie store.
func (o *runOptions) rerun(ctx context.Context, cmd *cobra.Command, g *globalOptions, files []string) error {
	s, err := g.openSession(ctx, cmd)
	if err != nil {
		return err
	}
	base, err := o.resolver(s.log)
	if err != nil {
		_ = s.close(ctx)
		return err
	}
	runErr := o.runFiles(ctx, cmd, s, base, files)
	if err := s.close(ctx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func collectFiles(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isRequestFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return files, nil
}

// isRequestFile matches YAML files. Dotfiles such as .hitreq.yaml are
// configuration, not requests.
func isRequestFile(path string) bool {
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	ext := filepath.Ext(name)
	return ext == ".yaml" || ext == ".yml"
}
