package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/core/env"
	"github.com/abdul-hamid-achik/hitreq/packages/logger"
)

// variableOptions are the flags that feed {{name}} substitution.
type variableOptions struct {
	envFiles []string
	vars     []string
}

func (v *variableOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&v.envFiles, "env-file", splitList(getEnvString("HITREQ_ENV_FILE", "")), "Load variables from a .env file, repeatable (env: HITREQ_ENV_FILE)")
	cmd.Flags().StringArrayVar(&v.vars, "var", nil, "Set a variable as name=value, repeatable")
}

// resolver returns a resolver seeded from the env files, then --var. Env
// file entries are also exported so {{$NAME}} sees them.
func (v *variableOptions) resolver(log *logger.Logger) (*env.Resolver, error) {
	for _, path := range v.envFiles {
		if _, err := env.LoadAndExportDotEnv(path); err != nil {
			return nil, configError(err)
		}
	}
	fromFiles, err := env.LoadFiles(v.envFiles...)
	if err != nil {
		return nil, configError(err)
	}

	fromFlags := make(map[string]any, len(v.vars))
	for _, kv := range v.vars {
		k, val, err := splitPair(kv, "=")
		if err != nil {
			return nil, usageError(fmt.Errorf("--var: %w", err))
		}
		fromFlags[k] = val
	}

	r := env.NewResolver()
	r.SetLogger(log)
	r.SetVariables(env.MergeVariables(fromFiles, fromFlags))
	return r, nil
}

// splitPair splits "key<sep>value" and trims both sides. The key must not
// be empty.
func splitPair(s, sep string) (string, string, error) {
	k, v, ok := strings.Cut(s, sep)
	k = strings.TrimSpace(k)
	if !ok || k == "" {
		return "", "", fmt.Errorf("expected key%svalue, got %q", sep, s)
	}
	return k, strings.TrimSpace(v), nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
