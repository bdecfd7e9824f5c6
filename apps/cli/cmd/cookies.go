package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var errNoCookieStore = errors.New("no cookie store configured (use --cookie-store or cookieStore in the config file)")

func newCookiesCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cookies",
		Short: "Inspect or edit the persisted cookie jar",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List the cookies in the store",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := g.openSession(cmd.Context(), cmd)
				if err != nil {
					return err
				}
				if s.store == nil {
					return usageError(errNoCookieStore)
				}
				defer s.store.Close()

				cookies := s.jar.Cookies()
				if len(cookies) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No cookies stored.")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tVALUE\tDOMAIN\tPATH\tEXPIRES")
				for _, c := range cookies {
					expires := "session"
					if !c.Expires.IsZero() {
						expires = c.Expires.UTC().Format("2006-01-02 15:04:05")
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Value, c.Domain, c.Path, expires)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "set <name=value>...",
			Short: "Add or replace cookies in the store",
			Args:  minArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				s, err := g.openSession(ctx, cmd)
				if err != nil {
					return err
				}
				if s.store == nil {
					return usageError(errNoCookieStore)
				}
				for _, kv := range args {
					k, v, err := splitPair(kv, "=")
					if err != nil {
						_ = s.store.Close()
						return usageError(err)
					}
					s.jar.Set(k, v)
				}
				return s.close(ctx)
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove every cookie from the store",
			Args:  exactArgs(0),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				s, err := g.openSession(ctx, cmd)
				if err != nil {
					return err
				}
				if s.store == nil {
					return usageError(errNoCookieStore)
				}
				defer s.store.Close()

				n := s.jar.Len()
				if err := s.store.Clear(ctx); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cookie(s) from %s\n", n, s.store.Path())
				return nil
			},
		},
	)
	return cmd
}
