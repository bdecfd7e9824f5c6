package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitreq/packages/core/config"
)

const exampleRequests = `# Requests run in order and share one cookie jar.
baseUrl: "{{baseUrl}}"

variables:
  baseUrl: http://localhost:3000

headers:
  Accept: application/json

requests:
  - name: health
    url: /health
    expect:
      status: 200

  - name: login
    method: POST
    url: /login
    data:
      username: demo
      password: "{{$DEMO_PASSWORD}}"
    expect:
      status: [200, 204]
      assert:
        - cookie session exists

  - name: createResource
    method: POST
    url: /resources
    json:
      name: Test Resource
      id: "{{uuid()}}"
    capture:
      resourceId: body.id
    expect:
      status: 201
      assert:
        - body.name == "Test Resource"

  - name: getResource
    url: /resources/{id}
    path:
      id: "{{createResource.resourceId}}"
    expect:
      status: 200
      assert:
        - body.id == {{createResource.resourceId}}

  - name: renameResource
    method: PATCH
    url: /resources/{id}
    path:
      id: "{{resourceId}}"
    json:
      name: Renamed
    expect:
      status: 200
`

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a config file and an example request file",
		Long: `Initialize a hitreq project.

This creates:
  - .hitreq.yaml   - Configuration with request defaults
  - example.yaml   - Example request file

Examples:
  hitreq init
  hitreq init ./api --force`,
		Args: func(cmd *cobra.Command, args []string) error {
			return usageError(cobra.MaximumNArgs(1)(cmd, args))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0755); err != nil {
				return err
			}

			configFile := filepath.Join(dir, config.ConfigFilenames[0])
			exampleFile := filepath.Join(dir, "example.yaml")

			if !force {
				for _, f := range []string{configFile, exampleFile} {
					if _, err := os.Stat(f); err == nil {
						return usageError(fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
					}
				}
			}

			cfg := config.DefaultConfig()
			cfg.UserAgent = "hitreq/" + version
			cfg.CookieStore = ".hitreq-cookies.db"
			if err := cfg.SaveConfig(configFile); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

			if err := os.WriteFile(exampleFile, []byte(exampleRequests), 0644); err != nil {
				return fmt.Errorf("failed to create example file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

			fmt.Fprintf(cmd.OutOrStdout(), "\nhitreq project initialized!\n")
			fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitreq run %s' to send the example requests.\n", exampleFile)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing files")
	return cmd
}
