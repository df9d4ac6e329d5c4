package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [project]",
	Short: "Initialize a .pulse workspace seeded with an example project",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := getProjectRoot()
		if err != nil {
			return err
		}
		services, err := loadServices(cmd.Context(), root)
		if err != nil {
			return err
		}
		defer func() { _ = services.Close() }()

		projectID := "example"
		if len(args) > 0 {
			projectID = args[0]
		}

		written, err := services.Init.InitializeProject(projectID)
		if err != nil {
			return MapError(fmt.Errorf("failed to initialize workspace: %w", err))
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "Initialized pulse workspace for project %s\n", projectID)
		for _, name := range written {
			_, _ = fmt.Fprintf(out, "  .pulse/%s\n", name)
		}
		_, _ = fmt.Fprintln(out, "Run 'pulse insights' to see the first report.")
		return nil
	},
}

func init() {
	RootCmd.AddCommand(initCmd)
}
