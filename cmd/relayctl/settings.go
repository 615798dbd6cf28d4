package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect system settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show system settings and model mappings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := svc.Settings.GetSettings(cmd.Context())
		if err != nil {
			return err
		}
		mappings, err := svc.Settings.GetModelMappings(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]any{"settings": settings, "model_mappings": mappings})
		}
		fmt.Fprintf(out, "Default model:    %s\n", settings.DefaultModel)
		fmt.Fprintf(out, "Streaming:        %t\n", settings.StreamEnabled)
		fmt.Fprintf(out, "Request timeout:  %ds\n", settings.RequestTimeoutSeconds)
		fmt.Fprintf(out, "Log requests:     %t\n", settings.LogRequests)
		for _, m := range mappings {
			fmt.Fprintf(out, "Mapping:          %s -> %s\n", m.From, m.To)
		}
		return nil
	},
}

var settingsResolveCmd = &cobra.Command{
	Use:   "resolve [model]",
	Short: "Show which model a request would be mapped to",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		requested := ""
		if len(args) == 1 {
			requested = args[0]
		}
		model, err := svc.Settings.ResolveModel(cmd.Context(), requested)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), map[string]string{"requested": requested, "model": model})
		}
		fmt.Fprintln(cmd.OutOrStdout(), model)
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsResolveCmd)
}
