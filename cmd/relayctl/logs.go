package main

import (
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Inspect stored request logs",
}

var logsRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the newest request logs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		logs, err := svc.Logs.GetRecent(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), logs)
		}
		printLogTable(cmd.OutOrStdout(), logs)
		return nil
	},
}

var logsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Count stored request logs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")

		var (
			n   int
			err error
		)
		if path == "" {
			n, err = svc.Logs.Count(cmd.Context())
		} else {
			n, err = svc.Logs.CountByPath(cmd.Context(), path)
		}
		if err != nil {
			return err
		}
		printer.Fprintf(cmd.OutOrStdout(), "%d\n", n)
		return nil
	},
}

func init() {
	logsRecentCmd.Flags().Int("limit", 20, "maximum number of logs to show")
	logsCountCmd.Flags().String("path", "", "only count logs for this request path")

	logsCmd.AddCommand(logsRecentCmd)
	logsCmd.AddCommand(logsCountCmd)
}
