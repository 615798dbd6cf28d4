package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akagifreeez/cookie-relay/internal/services"
)

var cookiesCmd = &cobra.Command{
	Use:   "cookies",
	Short: "Manage upstream cookies",
}

var cookiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cookies, oldest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		validOnly, _ := cmd.Flags().GetBool("valid")

		list := svc.Cookies.List
		if validOnly {
			list = svc.Cookies.GetValidCookies
		}
		cookies, err := list(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cookies)
		}
		printCookieTable(cmd.OutOrStdout(), cookies)
		return nil
	},
}

var cookiesAddCmd = &cobra.Command{
	Use:   "add <value>",
	Short: "Add a cookie",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, _ := cmd.Flags().GetString("label")

		cookie, err := svc.Cookies.Add(cmd.Context(), args[0], label)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cookie)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s\n", cookie.ID)
		return nil
	},
}

var cookiesResetCmd = &cobra.Command{
	Use:   "reset <id>...",
	Short: "Clear the fail count and mark cookies valid",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			cookie, err := svc.Cookies.ResetFailCount(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("reset %s: %w", id, err)
			}
			if cookie == nil {
				return fmt.Errorf("cookie %s not found", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset %s\n", id)
		}
		return nil
	},
}

var cookiesNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Print the next valid cookie and stamp its last use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cookie, err := svc.Cookies.Next(cmd.Context())
		if errors.Is(err, services.ErrNoValidCookies) {
			return errors.New("no valid cookies")
		}
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cookie)
		}
		fmt.Fprintln(cmd.OutOrStdout(), cookie.Value)
		return nil
	},
}

var cookiesDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete non-default cookies",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			ok, err := svc.Cookies.Delete(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			if !ok {
				return fmt.Errorf("cookie %s not found or is a default cookie", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		}
		return nil
	},
}

func init() {
	cookiesListCmd.Flags().Bool("valid", false, "only list valid cookies")
	cookiesAddCmd.Flags().String("label", "", "label shown in listings")

	cookiesCmd.AddCommand(cookiesListCmd)
	cookiesCmd.AddCommand(cookiesAddCmd)
	cookiesCmd.AddCommand(cookiesResetCmd)
	cookiesCmd.AddCommand(cookiesNextCmd)
	cookiesCmd.AddCommand(cookiesDeleteCmd)
}
