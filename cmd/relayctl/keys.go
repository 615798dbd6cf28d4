package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akagifreeez/cookie-relay/internal/models"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage API keys",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List API keys (masked)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := svc.Keys.GetKeys(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			masked := make([]any, 0, len(keys))
			for _, k := range keys {
				masked = append(masked, k.Masked())
			}
			return printJSON(cmd.OutOrStdout(), masked)
		}
		printKeyTable(cmd.OutOrStdout(), keys)
		return nil
	},
}

var keysAddCmd = &cobra.Command{
	Use:   "add [key]",
	Short: "Add an API key, generating one when omitted",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		label, _ := cmd.Flags().GetString("label")
		secret := ""
		if len(args) == 1 {
			secret = args[0]
		}

		key, err := svc.Keys.AddKey(cmd.Context(), secret, label)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), key)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s\n", key.ID, key.Key)
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete non-default API keys",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, id := range args {
			ok, err := svc.Keys.DeleteKey(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			if !ok {
				return fmt.Errorf("key %s not found or is a default key", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
		}
		return nil
	},
}

func setEnabledCmd(use, short, done string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				ok, err := svc.Keys.SetEnabled(cmd.Context(), id, enabled)
				if err != nil {
					return fmt.Errorf("%s %s: %w", use, id, err)
				}
				if !ok {
					return fmt.Errorf("key %s not found", id)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", done, id)
			}
			return nil
		},
	}
}

var keysLabelCmd = &cobra.Command{
	Use:   "label <id> <label>",
	Short: "Change an API key's label",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ok, err := svc.Keys.UpdateKey(cmd.Context(), args[0], models.ApiKeyPatch{Label: &args[1]})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key %s not found", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Labelled %s\n", args[0])
		return nil
	},
}

func init() {
	keysAddCmd.Flags().String("label", "", "label shown in listings")

	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysAddCmd)
	keysCmd.AddCommand(keysDeleteCmd)
	keysCmd.AddCommand(setEnabledCmd("enable", "Accept API keys again", "Enabled", true))
	keysCmd.AddCommand(setEnabledCmd("disable", "Stop accepting API keys without deleting them", "Disabled", false))
	keysCmd.AddCommand(keysLabelCmd)
}
