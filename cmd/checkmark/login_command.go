package main

import (
	"fmt"

	"github.com/mmcdole/checkmark/internal/adapter"
	"github.com/spf13/cobra"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var skipVerify bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store catalog developer and media user tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			current, _ := a.settings.CurrentTokens()
			flow := adapter.NewLoginFlow(adapter.ComponentLogger(a.logger, "login"))

			verify := adapter.TokenVerifier(a.client.VerifyTokens)
			if skipVerify {
				verify = nil
			}

			tokens, err := flow.Run(cmd.Context(), current, verify)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}

			if err := a.settings.SaveTokens(tokens); err != nil {
				return err
			}

			// New credentials may see a different library
			a.cache.Invalidate()

			fmt.Fprintf(cmd.OutOrStdout(), "Tokens saved to %s\n", a.settings.ConfigFile())
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipVerify, "no-verify", false, "Save without checking the tokens against the catalog")
	return cmd
}
