package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/checkmark/internal/adapter"
	"github.com/mmcdole/checkmark/internal/trigger"
	"github.com/mmcdole/checkmark/internal/tui"
	"github.com/mmcdole/checkmark/internal/tui/styles"
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var verboseFlag bool

	ctx := newCommandContext(&configFlag, &verboseFlag)

	rootCmd := &cobra.Command{
		Use:           "checkmark [album-or-playlist]",
		Short:         "Show which catalog tracks are already in your library",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			_, err := ctx.ensureSettings()
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			ctx.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var ref string
			if len(args) == 1 {
				ref = args[0]
			}
			return runTUI(cmd.Context(), ctx, ref)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newRefreshCommand(ctx))
	rootCmd.AddCommand(newClearCacheCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newLoginCommand(ctx))
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func runTUI(parent context.Context, ctx *commandContext, initialRef string) error {
	a, err := ctx.buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	logger := a.logger
	logger.Info("starting checkmark", "version", Version)

	if _, ok := a.settings.CurrentTokens(); !ok {
		return fmt.Errorf("catalog tokens are not configured, run 'checkmark login' first")
	}

	cfg := a.settings.Current()
	styles.Use(cfg.UI.Theme)

	// Durations and tokens are read live; the watcher keeps them current
	a.settings.OnChange(func(cfg adapter.Config) {
		logger.Info("settings changed",
			"libraryCacheMinutes", cfg.Cache.LibraryCacheDurationMinutes,
			"loadingIndicator", cfg.UI.EnableLoadingIndicator)
	})
	a.settings.Watch()

	view := tui.NewViewTracker()
	trig := trigger.New(parent, a.engine, a.cache, view, adapter.ComponentLogger(logger, "trigger"))
	defer trig.Stop()

	model := tui.NewModel(tui.Deps{
		Browser:     a.client,
		Credentials: a.settings,
		Controller:  trig,
		Passes:      a.engine,
		Marks:       a.marks,
		View:        view,
		Logger:      adapter.ComponentLogger(logger, "tui"),
		Storefront: func() string {
			return a.settings.Current().Catalog.Storefront
		},
		LoadingIndicator: func() bool {
			return a.settings.Current().UI.EnableLoadingIndicator
		},
		InitialRef: initialRef,
	})

	trig.Start()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(parent))

	logger.Info("starting TUI")

	if _, err := p.Run(); err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "checkmark %s\n", Version)
		},
	}
}
