package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mmcdole/checkmark/internal/catalog"
	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/mmcdole/checkmark/internal/reconcile"
	"github.com/spf13/cobra"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var albumFlag string
	var forceFlag bool

	cmd := &cobra.Command{
		Use:   "check [catalog-id...]",
		Short: "Check whether catalog tracks are in your library",
		Long: `Check whether catalog tracks are in your library.

Pass catalog song ids as arguments, or --album with an album reference
(album:<id> or a music.apple.com link) to check every track on it.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if albumFlag == "" && len(args) == 0 {
				return fmt.Errorf("pass catalog ids or --album")
			}

			a, err := ctx.buildApp()
			if err != nil {
				return err
			}
			defer a.close()

			view, titles, err := checkView(cmd.Context(), a, albumFlag, args)
			if err != nil {
				return err
			}

			result := a.engine.Process(cmd.Context(), view, forceFlag)
			if result.Outcome == reconcile.OutcomeUnresolved {
				return fmt.Errorf("could not load your library: %w", result.Err)
			}

			printVerdicts(cmd.OutOrStdout(), a.marks, view.VisibleIDs, titles)
			fmt.Fprintf(cmd.OutOrStdout(), "\n%d from cache, %d resolved, %d found\n",
				result.Cached, result.Resolved, result.Found)
			return nil
		},
	}

	cmd.Flags().StringVar(&albumFlag, "album", "", "Album reference to check")
	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Ignore cached verdicts")

	return cmd
}

// checkView builds the view for a check run. Titles are only known for albums.
func checkView(ctx context.Context, a *app, albumRef string, ids []string) (domain.ViewState, map[string]string, error) {
	if albumRef == "" {
		return domain.ViewState{
			Identity:   "cli/" + strings.Join(ids, ","),
			Qualifying: true,
			VisibleIDs: ids,
		}, nil, nil
	}

	ref, err := catalog.ParseRef(albumRef)
	if err != nil {
		return domain.ViewState{}, nil, err
	}
	if ref.Kind != domain.ViewKindAlbum {
		return domain.ViewState{}, nil, fmt.Errorf("library indicators are only available for albums")
	}

	tokens, ok := a.settings.CurrentTokens()
	if !ok {
		return domain.ViewState{}, nil, domain.ErrNotAuthenticated
	}
	storefront := ref.Storefront
	if storefront == "" {
		storefront = a.settings.Current().Catalog.Storefront
	}

	album, err := a.client.Album(ctx, tokens, storefront, ref.ID)
	if err != nil {
		return domain.ViewState{}, nil, fmt.Errorf("failed to load %s: %w", ref.Identity(), err)
	}

	titles := make(map[string]string, len(album.Tracks))
	for _, t := range album.Tracks {
		titles[t.ID] = fmt.Sprintf("%2d. %s", t.TrackNumber, t.Title)
	}

	ids = append(ids, album.TrackIDs()...)
	return domain.ViewState{
		Identity:   album.Identity(),
		Qualifying: true,
		VisibleIDs: ids,
	}, titles, nil
}

func printVerdicts(out io.Writer, marks *reconcile.Marks, ids []string, titles map[string]string) {
	for _, id := range ids {
		mark := "?"
		source := ""
		if v, ok := marks.Get(id); ok {
			mark = "✗"
			if v.InLibrary {
				mark = "✓"
			}
			if v.FromCache {
				source = " (cached)"
			}
		}
		label := id
		if title, ok := titles[id]; ok {
			label = title
		}
		fmt.Fprintf(out, "%s  %s%s\n", mark, label, source)
	}
}
