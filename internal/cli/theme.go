package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"folio-terminal/internal/theme"
)

func newThemeCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "theme",
		Short: "Show or change the display mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.themeGet(cmd.Context())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the active mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.themeGet(cmd.Context())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:       "set <light|dark>",
		Short:     "Choose a mode and remember it",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{string(theme.Light), string(theme.Dark)},
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := theme.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%q: %w", args[0], err)
			}
			return app.themeChange(cmd.Context(), func(s themeSetter) { s.Set(v) })
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "toggle",
		Short: "Switch to the other mode and remember it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.themeChange(cmd.Context(), func(s themeSetter) { s.Toggle() })
		},
	})
	return cmd
}

type themeSetter interface {
	Set(theme.Value)
	Toggle()
}

func (a *App) themeGet(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store := a.openStore(false)
	defer store.Close()
	store.Initialize(ctx)

	_, err := fmt.Fprintln(a.Stdout, store.State().Theme)
	return err
}

func (a *App) themeChange(ctx context.Context, change func(themeSetter)) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store := a.openStore(false)
	defer store.Close()
	store.Initialize(ctx)
	change(store)

	_, err := fmt.Fprintln(a.Stdout, store.State().Theme)
	return err
}
