package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/foldview/foldview/pkg/fetch"
	"github.com/foldview/foldview/pkg/fslist"
	"github.com/foldview/foldview/pkg/openstate"
	"github.com/foldview/foldview/pkg/ui"
)

func newBrowseCmd() *cobra.Command {
	var root, baseURL, reveal string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Open the terminal tree browser",
		Long: `Open the terminal tree browser against a local directory, or against a
running tree service via --base-url. With --base-url the local directory is
still used as the fallback when the service is unreachable.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				root = cfg.Root
			}
			if baseURL == "" {
				baseURL = cfg.BaseURL
			}
			return runBrowse(root, baseURL, reveal)
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", "", "directory to browse (overrides config)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "tree service URL (overrides config)")
	cmd.Flags().StringVar(&reveal, "reveal", "", "path to expand to and select on startup")
	return cmd
}

func runBrowse(root, baseURL, reveal string) error {
	// Terminal output belongs to the TUI; logs go to a file instead.
	logFile, err := os.OpenFile(
		filepath.Join(os.TempDir(), "foldview.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644,
	)
	if err == nil {
		defer logFile.Close()
		log = log.Output(logFile)
	}

	lister := fslist.NewCachedLister(
		fslist.NewDirLister(root, cfg.AllowHidden),
		log.With().Str("component", "lister").Logger(),
	)
	defer lister.Close()
	if err := lister.Watch(root); err != nil {
		log.Warn().Err(err).Str("root", root).Msg("filesystem watch unavailable")
	}

	store := openstate.NewStore()
	coord := fetch.New(fetch.Config{
		BaseURL: baseURL,
		Store:   store,
		Lister:  lister,
		Logger:  log.With().Str("component", "fetch").Logger(),
	})

	wcfg := cfg.WindowConfig()
	// Terminal rows, not pixels.
	wcfg.RowHeight = 1

	browser := ui.NewBrowser(ui.Config{
		Coordinator: coord,
		Store:       store,
		Refresher:   lister,
		RootPath:    "",
		Reveal:      reveal,
		Window:      wcfg,
	})

	if _, err := tea.NewProgram(browser, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("browse: %w", err)
	}
	return nil
}
