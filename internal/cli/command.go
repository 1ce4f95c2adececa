package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/galleryexplorer/internal"
)

// Runner executes the application modes. It is built lazily, after the
// configuration has been loaded.
type Runner interface {
	Search(ctx context.Context, query string) error
	Download(ctx context.Context, query string, pick []int, limit int) error
	GalleryList() error
	GalleryClear(confirmed bool) error
	History(ctx context.Context, limit int) error
	Batch(ctx context.Context, file string) error
	Archive() error
	GUI() error
	Close() error
}

// RunnerFactory builds the Runner from the resolved configuration
type RunnerFactory func(cfg Config) (Runner, error)

// CreateRootCommand creates and configures the root cobra command and its
// subcommands
func CreateRootCommand(flags *Flags, factory RunnerFactory) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "galleryexplorer",
		Short: "Image search and gallery downloader",
		Long: `galleryexplorer searches Google, Bing and DuckDuckGo images, previews
the results and downloads the selected ones into a local gallery.

Examples:
  galleryexplorer                          # Launch interactive GUI (default)
  galleryexplorer search "red fox"         # Print image URLs
  galleryexplorer download "red fox" -n 5  # Download the first 5 results
  galleryexplorer --batch queries.txt      # Search and download every query in a file
  galleryexplorer gallery list             # List downloaded images`,
		Args:         cobra.NoArgs,
		Version:      internal.Version,
		SilenceUsage: true,
	}

	setupFlags(rootCmd, flags)

	withRunner := func(cmd *cobra.Command, fn func(Runner) error) error {
		r, err := factory(LoadConfig())
		if err != nil {
			return err
		}
		defer r.Close()
		return fn(r)
	}

	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return withRunner(cmd, func(r Runner) error {
			switch {
			case flags.Archive:
				return r.Archive()
			case flags.BatchFile != "":
				return r.Batch(cmd.Context(), flags.BatchFile)
			default:
				return r.GUI()
			}
		})
	}

	searchCmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search images and print their URLs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, func(r Runner) error {
				return r.Search(cmd.Context(), strings.Join(args, " "))
			})
		},
	}

	downloadCmd := &cobra.Command{
		Use:   "download QUERY...",
		Short: "Search images and download a selection of them",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, func(r Runner) error {
				return r.Download(cmd.Context(), strings.Join(args, " "), flags.Pick, flags.Limit)
			})
		},
	}
	downloadCmd.Flags().IntSliceVar(&flags.Pick, "pick", nil, "Result indices to download (e.g. 0,3,5)")
	downloadCmd.Flags().IntVarP(&flags.Limit, "limit", "n", 0, "Download the first N results (0 = all)")
	downloadCmd.MarkFlagsMutuallyExclusive("pick", "limit")

	galleryCmd := &cobra.Command{
		Use:   "gallery",
		Short: "Inspect or clear the download folder",
	}
	galleryCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List gallery images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, func(r Runner) error { return r.GalleryList() })
		},
	})
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every image in the gallery (irreversible)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, func(r Runner) error { return r.GalleryClear(flags.Yes) })
		},
	}
	clearCmd.Flags().BoolVarP(&flags.Yes, "yes", "y", false, "Confirm deletion without prompting")
	galleryCmd.AddCommand(clearCmd)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent searches and downloads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRunner(cmd, func(r Runner) error { return r.History(cmd.Context(), flags.HistoryLimit) })
		},
	}
	historyCmd.Flags().IntVarP(&flags.HistoryLimit, "limit", "n", flags.HistoryLimit, "Number of entries to show")

	rootCmd.AddCommand(searchCmd, downloadCmd, galleryCmd, historyCmd)

	return rootCmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.galleryexplorer.yaml)")
	pf.StringVarP(&flags.OutputDir, "output", "o", flags.OutputDir, "Gallery (download) directory")
	pf.StringVarP(&flags.Engine, "engine", "e", flags.Engine, "Search engine: google, bing or duckduckgo")
	pf.StringVar(&flags.Size, "size", flags.Size, "Size filter: any, large, medium or small")
	pf.StringVar(&flags.Color, "color", flags.Color, "Color filter: any, grayscale, transparent, red, blue or green")
	pf.BoolVar(&flags.SafeSearch, "safe", false, "Enable safe search")
	pf.StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn or error")
	pf.BoolVar(&flags.History, "history", flags.History, "Record searches and downloads in the history database")
	pf.StringVar(&flags.HistoryPath, "history-path", "", "History database (default is $HOME/.galleryexplorer/history.db)")

	// Local flags
	cmd.Flags().StringVar(&flags.BatchFile, "batch", "", "Search and download every query in file (one per line, optional '= engine')")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Move the gallery to archive/gallery-TIMESTAMP and exit")

	bindFlagsToViper(pf)
}

func bindFlagsToViper(fs *pflag.FlagSet) {
	viper.BindPFlag("output.directory", fs.Lookup("output"))
	viper.BindPFlag("search.engine", fs.Lookup("engine"))
	viper.BindPFlag("search.size", fs.Lookup("size"))
	viper.BindPFlag("search.color", fs.Lookup("color"))
	viper.BindPFlag("search.safe", fs.Lookup("safe"))
	viper.BindPFlag("log.level", fs.Lookup("log-level"))
	viper.BindPFlag("history.enabled", fs.Lookup("history"))
	viper.BindPFlag("history.path", fs.Lookup("history-path"))
}

// ParsePick validates --pick indices against the number of results
func ParsePick(pick []int, n int) ([]int, error) {
	seen := make(map[int]bool, len(pick))
	var out []int
	for _, i := range pick {
		if i < 0 || i >= n {
			return nil, fmt.Errorf("pick index %d out of range (0..%d)", i, n-1)
		}
		if !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	return out, nil
}
