package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/amaumene/moviepick/internal/models"
	"github.com/amaumene/moviepick/internal/services/tmdb"
	"github.com/spf13/cobra"
)

// NewSearchCommand creates the search command
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Look up movies or shows on TMDB",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(rootOpts, kind, strings.Join(args, " "), cmd)
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", string(models.MediaTypeMovie), "media type (movie|show)")

	return cmd
}

func runSearch(opts *RootOptions, rawKind, query string, cmd *cobra.Command) error {
	kind, err := models.ParseMediaType(rawKind)
	if err != nil {
		return err
	}

	cfg, logger, err := loadCLI(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	client, err := tmdb.NewClient(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize TMDB client: %w", err)
	}

	results, err := client.Search(cmd.Context(), query, kind)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		if results == nil {
			results = []tmdb.Result{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		_, err := fmt.Fprintln(out, "No results")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tORIGINAL\tRELEASED\tLANGUAGE")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", r.ID, r.Title, r.OriginalTitle, r.ReleaseDate, r.LanguageName)
	}
	return tw.Flush()
}
