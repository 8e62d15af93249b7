package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/amaumene/moviepick/internal/aggregate"
	"github.com/amaumene/moviepick/internal/controllers"
	"github.com/amaumene/moviepick/internal/models"
	"github.com/spf13/cobra"
)

// NewTonightCommand creates the tonight command
func NewTonightCommand(rootOpts *RootOptions) *cobra.Command {
	var types []string

	cmd := &cobra.Command{
		Use:   "tonight",
		Short: "Print the eligible backlog, best average vote first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTonight(rootOpts, types, cmd)
		},
	}

	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "restrict to media types (movie, show)")

	return cmd
}

func runTonight(opts *RootOptions, rawTypes []string, cmd *cobra.Command) error {
	mediaTypes := make([]models.MediaType, 0, len(rawTypes))
	for _, raw := range rawTypes {
		t, err := models.ParseMediaType(raw)
		if err != nil {
			return err
		}
		mediaTypes = append(mediaTypes, t)
	}

	cfg, logger, err := loadCLI(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	db, err := models.NewDatabase(cfg.DatabaseFile)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	rows, err := controllers.NewBacklogController(db, cfg.Roster, logger).Tonight(mediaTypes...)
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		if rows == nil {
			rows = []aggregate.Row{}
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	return printRows(cmd.OutOrStdout(), cfg.Roster, rows)
}

func printRows(out io.Writer, roster models.Roster, rows []aggregate.Row) error {
	if len(rows) == 0 {
		_, err := fmt.Fprintln(out, "Nothing eligible tonight")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tNAME\tTYPE\tAVG\t%s\n", strings.ToUpper(strings.Join(roster, "\t")))
	for i, row := range rows {
		labels := make([]string, len(row.Votes))
		for j, col := range row.Votes {
			labels[j] = col.Label
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%+.2f\t%s\n", i+1, row.Name, row.Type, *row.VotesAvg, strings.Join(labels, "\t"))
	}
	return tw.Flush()
}
