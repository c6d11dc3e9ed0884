package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/hyperifyio/gonews/internal/app"
)

type searchFlags struct {
	limit     int
	category  string
	region    string
	summarize bool
	asJSON    bool
	pdfPath   string
}

func newSearchCmd(opts *options) *cobra.Command {
	var sf searchFlags
	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Run one search and print the results",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context(), opts.flags)
			if err != nil {
				return err
			}
			resp, err := a.Search(cmd.Context(), app.Request{
				Query:     strings.Join(args, " "),
				Limit:     sf.limit,
				Category:  sf.category,
				Region:    sf.region,
				Summarize: sf.summarize,
			})
			if err != nil {
				return err
			}
			if sf.pdfPath != "" {
				if err := app.WritePDF(resp, sf.pdfPath); err != nil {
					return fmt.Errorf("write pdf: %w", err)
				}
				log.Info().Str("path", sf.pdfPath).Msg("pdf written")
			}
			if sf.asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			printText(cmd.OutOrStdout(), resp)
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVar(&sf.limit, "limit", app.DefaultLimit, "Maximum results")
	f.StringVar(&sf.category, "category", "", "Category override; skips classification")
	f.StringVar(&sf.region, "region", "", "Only use sources for this region (Global sources always apply)")
	f.BoolVar(&sf.summarize, "summarize", false, "Read the best articles and print a summary")
	f.BoolVar(&sf.asJSON, "json", false, "Print the full JSON response")
	f.StringVar(&sf.pdfPath, "pdf", "", "Also write a PDF briefing to this path")
	return cmd
}

func printText(w io.Writer, resp *app.Response) {
	fmt.Fprintf(w, "%s [%s] %d of %d results\n", resp.Query, resp.Category, resp.Count, resp.Total)
	if len(resp.Summary) > 0 {
		fmt.Fprintln(w, "\nSummary:")
		for _, p := range resp.Summary {
			fmt.Fprintf(w, "  %s\n", p)
		}
	}
	fmt.Fprintln(w)
	for i, c := range resp.Results {
		fmt.Fprintf(w, "%2d. %s (%s, %d)\n    %s\n", i+1, c.Title, c.SourceName, c.Score, c.URL)
	}
}
