package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/skylog/internal/app"
)

func newCatalogueCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "catalogue [id]",
		Short: "Print the reference catalogue, or one entry",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _ := opts.env()
			cat, err := app.LoadCatalogue(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid catalogue id %q", args[0])
				}
				e, ok := cat.FindByID(id)
				if !ok {
					return fmt.Errorf("no catalogue entry with id %d", id)
				}
				fmt.Fprintf(out, "%s (%s)\n%s\n", e.Name, e.Type, e.Description)
				if e.Note != "" {
					fmt.Fprintln(out, e.Note)
				}
				fmt.Fprintln(out, cat.EncyclopediaURL(e))
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tTYPE\tDESCRIPTION")
			for _, e := range cat.List() {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", e.ID, e.Name, e.Type, e.Description)
			}
			return tw.Flush()
		},
	}
}
