package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/skylog/internal/app"
	"github.com/MrSnakeDoc/skylog/internal/domain"
	"github.com/MrSnakeDoc/skylog/internal/photo"
	"github.com/MrSnakeDoc/skylog/internal/utils"
)

func newObservationsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "observations",
		Aliases: []string{"obs"},
		Short:   "List or add observations",
	}
	cmd.AddCommand(newObservationsListCmd(opts), newObservationsAddCmd(opts))
	return cmd
}

func newObservationsListCmd(opts *rootOptions) *cobra.Command {
	var (
		category string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List observations, optionally filtered by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := domain.ParseFilter(category)
			if err != nil {
				return err
			}

			cfg, log := opts.env()
			store, closer, err := app.OpenStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer utils.Close(closer)

			observations := store.Filter(filter)
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(observations)
			}

			cat, err := app.LoadCatalogue(cfg)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tCATEGORY\tOBJECT\tKEEP\tCOMMENT")
			for _, o := range observations {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%v\t%s\n",
					o.ID, o.Date, o.Category, cat.NameOf(o.LinkedCatalogueID), o.Keep, firstLine(o.Comment))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&category, "category", "all", "Galaxy, Nebula, Cluster, Other or all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newObservationsAddCmd(opts *rootOptions) *cobra.Command {
	var (
		photoPath string
		date      string
		comment   string
		category  string
		messier   int
		keep      bool
		watermark bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an observation from an image file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log := opts.env()

			data, err := readPhoto(photoPath, cfg.MaxPhotoBytes)
			if err != nil {
				return err
			}

			c := domain.Candidate{
				PhotoData:   data,
				Comment:     comment,
				Date:        date,
				Category:    category,
				Keep:        &keep,
				Watermarked: watermark,
			}
			if cmd.Flags().Changed("messier") {
				c.LinkedCatalogueID = &messier
			}

			store, closer, err := app.OpenStore(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer utils.Close(closer)

			obs, err := store.Add(cmd.Context(), c)
			if err != nil {
				var verr *domain.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("observation rejected: %s", verr.Message)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added observation %d (%s, %s)\n", obs.ID, obs.Category, obs.Date)
			return nil
		},
	}

	cmd.Flags().StringVar(&photoPath, "photo", "", "Image file (png, jpeg, webp, gif)")
	cmd.Flags().StringVar(&date, "date", time.Now().Format(domain.DateLayout), "Night of the observation (YYYY-MM-DD)")
	cmd.Flags().StringVar(&comment, "comment", "", "Free text, Markdown allowed")
	cmd.Flags().StringVar(&category, "category", string(domain.DefaultCategory), "Galaxy, Nebula, Cluster or Other")
	cmd.Flags().IntVar(&messier, "messier", 0, "Linked catalogue id")
	cmd.Flags().BoolVar(&keep, "keep", true, "Keep the observation")
	cmd.Flags().BoolVar(&watermark, "watermark", false, "Request a watermark (recorded only)")
	return cmd
}

// readPhoto returns the file as a data URL. An empty path gives "" so that
// the store reports the missing photo.
func readPhoto(path string, limit int64) (string, error) {
	if path == "" {
		return "", nil
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open photo: %w", err)
	}
	defer utils.Close(f)

	return photo.ReadDataURL(f, photo.TypeByExtension(path), limit)
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i] + " …"
		}
	}
	return s
}
