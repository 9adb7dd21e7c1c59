package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adstudio/pkg/pipeline"
	"github.com/matzehuels/adstudio/pkg/storage"
)

// galleryCommand creates the gallery command group.
func (c *CLI) galleryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gallery",
		Short: "Browse and manage generated ads",
	}

	cmd.AddCommand(c.galleryListCommand())
	cmd.AddCommand(c.galleryShowCommand())
	cmd.AddCommand(c.galleryDeleteCommand())

	return cmd
}

func (c *CLI) galleryListCommand() *cobra.Command {
	var opts storage.ListOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List generated ads, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStores(cmd.Context(), func(st storage.RecordStore, _ storage.ObjectStore) error {
				recs, err := st.List(cmd.Context(), opts)
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					printInfo("No ads found")
					return nil
				}
				printLine(galleryTable(recs))
				printDetail("%d ads", len(recs))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "match name, headline or file name")
	cmd.Flags().StringVarP(&opts.Platform, "platform", "p", "", "only this platform")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "maximum number of ads (0 for all)")

	return cmd
}

func (c *CLI) galleryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one generated ad",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStores(cmd.Context(), func(st storage.RecordStore, _ storage.ObjectStore) error {
				rec, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printRecord(rec)
				return nil
			})
		},
	}
}

func (c *CLI) galleryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete generated ads and their images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStores(cmd.Context(), func(st storage.RecordStore, obj storage.ObjectStore) error {
				runner := pipeline.NewRunner(nil, nil, c.Logger)
				runner.Records, runner.Objects = st, obj
				for _, id := range args {
					if err := runner.DeleteAd(cmd.Context(), id); err != nil {
						return fmt.Errorf("delete %s: %w", id, err)
					}
					printSuccess("Deleted %s", id)
				}
				return nil
			})
		},
	}
}

// withStores opens the configured stores for the duration of fn.
func (c *CLI) withStores(ctx context.Context, fn func(storage.RecordStore, storage.ObjectStore) error) error {
	stores, err := c.openStores(ctx)
	if err != nil {
		return err
	}
	defer stores.Close()
	return fn(stores.Records, stores.Objects)
}

func galleryTable(recs []storage.AdRecord) string {
	rows := make([][]string, len(recs))
	for i, r := range recs {
		rows[i] = []string{
			r.ID,
			r.Name,
			r.Platform,
			r.Template,
			strconv.Itoa(r.Width) + "×" + strconv.Itoa(r.Height),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	}
	return renderTable([]string{"ID", "Name", "Platform", "Template", "Size", "Created"}, rows)
}

func printRecord(r *storage.AdRecord) {
	printLine(StyleTitle.Render(r.Name))
	printKeyValue("ID", r.ID)
	printKeyValue("File", r.FileName)
	printKeyValue("Platform", r.Platform)
	printKeyValue("Language", r.Language)
	printKeyValue("Template", r.Template)
	printKeyValue("Headline", r.Headline)
	if r.Description != "" {
		printKeyValue("Description", r.Description)
	}
	printKeyValue("CTA", r.CTA)
	printKeyValue("Accent", r.AccentColor)
	printKeyValue("Size", fmt.Sprintf("%d×%d", r.Width, r.Height))
	if r.ImageURL != "" {
		printKeyValue("URL", StyleLink.Render(r.ImageURL))
	}
	printKeyValue("Created", r.CreatedAt.Local().Format("2006-01-02 15:04:05"))
}
