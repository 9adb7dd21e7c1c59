package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adstudio/pkg/core/compose"
)

// templatesCommand lists the template catalog.
func (c *CLI) templatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List ad templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printLine(templatesTable(compose.Templates()))
			return nil
		},
	}
}

// platformsCommand lists the platform catalog.
func (c *CLI) platformsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List platforms and their output sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printLine(platformsTable(compose.Platforms()))
			return nil
		},
	}
}

func templatesTable(ts []compose.Template) string {
	rows := make([][]string, len(ts))
	for i, t := range ts {
		id := string(t.ID)
		if t.ID == compose.DefaultTemplate {
			id += " *"
		}
		rows[i] = []string{id, t.Name, t.Description, t.Scheme.Accent, t.Scheme.CTA}
	}
	return renderTable([]string{"ID", "Name", "Description", "Accent", "CTA"}, rows)
}

func platformsTable(ps []compose.Platform) string {
	rows := make([][]string, len(ps))
	for i, p := range ps {
		id := p.ID
		if p.ID == compose.DefaultPlatform {
			id += " *"
		}
		rows[i] = []string{
			id,
			p.Name,
			strconv.Itoa(p.Width) + "×" + strconv.Itoa(p.Height),
			fmt.Sprintf("%.2f", p.AspectRatio()),
		}
	}
	return renderTable([]string{"ID", "Name", "Size", "Ratio"}, rows)
}
