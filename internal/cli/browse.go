package cli

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/adstudio/pkg/core/compose"
)

type browseOpts struct {
	output  string
	upload  bool
	noCache bool
}

// browseCommand opens the interactive carousel browser for an ad spec.
func (c *CLI) browseCommand() *cobra.Command {
	var opts browseOpts

	cmd := &cobra.Command{
		Use:   "browse <spec.toml>",
		Short: "Interactively browse carousel images, templates and platforms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "directory for rendered ads (default: current directory)")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "upload rendered ads and add them to the gallery")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact and font cache")

	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, path string, opts *browseOpts) error {
	spec, err := loadAdSpec(path)
	if err != nil {
		return err
	}
	set, err := spec.sources()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, runnerOpts{noCache: opts.noCache, stores: opts.upload, local: true})
	if err != nil {
		return err
	}
	defer runner.Close()

	runner.SessionOptions = append(runner.SessionOptions, compose.WithSources(set))
	sess, err := runner.NewSession(spec.Ad)
	if err != nil {
		return err
	}
	defer sess.Close()

	model := NewBrowseModel(ctx, sess, runner, opts.upload, opts.output)
	_, err = tea.NewProgram(model, tea.WithContext(ctx)).Run()
	return err
}
