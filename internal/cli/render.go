package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adstudio/pkg/core/capture"
	"github.com/matzehuels/adstudio/pkg/core/compose"
	"github.com/matzehuels/adstudio/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
// Non-empty flags override the ad spec.
type renderOpts struct {
	output   string // output file, or directory for the generated name
	format   string // png or jpeg
	quality  int    // JPEG quality
	template string
	platform string
	image    string
	upload   bool // store the ad and record it in the gallery
	noCache  bool
	refresh  bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [spec.toml]",
		Short: "Render an ad spec to an image",
		Long: `Render an ad described by a TOML ad spec to a PNG or JPEG at the
platform's output size. The file is named after the ad's metadata unless
--output names a file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file or directory (default: generated name in the current directory)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: png (default), jpeg")
	cmd.Flags().IntVar(&opts.quality, "quality", 0, "JPEG quality (1-100)")
	cmd.Flags().StringVarP(&opts.template, "template", "t", "", "template id (see 'adstudio templates')")
	cmd.Flags().StringVarP(&opts.platform, "platform", "p", "", "platform id (see 'adstudio platforms')")
	cmd.Flags().StringVar(&opts.image, "image", "", "background image URL or file:// path")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "upload the ad and add it to the gallery")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact and font cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if a cached artifact exists")

	return cmd
}

// runRender loads the spec, applies flag overrides and runs the pipeline.
func (c *CLI) runRender(ctx context.Context, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)

	spec, err := loadAdSpec(path)
	if err != nil {
		return err
	}
	popts := spec.options()
	opts.apply(&popts)
	prog.step("loaded spec", "path", path, "template", popts.State.Template, "platform", popts.State.Platform)

	runner, err := c.newRunner(ctx, runnerOpts{noCache: opts.noCache, stores: opts.upload, local: true})
	if err != nil {
		return err
	}
	defer runner.Close()

	spin := newSpinnerWithContext(ctx, "Rendering "+popts.State.Name+"...")
	spin.Start()
	res, err := runner.Generate(ctx, popts)
	switch {
	case err != nil:
		spin.StopWithError("Render failed")
		return err
	case res.Artifact.Degraded && !res.Remote:
		spin.StopWithWarning("Rendering failed; writing a placeholder instead")
	default:
		spin.Stop()
	}
	prog.step("generated", "strategy", res.Artifact.Strategy, "cached", res.CacheInfo.CaptureHit, "remote", res.Remote)

	out := outputPath(opts.output, res.FileName)
	if err := os.WriteFile(out, res.Artifact.Data, 0o644); err != nil {
		return err
	}
	prog.done("Rendered " + res.FileName)

	printSuccess("Rendered %s", StyleValue.Render(res.FileName))
	printAdStats(res.Artifact.Width, res.Artifact.Height, res.Artifact.Strategy, res.CacheInfo.CaptureHit, res.Artifact.Degraded)
	printFile(out)
	if res.URL != "" {
		printKeyValue("URL", StyleLink.Render(res.URL))
	}
	if res.Record != nil {
		printKeyValue("Gallery ID", res.Record.ID)
	}
	return nil
}

// apply overrides the ad spec with non-empty flags.
func (o *renderOpts) apply(p *pipeline.Options) {
	if o.format != "" {
		p.Format = capture.Format(o.format)
	}
	if o.quality > 0 {
		p.Quality = o.quality
	}
	if o.template != "" {
		p.State.ApplyTemplate(compose.TemplateID(o.template))
	}
	if o.platform != "" {
		p.State.Platform = o.platform
	}
	if o.image != "" {
		p.State.ImageURL = o.image
	}
	p.Upload = o.upload
	p.Refresh = o.refresh
}

// outputPath resolves where to write the artifact. An empty output or an
// existing directory receives the generated name.
func outputPath(output, generated string) string {
	if output == "" {
		return generated
	}
	if strings.HasSuffix(output, string(os.PathSeparator)) {
		return filepath.Join(output, generated)
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, generated)
	}
	return output
}
