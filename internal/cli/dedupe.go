package cli

import (
	"context"
	"fmt"
	"image"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/matzehuels/adstudio/pkg/core/carousel"
	"github.com/matzehuels/adstudio/pkg/core/compose"
)

// dedupeCommand flags carousel images that hash identically.
func (c *CLI) dedupeCommand() *cobra.Command {
	var specPath string

	cmd := &cobra.Command{
		Use:   "dedupe [image...]",
		Short: "Find duplicate carousel images",
		Long: `Hash every image with a 50×50 average hash and report groups that
hash identically. Images can be given as arguments or taken from an ad
spec's images list. Equal hashes are a hint: similar compositions collide.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if specPath != "" {
				spec, err := loadAdSpec(specPath)
				if err != nil {
					return err
				}
				urls = append(spec.Images, urls...)
			}
			if len(urls) < 2 {
				return fmt.Errorf("need at least two images")
			}
			return c.runDedupe(cmd.Context(), urls)
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "take images from this ad spec")

	return cmd
}

func (c *CLI) runDedupe(ctx context.Context, urls []string) error {
	logger := loggerFromContext(ctx)

	set, err := carousel.NewSourceSet(urls...)
	if err != nil {
		return err
	}
	images := compose.NewPreloadCache(compose.NewImageLoader(compose.WithLoaderLogger(logger), compose.WithLocalFiles()))
	defer images.Close()

	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Hashing %d images...", set.Len()))
	spin.Start()
	f := &countingFetcher{inner: images, total: set.Len(), spin: spin}
	groups, err := carousel.DetectDuplicates(ctx, f, set, logger)
	spin.Stop()
	if err != nil {
		return err
	}

	if len(groups) == 0 {
		printSuccess("No duplicates among %d images", set.Len())
		return nil
	}
	printWarning("%d duplicate groups", len(groups))
	for _, g := range groups {
		var parts []string
		for _, i := range g {
			src, _ := set.At(i)
			parts = append(parts, fmt.Sprintf("[%d] %s", i, src.URL))
		}
		printDetail("%s", strings.Join(parts, "  ≡  "))
	}
	return nil
}

// countingFetcher reports hashing progress on the spinner.
type countingFetcher struct {
	inner carousel.Fetcher
	total int
	n     atomic.Int32
	spin  *Spinner
}

func (f *countingFetcher) Fetch(ctx context.Context, ref string) (image.Image, error) {
	img, err := f.inner.Fetch(ctx, ref)
	f.spin.Update(fmt.Sprintf("Hashing images %d/%d...", f.n.Add(1), f.total))
	return img, err
}
