package cli

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/adstudio/pkg/core/capture"
	"github.com/matzehuels/adstudio/pkg/core/carousel"
	"github.com/matzehuels/adstudio/pkg/core/compose"
	"github.com/matzehuels/adstudio/pkg/pipeline"
)

// adSpec is the TOML file the render and browse commands read:
//
//	images = ["https://example.com/a.jpg", "file:///tmp/b.png"]
//
//	[ad]
//	name = "Summer Sale"
//	headline = "Up to 50% off"
//	cta = "Shop now"
//	template = "modern"
//	platform = "instagram"
//
//	[ad.colors]
//	accent = "#4A90E2"
//
//	[output]
//	format = "jpeg"
//	quality = 90
type adSpec struct {
	Ad     compose.State `toml:"ad"`
	Images []string      `toml:"images"`
	Output outputSpec    `toml:"output"`
}

type outputSpec struct {
	Format  string `toml:"format"`
	Quality int    `toml:"quality"`
}

// loadAdSpec reads and decodes path. Unknown keys are an error.
func loadAdSpec(path string) (*adSpec, error) {
	var spec adSpec
	md, err := toml.DecodeFile(path, &spec)
	if err != nil {
		return nil, fmt.Errorf("read ad spec %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("ad spec %s: unknown key %q", path, undecoded[0].String())
	}
	if spec.Ad.Template == "" {
		spec.Ad.Template = compose.DefaultTemplate
	}
	if spec.Ad.ImageURL == "" && len(spec.Images) > 0 {
		spec.Ad.ImageURL = spec.Images[0]
	}
	return &spec, nil
}

// sources builds the carousel for the spec's images.
func (s *adSpec) sources() (*carousel.SourceSet, error) {
	return carousel.NewSourceSet(s.Images...)
}

// options converts the spec into pipeline options.
func (s *adSpec) options() pipeline.Options {
	return pipeline.Options{
		State:   s.Ad,
		Format:  capture.Format(s.Output.Format),
		Quality: s.Output.Quality,
	}
}
