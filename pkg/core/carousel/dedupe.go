package carousel

import (
	"context"
	"image"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// HashSize is the thumbnail edge length used for duplicate detection.
const HashSize = 50

// Fetcher loads a decoded image.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// Hash is an average hash: one bit per thumbnail pixel, set when the pixel
// is brighter than the thumbnail's mean.
type Hash [(HashSize*HashSize + 63) / 64]uint64

// AverageHash downsamples img to HashSize×HashSize grayscale and thresholds
// it at the mean. Visually distinct images with a similar dominant
// composition can collide, so treat equality as a hint.
func AverageHash(img image.Image) Hash {
	thumb := imaging.Grayscale(imaging.Resize(img, HashSize, HashSize, imaging.Box))
	px := thumb.Pix
	var sum int
	for i := 0; i < len(px); i += 4 {
		sum += int(px[i])
	}
	mean := sum / (HashSize * HashSize)

	var h Hash
	for i := 0; i < HashSize*HashSize; i++ {
		if int(px[i*4]) > mean {
			h[i/64] |= 1 << (i % 64)
		}
	}
	return h
}

// DetectDuplicates hashes every source in set and flags entries whose
// hashes are equal. Sources that fail to load are skipped. It returns the
// groups of duplicate indices; nothing is removed from the set.
func DetectDuplicates(ctx context.Context, f Fetcher, set *SourceSet, logger *log.Logger) ([][]int, error) {
	urls := set.URLs()
	hashes := make([]*Hash, len(urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, u := range urls {
		g.Go(func() error {
			img, err := f.Fetch(gctx, u)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if logger != nil {
					logger.Warn("skipping image in duplicate scan", "url", u, "err", err)
				}
				return nil
			}
			h := AverageHash(img)
			hashes[i] = &h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byHash := make(map[Hash][]int)
	var order []Hash
	for i, h := range hashes {
		if h == nil {
			continue
		}
		if _, seen := byHash[*h]; !seen {
			order = append(order, *h)
		}
		byHash[*h] = append(byHash[*h], i)
	}
	var groups [][]int
	for _, h := range order {
		if idx := byHash[h]; len(idx) > 1 {
			groups = append(groups, idx)
		}
	}
	set.markDuplicates(groups)
	return groups, nil
}
