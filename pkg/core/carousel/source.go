package carousel

import (
	"strings"
	"sync"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
)

// Source is one candidate image.
type Source struct {
	URL   string `json:"url"`
	Local bool   `json:"local"`

	// Duplicate is set by [DetectDuplicates]; DuplicateOf lists the indices
	// of the other entries with the same thumbnail hash.
	Duplicate   bool  `json:"duplicate,omitempty"`
	DuplicateOf []int `json:"duplicate_of,omitempty"`
}

// SourceSet is an ordered list of sources with a current index. It is safe
// for concurrent use.
type SourceSet struct {
	mu      sync.RWMutex
	sources []Source
	index   int
}

// NewSourceSet builds a set from urls, rejecting the first invalid one.
func NewSourceSet(urls ...string) (*SourceSet, error) {
	s := &SourceSet{}
	for _, u := range urls {
		if err := s.Add(u); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Add appends a source. Remote URLs must be http or https; file:// URLs and
// plain paths are accepted as local files.
func (s *SourceSet) Add(ref string) error {
	src, err := parseSource(ref)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.mu.Unlock()
	return nil
}

func parseSource(ref string) (Source, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return Source{}, adserrors.New(adserrors.ErrCodeInvalidURL, "image source cannot be empty")
	case strings.HasPrefix(ref, "file://"):
		return Source{URL: ref, Local: true}, nil
	case strings.HasPrefix(ref, "data:"):
		return Source{URL: ref}, nil
	case strings.Contains(ref, "://"):
		if err := adserrors.ValidateURL(ref); err != nil {
			return Source{}, err
		}
		return Source{URL: ref}, nil
	default:
		return Source{URL: ref, Local: true}, nil
	}
}

// Len returns the number of sources.
func (s *SourceSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// At returns the source at i after wrapping.
func (s *SourceSet) At(i int) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.sources) == 0 {
		return Source{}, false
	}
	return s.sources[wrap(i, len(s.sources))], true
}

// Sources returns a copy of all sources.
func (s *SourceSet) Sources() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Source, len(s.sources))
	for i, src := range s.sources {
		src.DuplicateOf = append([]int(nil), src.DuplicateOf...)
		out[i] = src
	}
	return out
}

// URLs returns every source URL in order.
func (s *SourceSet) URLs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.sources))
	for i, src := range s.sources {
		out[i] = src.URL
	}
	return out
}

// Index returns the current index.
func (s *SourceSet) Index() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index
}

// Current returns the source at the current index.
func (s *SourceSet) Current() (Source, bool) {
	return s.At(s.Index())
}

// SetIndex sets the current index, wrapping around the ends.
func (s *SourceSet) SetIndex(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sources) > 0 {
		s.index = wrap(i, len(s.sources))
	}
}

// markDuplicates replaces the duplicate flags with groups.
func (s *SourceSet) markDuplicates(groups [][]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sources {
		s.sources[i].Duplicate = false
		s.sources[i].DuplicateOf = nil
	}
	for _, g := range groups {
		for _, i := range g {
			if i < 0 || i >= len(s.sources) {
				continue
			}
			s.sources[i].Duplicate = true
			for _, j := range g {
				if j != i {
					s.sources[i].DuplicateOf = append(s.sources[i].DuplicateOf, j)
				}
			}
		}
	}
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
