package scene

import "sync"

// offscreen is where mounted clones are positioned, well outside any viewport.
const offscreen = -10000

// Stage is an off-screen surface that holds scene clones while they are
// being rasterized.
type Stage struct {
	mu      sync.Mutex
	next    int
	mounted map[int]*Mount
}

// NewStage returns an empty stage.
func NewStage() *Stage {
	return &Stage{mounted: make(map[int]*Mount)}
}

// Mount is a scene placed on a stage.
type Mount struct {
	ID    int
	Scene *Scene
	Box   Box

	stage *Stage
	once  sync.Once
}

// Mount positions s off-screen at a fixed location sized exactly to its
// preview box.
func (st *Stage) Mount(s *Scene) *Mount {
	w, h := s.Size()
	st.mu.Lock()
	defer st.mu.Unlock()
	st.next++
	m := &Mount{
		ID:    st.next,
		Scene: s,
		Box:   Box{X: offscreen, Y: offscreen, W: w, H: h},
		stage: st,
	}
	st.mounted[m.ID] = m
	return m
}

// Unmount removes the mount from its stage. It is idempotent.
func (m *Mount) Unmount() {
	m.once.Do(func() {
		m.stage.mu.Lock()
		defer m.stage.mu.Unlock()
		delete(m.stage.mounted, m.ID)
	})
}

// Len returns the number of scenes currently mounted.
func (st *Stage) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.mounted)
}
