package compose

import (
	"testing"

	adserrors "github.com/matzehuels/adstudio/pkg/errors"
)

func TestDragSingleActiveLayer(t *testing.T) {
	var events []Layer
	d := NewDragController(Positions{}, WithDragListener(func(l Layer, _ Position) {
		events = append(events, l)
	}))

	if !d.Press(LayerHeadline, 100, 100) {
		t.Fatal("Press(headline) rejected")
	}
	if d.Press(LayerCTA, 0, 0) {
		t.Error("second Press accepted while headline is active")
	}
	if d.Move(LayerCTA, 50, 50) {
		t.Error("Move for inactive layer accepted")
	}
	if d.Set(LayerCTA, Position{X: 1}) {
		t.Error("Set for another layer accepted during a drag")
	}

	d.Move(LayerHeadline, 110, 95)
	d.Move(LayerHeadline, 130, 80)
	if got := d.Positions().Headline; got != (Position{X: 30, Y: -20}) {
		t.Errorf("headline = %+v, want {30 -20}", got)
	}
	if !d.Release(LayerHeadline) {
		t.Fatal("Release rejected")
	}
	if _, active := d.Active(); active {
		t.Error("drag still active after release")
	}
	if got := d.Positions().Headline; got != (Position{X: 30, Y: -20}) {
		t.Errorf("position not kept after release: %+v", got)
	}
	if got := d.Positions().CTA; got != (Position{}) {
		t.Errorf("CTA moved: %+v", got)
	}

	// A second drag continues from the stored position.
	d.Press(LayerHeadline, 0, 0)
	d.Move(LayerHeadline, 5, 5)
	d.Release(LayerHeadline)
	if got := d.Positions().Headline; got != (Position{X: 35, Y: -15}) {
		t.Errorf("headline = %+v, want {35 -15}", got)
	}

	if len(events) != 3 {
		t.Errorf("listener called %d times, want 3", len(events))
	}
}

func TestDragRejectsOverlay(t *testing.T) {
	d := NewDragController(Positions{})
	if d.Press(Layer("overlay"), 0, 0) {
		t.Error("overlay should not be draggable")
	}
}

func TestDragPanClamp(t *testing.T) {
	d := NewDragController(Positions{}, WithPanClamp(func(p Position) Position {
		return Position{X: min(max(p.X, -10), 10), Y: min(max(p.Y, -10), 10)}
	}))
	d.Press(LayerImage, 0, 0)
	d.Move(LayerImage, 100, -100)
	d.Release(LayerImage)
	if got := d.Positions().Image; got != (Position{X: 10, Y: -10}) {
		t.Errorf("image pan = %+v, want clamped {10 -10}", got)
	}

	d.Press(LayerHeadline, 0, 0)
	d.Move(LayerHeadline, 100, -100)
	if got := d.Positions().Headline; got != (Position{X: 100, Y: -100}) {
		t.Errorf("headline = %+v, clamp should only apply to the image", got)
	}
}

func TestDragReset(t *testing.T) {
	d := NewDragController(Positions{CTA: Position{X: 4, Y: 4}})
	d.Press(LayerCTA, 0, 0)
	d.Reset()
	if _, active := d.Active(); active {
		t.Error("Reset should cancel the drag")
	}
	if d.Positions() != (Positions{}) {
		t.Errorf("positions = %+v, want zero", d.Positions())
	}
}

func TestStateApplyTemplateResets(t *testing.T) {
	st := NewState(TemplateModern)
	st.Positions.CTA = Position{X: 12}
	st.Colors.Accent = "#123456"
	st.ApplyTemplate(TemplateBold)
	if st.Positions != (Positions{}) {
		t.Errorf("positions not reset: %+v", st.Positions)
	}
	bold, _ := Lookup(TemplateBold)
	if st.Colors != bold.Scheme {
		t.Errorf("colors = %+v, want bold scheme", st.Colors)
	}
}

func TestStateValidate(t *testing.T) {
	valid := NewState(TemplateModern)
	valid.Name = "Spring"

	tests := []struct {
		name   string
		mutate func(*State)
		code   adserrors.Code
	}{
		{"valid", func(*State) {}, ""},
		{"empty name", func(s *State) { s.Name = " " }, adserrors.ErrCodeInvalidInput},
		{"bad platform", func(s *State) { s.Platform = "fax" }, adserrors.ErrCodeInvalidPlatform},
		{"bad color", func(s *State) { s.Colors.CTA = "red" }, adserrors.ErrCodeInvalidColor},
		{"bad opacity", func(s *State) { s.Colors.OverlayOpacity = 1.5 }, adserrors.ErrCodeInvalidInput},
		{"unknown template ok", func(s *State) { s.Template = "whatever" }, ""},
		{"https image", func(s *State) { s.ImageURL = "https://cdn.example.com/a.jpg" }, ""},
		{"data image", func(s *State) { s.ImageURL = "data:image/png;base64,iVBORw0KGgo=" }, ""},
		{"local image path", func(s *State) { s.ImageURL = "/etc/passwd" }, adserrors.ErrCodeInvalidURL},
		{"relative image path", func(s *State) { s.ImageURL = "images/a.png" }, adserrors.ErrCodeInvalidURL},
		{"file image", func(s *State) { s.ImageURL = "file:///etc/passwd" }, adserrors.ErrCodeInvalidURL},
		{"https font", func(s *State) { s.FontURL = "https://fonts.googleapis.com/css2?family=Cairo" }, ""},
		{"file font", func(s *State) { s.FontURL = "file:///usr/share/fonts/a.ttf" }, adserrors.ErrCodeInvalidURL},
		{"script font", func(s *State) { s.FontURL = "javascript:alert(1)" }, adserrors.ErrCodeInvalidURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := valid
			tt.mutate(&st)
			err := st.Validate()
			if tt.code == "" {
				if err != nil {
					t.Errorf("Validate() = %v", err)
				}
				return
			}
			if !adserrors.Is(err, tt.code) {
				t.Errorf("Validate() = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestStateValidateLocal(t *testing.T) {
	st := NewState(TemplateModern)
	st.Name = "Spring"
	for _, ref := range []string{"/tmp/hero.png", "images/hero.png", "file:///tmp/hero.png", "https://example.com/a.jpg"} {
		st.ImageURL = ref
		if err := st.ValidateLocal(); err != nil {
			t.Errorf("ValidateLocal(%s) = %v", ref, err)
		}
	}
	st.ImageURL = "ftp://example.com/a.jpg"
	if err := st.ValidateLocal(); !adserrors.Is(err, adserrors.ErrCodeInvalidURL) {
		t.Errorf("ftp image: err = %v, want INVALID_URL", err)
	}
	st.ImageURL, st.FontURL = "/tmp/hero.png", "/tmp/font.ttf"
	if err := st.ValidateLocal(); !adserrors.Is(err, adserrors.ErrCodeInvalidURL) {
		t.Errorf("local font: err = %v, want INVALID_URL", err)
	}
}

func TestStateFillDefaults(t *testing.T) {
	st := State{Template: TemplateVibrant}
	st.FillDefaults()
	v, _ := Lookup(TemplateVibrant)
	if st.Colors != v.Scheme {
		t.Errorf("colors = %+v, want vibrant scheme", st.Colors)
	}
	if st.Platform != DefaultPlatform || st.Language != "en" {
		t.Errorf("platform/language = %q/%q", st.Platform, st.Language)
	}
}
