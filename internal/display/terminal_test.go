package display

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/muesli/termenv"

	"github.com/deangi/photoframe/internal/model"
)

func TestTerminalGeometryIsCellGrid(t *testing.T) {
	term := newTerminal(termenv.NewOutput(&bytes.Buffer{}), 100, 30, "nearest")
	got := term.Geometry()
	if got != (model.ScreenGeometry{Width: 100, Height: 60}) {
		t.Fatalf("Geometry = %+v, want 100x60", got)
	}
	if got.Sanitize() != (model.ScreenGeometry{Width: 1920, Height: 1080}) {
		t.Fatalf("terminal geometry should fall back to full HD")
	}
}

func TestTerminalShowRendersHalfBlocks(t *testing.T) {
	var buf bytes.Buffer
	out := termenv.NewOutput(&buf, termenv.WithProfile(termenv.TrueColor))
	term := newTerminal(out, 2, 1, "nearest")

	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
	red := color.RGBA{255, 0, 0, 255}
	blue := color.RGBA{0, 0, 255, 255}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if y < 2 {
				frame.Set(x, y, red)
			} else {
				frame.Set(x, y, blue)
			}
		}
	}
	if err := term.Show(frame); err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	s := buf.String()
	if n := strings.Count(s, halfBlock); n != 2 {
		t.Fatalf("expected 2 half blocks, got %d in %q", n, s)
	}
	if !strings.Contains(s, "38;2;255;0;0") || !strings.Contains(s, "48;2;0;0;255") {
		t.Fatalf("expected red foreground and blue background in %q", s)
	}
}

func TestCellSequenceWithoutColor(t *testing.T) {
	if got := cellSequence(termenv.NoColor{}, termenv.NoColor{}); got != "" {
		t.Fatalf("cellSequence = %q, want empty", got)
	}
}

func TestResolveBackend(t *testing.T) {
	if got := ResolveBackend(BackendTerminal, "/dev/fb0"); got != BackendTerminal {
		t.Fatalf("explicit backend changed to %q", got)
	}
	if got := ResolveBackend(BackendAuto, "/definitely/not/a/framebuffer"); got != BackendTerminal {
		t.Fatalf("auto without device = %q, want terminal", got)
	}
}

func TestTerminalShowKeepsAspectRatio(t *testing.T) {
	var buf bytes.Buffer
	out := termenv.NewOutput(&buf, termenv.WithProfile(termenv.TrueColor))
	term := newTerminal(out, 4, 2, "nearest")

	frame := image.NewRGBA(image.Rect(0, 0, 4, 2))
	red := color.RGBA{255, 0, 0, 255}
	for y := 0; y < 2; y++ {
		for x := 0; x < 4; x++ {
			frame.Set(x, y, red)
		}
	}
	if err := term.Show(frame); err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	s := buf.String()
	// A 4x2 frame in a 4x4 pixel grid fills rows 1 and 2 only.
	if !strings.Contains(s, "38;2;0;0;0;48;2;255;0;0") {
		t.Fatalf("expected black over red in first cell row: %q", s)
	}
	if !strings.Contains(s, "38;2;255;0;0;48;2;0;0;0") {
		t.Fatalf("expected red over black in second cell row: %q", s)
	}
}
