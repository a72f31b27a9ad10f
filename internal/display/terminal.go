package display

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"time"

	"github.com/muesli/termenv"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/term"

	"github.com/deangi/photoframe/internal/fit"
	"github.com/deangi/photoframe/internal/model"
)

const (
	halfBlock       = "▀"
	fallbackColumns = 80
	fallbackRows    = 24
)

// Terminal renders frames as truecolor half blocks on the alternate screen.
// Each cell holds two vertically stacked pixels.
type Terminal struct {
	out    *termenv.Output
	w      io.Writer
	cols   int
	rows   int
	scaler xdraw.Scaler
	input  *keyReader
}

// OpenTerminal switches out to the alternate screen and reads keys from in.
func OpenTerminal(in, out *os.File, scaler string) (*Terminal, error) {
	cols, rows, err := term.GetSize(int(out.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		cols, rows = fallbackColumns, fallbackRows
	}
	input, err := newKeyReader(in)
	if err != nil {
		return nil, fmt.Errorf("open keyboard: %w", err)
	}
	t := newTerminal(termenv.NewOutput(out), cols, rows, scaler)
	t.input = input
	t.out.AltScreen()
	t.out.HideCursor()
	t.out.ClearScreen()
	return t, nil
}

func newTerminal(out *termenv.Output, cols, rows int, scaler string) *Terminal {
	return &Terminal{
		out:    out,
		w:      out,
		cols:   cols,
		rows:   rows,
		scaler: fit.Scaler(scaler),
	}
}

// Geometry implements Surface. The half-block grid is far below any real
// screen, so callers fall back to a virtual full-HD canvas.
func (t *Terminal) Geometry() model.ScreenGeometry {
	return model.ScreenGeometry{Width: float64(t.cols), Height: float64(t.rows * 2)}
}

// Show implements Surface by resampling frame into the cell grid.
func (t *Terminal) Show(frame image.Image) error {
	grid := image.NewRGBA(image.Rect(0, 0, t.cols, t.rows*2))
	if err := t.place(grid, frame); err != nil {
		return err
	}

	buf := bufio.NewWriter(t.w)
	t.out.MoveCursor(1, 1)
	for row := 0; row < t.rows; row++ {
		if row > 0 {
			_, _ = buf.WriteString("\r\n")
		}
		for col := 0; col < t.cols; col++ {
			top := grid.RGBAAt(col, row*2)
			bottom := grid.RGBAAt(col, row*2+1)
			fg := t.out.Color(hex(top.R, top.G, top.B))
			bg := t.out.Color(hex(bottom.R, bottom.G, bottom.B))
			_, _ = buf.WriteString(cellSequence(fg, bg))
			_, _ = buf.WriteString(halfBlock)
		}
		_, _ = buf.WriteString(termenv.CSI + termenv.ResetSeq + "m")
	}
	return buf.Flush()
}

// place scales frame into grid without distortion, centred on black.
func (t *Terminal) place(grid *image.RGBA, frame image.Image) error {
	fb := frame.Bounds()
	gb := grid.Bounds()
	p, err := fit.Compute(fb.Dx(), fb.Dy(), model.ScreenGeometry{Width: float64(gb.Dx()), Height: float64(gb.Dy())})
	if err != nil {
		return err
	}
	w, h := max(1, min(p.Width, gb.Dx())), max(1, min(p.Height, gb.Dy()))
	x0, y0 := (gb.Dx()-w)/2, (gb.Dy()-h)/2
	xdraw.Draw(grid, gb, image.NewUniform(color.Black), image.Point{}, xdraw.Src)
	t.scaler.Scale(grid, image.Rect(x0, y0, x0+w, y0+h), frame, fb, xdraw.Src, nil)
	return nil
}

// Clear implements Surface.
func (t *Terminal) Clear() error {
	t.out.ClearScreen()
	return nil
}

// WaitKey implements Surface.
func (t *Terminal) WaitKey(ctx context.Context, timeout time.Duration) (Key, error) {
	return t.input.Wait(ctx, timeout)
}

// Close implements Surface.
func (t *Terminal) Close() error {
	var err error
	if t.input != nil {
		err = t.input.Close()
	}
	t.out.ShowCursor()
	t.out.ExitAltScreen()
	return err
}

func cellSequence(fg, bg termenv.Color) string {
	f := fg.Sequence(false)
	b := bg.Sequence(true)
	switch {
	case f == "" && b == "":
		return ""
	case b == "":
		return termenv.CSI + f + "m"
	case f == "":
		return termenv.CSI + b + "m"
	default:
		return termenv.CSI + f + ";" + b + "m"
	}
}

func hex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
