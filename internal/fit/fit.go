// Package fit letterboxes an image into a fixed screen size.
package fit

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/deangi/photoframe/internal/model"
)

// ErrEmptyImage is returned for images without a positive size.
var ErrEmptyImage = errors.New("image has no pixels")

// Placement describes how an image sits on the screen.
type Placement struct {
	Scale   float64
	Width   int // resized image width
	Height  int // resized image height
	BorderX int // left and right border
	BorderY int // top and bottom border
}

// FrameWidth is the width of the composited frame.
func (p Placement) FrameWidth() int { return p.Width + 2*p.BorderX }

// FrameHeight is the height of the composited frame.
func (p Placement) FrameHeight() int { return p.Height + 2*p.BorderY }

// Compute scales an imgW x imgH image to fit screen without distortion.
// Borders are at least one pixel, so an axis that fits exactly overscans
// by two pixels.
func Compute(imgW, imgH int, screen model.ScreenGeometry) (Placement, error) {
	if imgW <= 0 || imgH <= 0 {
		return Placement{}, fmt.Errorf("%w: %dx%d", ErrEmptyImage, imgW, imgH)
	}
	scale := math.Min(screen.Width/float64(imgW), screen.Height/float64(imgH))
	w := int(math.Round(scale * float64(imgW)))
	h := int(math.Round(scale * float64(imgH)))
	return Placement{
		Scale:   scale,
		Width:   w,
		Height:  h,
		BorderX: border(screen.Width, w),
		BorderY: border(screen.Height, h),
	}, nil
}

func border(screen float64, resized int) int {
	b := int(math.Floor((screen - float64(resized)) / 2))
	if b < 1 {
		return 1
	}
	return b
}

// Scaler returns the interpolator registered under name, defaulting to
// approximate bilinear.
func Scaler(name string) xdraw.Scaler {
	switch name {
	case "nearest":
		return xdraw.NearestNeighbor
	case "catmullrom":
		return xdraw.CatmullRom
	default:
		return xdraw.ApproxBiLinear
	}
}

// Compose renders img scaled into p on a black frame of p's frame size.
func Compose(img image.Image, p Placement, scaler xdraw.Scaler) *image.RGBA {
	if scaler == nil {
		scaler = xdraw.ApproxBiLinear
	}
	frame := image.NewRGBA(image.Rect(0, 0, p.FrameWidth(), p.FrameHeight()))
	xdraw.Draw(frame, frame.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)
	inner := image.Rect(p.BorderX, p.BorderY, p.BorderX+p.Width, p.BorderY+p.Height)
	scaler.Scale(frame, inner, img, img.Bounds(), xdraw.Src, nil)
	return frame
}
