//go:build linux

package display

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/deangi/photoframe/internal/model"
)

// Linux framebuffer ioctls, see linux/fb.h.
const (
	fbioGetVScreenInfo = 0x4600
	fbioBlank          = 0x4611
	fbBlankUnblank     = 0
	fbBlankPowerdown   = 4
)

// varScreenInfo mirrors struct fb_var_screeninfo. Only the leading fields
// are read; the rest is padding to the kernel size of 160 bytes.
type varScreenInfo struct {
	XRes         uint32
	YRes         uint32
	XResVirtual  uint32
	YResVirtual  uint32
	XOffset      uint32
	YOffset      uint32
	BitsPerPixel uint32
	_            [33]uint32
}

// visibleArea picks the on-screen rectangle inside the mapped buffer. The
// virtual size from sysfs is used when the ioctl is unavailable.
func visibleArea(v *varScreenInfo, virtW, virtH int) (w, h, xoff, yoff int) {
	if v == nil || v.XRes == 0 || v.YRes == 0 {
		return virtW, virtH, 0, 0
	}
	w, h = int(v.XRes), int(v.YRes)
	xoff, yoff = int(v.XOffset), int(v.YOffset)
	if xoff+w > virtW || yoff+h > virtH {
		xoff, yoff = 0, 0
	}
	return min(w, virtW), min(h, virtH), xoff, yoff
}

func readVarScreenInfo(fd uintptr) (*varScreenInfo, error) {
	var v varScreenInfo
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, fbioGetVScreenInfo, uintptr(unsafe.Pointer(&v))); errno != 0 {
		return nil, errno
	}
	return &v, nil
}

// Console control sequences.
const (
	seqHideCursor    = "\x1b[?25l"
	seqShowCursor    = "\x1b[?25h"
	seqNoBlankTimer  = "\x1b[9;0]"
	seqNoPowerdown   = "\x1b[14;0]"
	sysfsGraphicsDir = "/sys/class/graphics"
)

// Framebuffer draws directly into a memory-mapped Linux framebuffer device.
type Framebuffer struct {
	file   *os.File
	mem    []byte
	width  int // visible mode
	height int
	xoff   int // panning offset of the visible mode
	yoff   int
	stride int
	bpp    int
	out    io.Writer
	input  *keyReader
}

func openFramebuffer(device string, in, out *os.File) (Surface, error) {
	fb, err := OpenFramebuffer(device, in, out)
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// OpenFramebuffer maps device and takes over keyboard input from in.
func OpenFramebuffer(device string, in, out *os.File) (*Framebuffer, error) {
	info := filepath.Join(sysfsGraphicsDir, filepath.Base(device))
	virtW, virtH, err := readSize(filepath.Join(info, "virtual_size"))
	if err != nil {
		return nil, fmt.Errorf("read framebuffer size: %w", err)
	}
	bpp, err := readInt(filepath.Join(info, "bits_per_pixel"))
	if err != nil {
		return nil, fmt.Errorf("read framebuffer depth: %w", err)
	}
	if bpp != 32 && bpp != 16 {
		return nil, fmt.Errorf("unsupported framebuffer depth %d", bpp)
	}
	stride, err := readInt(filepath.Join(info, "stride"))
	if err != nil || stride <= 0 {
		stride = virtW * bpp / 8
	}

	file, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open framebuffer: %w", err)
	}
	vinfo, _ := readVarScreenInfo(file.Fd())
	width, height, xoff, yoff := visibleArea(vinfo, virtW, virtH)
	mem, err := unix.Mmap(int(file.Fd()), 0, stride*virtH, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("map framebuffer: %w", err)
	}
	input, err := newKeyReader(in)
	if err != nil {
		_ = unix.Munmap(mem)
		_ = file.Close()
		return nil, fmt.Errorf("open keyboard: %w", err)
	}
	fb := &Framebuffer{
		file:   file,
		mem:    mem,
		width:  width,
		height: height,
		xoff:   xoff,
		yoff:   yoff,
		stride: stride,
		bpp:    bpp,
		out:    out,
		input:  input,
	}
	_, _ = io.WriteString(out, seqHideCursor)
	return fb, nil
}

// Geometry implements Surface.
func (fb *Framebuffer) Geometry() model.ScreenGeometry {
	return model.ScreenGeometry{Width: float64(fb.width), Height: float64(fb.height)}
}

// Show implements Surface.
func (fb *Framebuffer) Show(frame image.Image) error {
	b := frame.Bounds()
	w := min(b.Dx(), fb.width)
	h := min(b.Dy(), fb.height)
	rgba, _ := frame.(*image.RGBA)
	for y := 0; y < h; y++ {
		row := fb.mem[(fb.yoff+y)*fb.stride+fb.xoff*fb.bpp/8:]
		for x := 0; x < w; x++ {
			var r, g, bl uint8
			if rgba != nil {
				i := rgba.PixOffset(b.Min.X+x, b.Min.Y+y)
				r, g, bl = rgba.Pix[i], rgba.Pix[i+1], rgba.Pix[i+2]
			} else {
				cr, cg, cb, _ := frame.At(b.Min.X+x, b.Min.Y+y).RGBA()
				r, g, bl = uint8(cr>>8), uint8(cg>>8), uint8(cb>>8)
			}
			fb.put(row, x, r, g, bl)
		}
	}
	return nil
}

func (fb *Framebuffer) put(row []byte, x int, r, g, b uint8) {
	switch fb.bpp {
	case 32:
		o := x * 4
		row[o] = b
		row[o+1] = g
		row[o+2] = r
		row[o+3] = 0xff
	case 16:
		v := uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
		o := x * 2
		row[o] = byte(v)
		row[o+1] = byte(v >> 8)
	}
}

// Clear implements Surface.
func (fb *Framebuffer) Clear() error {
	clear(fb.mem)
	return nil
}

// WaitKey implements Surface.
func (fb *Framebuffer) WaitKey(ctx context.Context, timeout time.Duration) (Key, error) {
	return fb.input.Wait(ctx, timeout)
}

// Close implements Surface.
func (fb *Framebuffer) Close() error {
	ierr := fb.input.Close()
	_ = fb.Clear()
	_, _ = io.WriteString(fb.out, seqShowCursor)
	merr := unix.Munmap(fb.mem)
	ferr := fb.file.Close()
	for _, err := range []error{ierr, merr, ferr} {
		if err != nil {
			return err
		}
	}
	return nil
}

// DisableBlanking turns off the console blank and powerdown timers.
func (fb *Framebuffer) DisableBlanking() error {
	_, err := io.WriteString(fb.out, seqNoBlankTimer+seqNoPowerdown)
	return err
}

// ForceOn unblanks the framebuffer.
func (fb *Framebuffer) ForceOn() error {
	return unix.IoctlSetInt(int(fb.file.Fd()), fbioBlank, fbBlankUnblank)
}

// Standby powers the display down through the framebuffer driver.
func (fb *Framebuffer) Standby() error {
	return unix.IoctlSetInt(int(fb.file.Fd()), fbioBlank, fbBlankPowerdown)
}

func readSize(path string) (int, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, err
	}
	parts := strings.Split(strings.TrimSpace(string(raw)), ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unexpected size %q", raw)
	}
	w, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return w, h, nil
}

func readInt(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(raw)))
}
