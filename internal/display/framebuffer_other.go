//go:build !linux

package display

import "os"

func openFramebuffer(string, *os.File, *os.File) (Surface, error) {
	return nil, ErrUnsupported
}
