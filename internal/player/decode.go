package player

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder.
	_ "image/png"  // PNG decoder.
	"io/fs"
	"os"
)

// DecodeKind classifies why an image could not be loaded.
type DecodeKind int

// Decode failure kinds.
const (
	DecodeNotFound DecodeKind = iota + 1
	DecodeCorrupt
	DecodeEmpty
)

func (k DecodeKind) String() string {
	switch k {
	case DecodeNotFound:
		return "not found"
	case DecodeCorrupt:
		return "corrupt"
	case DecodeEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// DecodeError reports an image the player skipped.
type DecodeError struct {
	Path string
	Kind DecodeKind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode %s: %s: %v", e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("decode %s: %s", e.Path, e.Kind)
}

// Unwrap exposes the underlying cause.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder loads an image from a path.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// FileDecoder decodes JPEG and PNG files from disk.
type FileDecoder struct{}

// Decode implements Decoder.
func (FileDecoder) Decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		kind := DecodeCorrupt
		if errors.Is(err, fs.ErrNotExist) {
			kind = DecodeNotFound
		}
		return nil, &DecodeError{Path: path, Kind: kind, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only image.
			_ = cerr
		}
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, &DecodeError{Path: path, Kind: DecodeCorrupt, Err: err}
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, &DecodeError{Path: path, Kind: DecodeEmpty}
	}
	return img, nil
}
