package display

import (
	"context"
	"os"
	"time"

	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

// keyReader pumps raw stdin bytes into a channel so waits can time out.
type keyReader struct {
	reader  cancelreader.CancelReader
	restore func() error
	keys    chan Key
}

func newKeyReader(in *os.File) (*keyReader, error) {
	restore := func() error { return nil }
	fd := int(in.Fd())
	if term.IsTerminal(fd) {
		state, err := term.MakeRaw(fd)
		if err != nil {
			return nil, err
		}
		restore = func() error { return term.Restore(fd, state) }
	}
	r, err := cancelreader.NewReader(in)
	if err != nil {
		_ = restore()
		return nil, err
	}
	k := &keyReader{reader: r, restore: restore, keys: make(chan Key, 16)}
	go k.pump()
	return k, nil
}

func (k *keyReader) pump() {
	defer close(k.keys)
	buf := make([]byte, 64)
	for {
		n, err := k.reader.Read(buf)
		for _, b := range buf[:n] {
			select {
			case k.keys <- Key(b):
			default:
			}
		}
		if err != nil {
			return
		}
	}
}

// Wait blocks for a key, the timeout or ctx. Once input reaches EOF only the
// timeout and ctx can end a wait.
func (k *keyReader) Wait(ctx context.Context, timeout time.Duration) (Key, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	keys := k.keys
	for {
		select {
		case <-ctx.Done():
			return NoKey, ErrCancelled
		case <-timer.C:
			return NoKey, nil
		case key, ok := <-keys:
			if !ok {
				keys = nil
				continue
			}
			return key, nil
		}
	}
}

func (k *keyReader) Close() error {
	k.reader.Cancel()
	rerr := k.restore()
	cerr := k.reader.Close()
	if rerr != nil {
		return rerr
	}
	return cerr
}
