//go:build !windows

package power

func resolveAuto(fallback Controller) Controller {
	if xsetAvailable() {
		return NewXSet(nil)
	}
	if fallback != nil {
		return fallback
	}
	return Noop{}
}
