//go:build !linux && !darwin

package memstat

func totalSystemMemory() (uint64, bool) {
	return 0, false
}
