// Package memstat reports system RAM and Go heap usage so ingestion can log
// how much memory one row batch occupies.
package memstat

import "runtime"

// DefaultMemoryBytes is the fallback (4 GB) when the platform cannot report RAM.
const DefaultMemoryBytes uint64 = 4 * 1024 * 1024 * 1024

// Snapshot is a point-in-time memory reading.
type Snapshot struct {
	// SystemTotal is total physical memory in bytes.
	SystemTotal uint64
	// SystemReliable is false when SystemTotal is DefaultMemoryBytes.
	SystemReliable bool
	// HeapAlloc is bytes of allocated heap objects.
	HeapAlloc uint64
	// HeapSys is heap bytes obtained from the OS.
	HeapSys uint64
}

// Take reads system and heap memory.
func Take() Snapshot {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	total, ok := totalSystemMemory()
	if !ok || total == 0 {
		total, ok = DefaultMemoryBytes, false
	}
	return Snapshot{
		SystemTotal:    total,
		SystemReliable: ok,
		HeapAlloc:      ms.HeapAlloc,
		HeapSys:        ms.HeapSys,
	}
}

// HeapAlloc returns the current heap allocation without the system lookup.
func HeapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
