//go:build memprof

package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

func init() {
	hooks = append(hooks, &memprof{path: profilePath("DETDB_MEM_PROFILE", "mem.prof")})
}

// memprof writes a heap profile when the run ends.
type memprof struct {
	path string
	f    *os.File
}

func (m *memprof) OnStart() error {
	f, err := os.Create(m.path)
	if err != nil {
		return err
	}
	m.f = f
	return nil
}

func (m *memprof) OnEnd() error {
	defer m.f.Close()

	runtime.GC()
	if err := pprof.WriteHeapProfile(m.f); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "heap profile written to %s\n", m.path)
	return nil
}
