//go:build cpuprof

package main

import (
	"fmt"
	"os"
	"runtime/pprof"
)

func init() {
	hooks = append(hooks, &cpuprof{path: profilePath("DETDB_CPU_PROFILE", "cpu.prof")})
}

// cpuprof profiles the CPU for the whole run.
type cpuprof struct {
	path string
	f    *os.File
}

func (c *cpuprof) OnStart() error {
	f, err := os.Create(c.path)
	if err != nil {
		return err
	}
	c.f = f

	fmt.Fprintf(os.Stderr, "writing CPU profile to %s\n", c.path)
	return pprof.StartCPUProfile(c.f)
}

func (c *cpuprof) OnEnd() error {
	pprof.StopCPUProfile()
	return c.f.Close()
}
