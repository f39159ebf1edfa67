package main

import (
	"fmt"
	"os"
)

type hook interface {
	OnStart() error
	OnEnd() error
}

var hooks []hook

func main() {

	for _, h := range hooks {
		if err := h.OnStart(); err != nil {
			fmt.Printf("error starting hook: %s", err)
			os.Exit(1)
		}
	}

	err := newRootCommand(&options{}).Execute()

	for _, h := range hooks {
		h.OnEnd()
	}

	if err != nil {
		os.Exit(1)
	}
}

// profilePath returns the value of env, or def when it is unset.
func profilePath(env, def string) string {
	if p := os.Getenv(env); p != "" {
		return p
	}
	return def
}
