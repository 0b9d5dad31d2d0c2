package spawn

import (
	"os/exec"
	"sync"
)

// Resolver locates executables on PATH and caches the results for its own
// lifetime. Callers that respawn the same tool repeatedly share one Resolver
// instead of paying the PATH scan every run.
type Resolver struct {
	mu    sync.Mutex
	cache map[string]string
}

// NewResolver creates an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]string)}
}

// LookPath resolves file to an absolute executable path, consulting the
// cache first. Lookup failures are not cached; a tool installed mid-run is
// found on the next call.
func (r *Resolver) LookPath(file string) (string, error) {
	r.mu.Lock()

	if path, ok := r.cache[file]; ok {
		r.mu.Unlock()

		return path, nil
	}

	r.mu.Unlock()

	path, err := exec.LookPath(file)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[file] = path
	r.mu.Unlock()

	return path, nil
}

// Flush discards all cached lookups.
func (r *Resolver) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cache = make(map[string]string)
}
