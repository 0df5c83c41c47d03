package retryfilter

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/MrSnakeDoc/metafetch/internal/apierr"
)

// Registry maps configured exception-kind names to kind tags. Names are
// case-insensitive. Every registry starts with the built-in aliases.
type Registry struct {
	mu    sync.RWMutex
	names map[string]apierr.Kind
}

func NewRegistry() *Registry {
	r := &Registry{names: make(map[string]apierr.Kind)}
	for name, k := range map[string]apierr.Kind{
		"api":           apierr.KindAPI,
		"apiexception":  apierr.KindAPI,
		"apierror":      apierr.KindAPI,
		"http":          apierr.KindHTTP,
		"httpexception": apierr.KindHTTP,
		"httperror":     apierr.KindHTTP,
		"sdk":           apierr.KindSDK,
		"sdkexception":  apierr.KindSDK,
		"sdkerror":      apierr.KindSDK,
	} {
		r.names[name] = k
	}
	return r
}

// Register makes name resolve to kind. Registering an existing name
// replaces its target.
func (r *Registry) Register(name string, kind apierr.Kind) error {
	key := normalize(name)
	if key == "" {
		return fmt.Errorf("%w: empty exception kind name", ErrConfiguration)
	}
	if kind == "" {
		return fmt.Errorf("%w: empty kind for name %q", ErrConfiguration, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[key] = kind
	return nil
}

// Resolve returns the kind registered under name.
func (r *Registry) Resolve(name string) (apierr.Kind, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	k, ok := r.names[normalize(name)]
	return k, ok
}

// Names lists the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
