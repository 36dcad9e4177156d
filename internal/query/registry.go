package query

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMarketNotFound is returned for a market name that is not configured.
var ErrMarketNotFound = errors.New("market not found")

// Registry resolves market names case-insensitively to their configured spelling.
type Registry struct {
	names []string
	canon map[string]string // upper-cased -> configured
}

// NewRegistry creates a registry of the given market names. Blank and repeated names are dropped.
func NewRegistry(names []string) *Registry {
	r := &Registry{canon: make(map[string]string, len(names))}
	for _, n := range names {
		n = strings.TrimSpace(n)
		key := strings.ToUpper(n)
		if n == "" {
			continue
		}
		if _, dup := r.canon[key]; dup {
			continue
		}
		r.canon[key] = n
		r.names = append(r.names, n)
	}
	return r
}

// Names returns the configured markets in configuration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Resolve returns the configured spelling of name or ErrMarketNotFound.
func (r *Registry) Resolve(name string) (string, error) {
	if n, ok := r.canon[strings.ToUpper(strings.TrimSpace(name))]; ok {
		return n, nil
	}
	return "", fmt.Errorf("%w: %s", ErrMarketNotFound, name)
}
