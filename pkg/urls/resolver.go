// Package urls provides named-route reversal and static asset resolution
// for the template globals url and static.
package urls

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Resolver reverses route names into URL paths. The route table is built
// once and read-only afterwards, so lookups are safe from concurrent
// template renders.
type Resolver struct {
	routes map[string]string
}

// NewResolver creates a Resolver over a name to path-pattern table.
// Patterns use ":name" placeholders for positional arguments, e.g.
// "/applications/:id/documents/:doc".
func NewResolver(routes map[string]string) *Resolver {
	table := make(map[string]string, len(routes))
	for name, pattern := range routes {
		table[name] = pattern
	}
	return &Resolver{routes: table}
}

// Reverse returns the path for a route name with each ":name" placeholder
// replaced by the next positional argument, in order.
func (r *Resolver) Reverse(name string, args ...string) (string, error) {
	pattern, ok := r.routes[name]
	if !ok {
		return "", fmt.Errorf("no route named %q", name)
	}

	segments := strings.Split(pattern, "/")
	next := 0
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		if next >= len(args) {
			return "", fmt.Errorf("route %q needs an argument for %s", name, seg)
		}
		segments[i] = args[next]
		next++
	}
	if next < len(args) {
		return "", fmt.Errorf("route %q takes %d arguments, got %d", name, next, len(args))
	}
	return strings.Join(segments, "/"), nil
}

// StaticResolver maps logical asset names to their served URLs, optionally
// through a hashed-filename manifest produced at collection time.
type StaticResolver struct {
	baseURL  string
	manifest map[string]string
}

// staticManifest is the on-disk manifest shape: a "paths" object from
// logical names to hashed names.
type staticManifest struct {
	Paths map[string]string `json:"paths"`
}

// NewStaticResolver creates a StaticResolver serving under baseURL.
// manifestPath may be empty, in which case asset names pass through.
func NewStaticResolver(baseURL, manifestPath string) (*StaticResolver, error) {
	s := &StaticResolver{baseURL: baseURL}
	if manifestPath == "" {
		return s, nil
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read static manifest: %w", err)
	}
	var m staticManifest
	if err = json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse static manifest: %w", err)
	}
	s.manifest = m.Paths
	return s, nil
}

// Resolve returns the URL for an asset name. Absolute URLs and already
// prefixed paths are returned as-is.
func (s *StaticResolver) Resolve(name string) string {
	if strings.Contains(name, "://") || strings.HasPrefix(name, s.baseURL) {
		return name
	}
	if hashed, ok := s.manifest[name]; ok {
		name = hashed
	}
	return strings.TrimSuffix(s.baseURL, "/") + "/" + strings.TrimPrefix(name, "/")
}
