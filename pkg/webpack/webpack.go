// Package webpack reads the stats file produced by webpack-bundle-tracker
// and renders the script and stylesheet tags for a named bundle. It backs
// the render_bundle and webpack_static template globals.
package webpack

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"strings"
)

// Asset is one emitted file in the stats manifest.
type Asset struct {
	Name       string `json:"name"`
	PublicPath string `json:"publicPath"`
}

// stats is the webpack-stats.json shape.
type stats struct {
	Status     string              `json:"status"`
	Error      string              `json:"error"`
	Message    string              `json:"message"`
	PublicPath string              `json:"publicPath"`
	Chunks     map[string][]string `json:"chunks"`
	Assets     map[string]Asset    `json:"assets"`
}

// Manifest is a parsed stats file. Read-only after Parse, so it is safe
// for concurrent template renders.
type Manifest struct {
	stats stats
}

// Open reads and parses a webpack stats file from disk.
func Open(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open webpack stats: %w", err)
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)
	return Parse(f)
}

// Parse decodes a stats document. A compilation that ended in an error
// state is surfaced here rather than at render time.
func Parse(r io.Reader) (*Manifest, error) {
	var s stats
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse webpack stats: %w", err)
	}
	if s.Status == "error" {
		return nil, fmt.Errorf("webpack build failed: %s: %s", s.Error, s.Message)
	}
	if s.Status != "done" {
		return nil, fmt.Errorf("webpack build not finished (status %q)", s.Status)
	}
	return &Manifest{stats: s}, nil
}

// Bundle returns the files of a named chunk group in emit order.
func (m *Manifest) Bundle(name string) ([]string, error) {
	files, ok := m.stats.Chunks[name]
	if !ok {
		return nil, fmt.Errorf("no bundle named %q in webpack stats", name)
	}
	return files, nil
}

// Static resolves an asset path against the manifest's public path.
func (m *Manifest) Static(asset string) string {
	if a, ok := m.stats.Assets[asset]; ok && a.PublicPath != "" {
		return a.PublicPath
	}
	return strings.TrimSuffix(m.stats.PublicPath, "/") + "/" + strings.TrimPrefix(asset, "/")
}

// RenderBundle renders the HTML tags for a named bundle. ext limits output
// to files of that extension ("js" or "css") when non-empty. resolve maps
// a file without a recorded public path to a servable URL; it is how the
// renderer reaches back into the environment's static global.
func (m *Manifest) RenderBundle(name, ext string, resolve func(string) (string, error)) (string, error) {
	files, err := m.Bundle(name)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, file := range files {
		if ext != "" && !strings.HasSuffix(file, "."+ext) {
			continue
		}

		href := ""
		if a, ok := m.stats.Assets[file]; ok {
			href = a.PublicPath
		}
		if href == "" {
			href, err = resolve(file)
			if err != nil {
				return "", err
			}
		}

		switch {
		case strings.HasSuffix(file, ".js"):
			fmt.Fprintf(&b, `<script src="%s"></script>`, html.EscapeString(href))
		case strings.HasSuffix(file, ".css"):
			fmt.Fprintf(&b, `<link rel="stylesheet" href="%s"/>`, html.EscapeString(href))
		}
	}
	return b.String(), nil
}
