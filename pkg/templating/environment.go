package templating

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	minijinja "github.com/mitsuhiko/minijinja/minijinja-go/v2"
	"github.com/mitsuhiko/minijinja/minijinja-go/v2/value"

	"github.com/oakmere/govjinja/pkg/urls"
	"github.com/oakmere/govjinja/pkg/webpack"
)

// templateExtensions are the file suffixes picked up from the template
// directories. Only .njk sources receive the preprocessor's guard rules.
var templateExtensions = []string{".njk", ".html", ".jinja"}

// callableFunc adapts a plain function into a template-callable value.
type callableFunc func(args []value.Value, kwargs map[string]value.Value) (value.Value, error)

// Call implements the callable contract minijinja expects of globals.
func (f callableFunc) Call(_ value.State, args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	return f(args, kwargs)
}

// Environment is the central controller for the templating engine. It owns
// the preprocessor, the registration table of template globals and filters,
// and the compiled template set. The registration table is built once in
// New and read-only afterwards, so all methods are concurrent-safe.
type Environment struct {
	logger   *slog.Logger
	config   *Config
	pre      *Preprocessor
	router   *urls.Resolver
	statics  *urls.StaticResolver
	bundles  *webpack.Manifest
	location *time.Location
	envName  string
	globals  map[string]value.Value
	engine   *minijinja.Environment
	names    []string
	mu       sync.RWMutex
}

// New creates, initializes, and returns a new Environment. The ENV
// environment variable is read once here (defaulting to "dev") and frozen
// into the env global; building again picks up the variable's value at
// that construction time. It performs an initial Refresh to load all
// templates from the configured directories.
func New(logger *slog.Logger, config *Config) (*Environment, error) {
	if config == nil {
		config = DefaultConfig()
	}

	location, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", config.Timezone, err)
	}

	statics, err := urls.NewStaticResolver(config.StaticURL, config.StaticManifest)
	if err != nil {
		return nil, err
	}

	e := &Environment{
		logger:   logger,
		config:   config,
		pre:      NewPreprocessor(),
		router:   urls.NewResolver(config.Routes),
		statics:  statics,
		location: location,
		envName:  envName(),
	}

	if config.WebpackStatsPath != "" {
		e.bundles, err = webpack.Open(config.WebpackStatsPath)
		if err != nil {
			return nil, err
		}
	}

	e.globals = e.makeGlobals()

	if err = e.Refresh(); err != nil {
		return nil, err
	}

	logger.Info("Template environment initialized", "env", e.envName, "templates", len(e.names))
	return e, nil
}

// envName reads the deployment environment name, defaulting to "dev".
func envName() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "dev"
}

// makeGlobals builds the registration table of names templates may
// reference. Values are constants, callables, or in the case of
// render_bundle a callable bound to the completed table itself.
func (e *Environment) makeGlobals() map[string]value.Value {
	g := map[string]value.Value{
		// Text helpers (from funcs_text.go)
		"break_words": value.FromCallable(callableFunc(breakWords)),
		"pluralize":   value.FromCallable(callableFunc(pluralize)),

		// Time (from funcs_time.go)
		"localtime": value.FromCallable(callableFunc(e.localtimeGlobal)),

		// Request and web helpers (from funcs_web.go)
		"query_transform": value.FromCallable(callableFunc(queryTransform)),
		"get_messages":    value.FromCallable(callableFunc(getMessages)),
		"crispy":          value.FromCallable(callableFunc(crispy)),
		"static":          value.FromCallable(callableFunc(e.staticGlobal)),
		"url":             value.FromCallable(callableFunc(e.urlGlobal)),
		"webpack_static":  value.FromCallable(callableFunc(e.webpackStaticGlobal)),

		// Constants
		"env":      value.FromString(e.envName),
		"settings": e.settingsValue(),
	}

	// Built last so it can see every other global, mirroring a partial
	// application of the renderer over the completed table.
	g["render_bundle"] = value.FromCallable(e.bundleRenderer(g))

	return g
}

// settingsValue exposes the configuration values templates are allowed to
// read through the settings global.
func (e *Environment) settingsValue() value.Value {
	return value.FromMap(map[string]value.Value{
		"SERVICE_NAME": value.FromString(e.config.ServiceName),
		"STATIC_URL":   value.FromString(e.config.StaticURL),
		"ENVIRONMENT":  value.FromString(e.envName),
		"DEBUG":        value.FromBool(e.config.Debug),
	})
}

// newEngine constructs a minijinja environment carrying this
// Environment's escape policy, filters, and globals.
func (e *Environment) newEngine() *minijinja.Environment {
	engine := minijinja.NewEnvironment()
	engine.SetAutoEscapeFunc(func(name string) minijinja.AutoEscape {
		if strings.HasSuffix(name, ".html") || strings.HasSuffix(name, njkExtension) {
			return minijinja.AutoEscapeHTML
		}
		return minijinja.AutoEscapeNone
	})
	engine.AddFilter("localtime", e.localtimeFilter)
	for name, v := range e.globals {
		engine.AddGlobal(name, v)
	}
	return engine
}

// Refresh reloads all templates from the configured directories, running
// each source through the preprocessor before compilation. It allows
// template updates without restarting the application.
func (e *Environment) Refresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	engine := e.newEngine()
	var names []string

	for _, dir := range e.config.TemplateDirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			e.logger.Warn("Template directory does not exist, skipping", "dir", dir)
			continue
		}

		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !hasTemplateExtension(path) {
				return nil
			}

			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			name := filepath.ToSlash(rel)

			raw, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			source := e.pre.Preprocess(string(raw), name, path)
			if err = engine.AddTemplate(name, source); err != nil {
				return fmt.Errorf("failed to add template %s: %w", name, err)
			}
			names = append(names, name)
			return nil
		})
		if err != nil {
			e.logger.Error("failed to load template files", "dir", dir, "error", err)
			return err
		}
	}

	if len(names) == 0 {
		e.logger.Warn("No template files found", "dirs", e.config.TemplateDirs)
	}

	e.engine = engine
	e.names = names
	e.logger.Info("Loaded template files", "count", len(names))
	return nil
}

func hasTemplateExtension(path string) bool {
	for _, ext := range templateExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// Execute renders a loaded template by name, writing the output to w. The
// data map is the template's render context.
func (e *Environment) Execute(w io.Writer, name string, data map[string]any) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if data == nil {
		data = map[string]any{}
	}
	tmpl, err := e.engine.GetTemplate(name)
	if err != nil {
		return err
	}
	out, err := tmpl.Render(data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// ExecuteString compiles and renders a raw template source with this
// environment's globals and filters. Ideal for testing or previewing
// templates without saving them to disk. The source is preprocessed under
// a synthetic name, so the njk-only guard rules do not apply.
func (e *Environment) ExecuteString(content string, data map[string]any) (string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	const name = "<string>"
	if data == nil {
		data = map[string]any{}
	}
	engine := e.newEngine()
	if err := engine.AddTemplate(name, e.pre.Preprocess(content, name, "")); err != nil {
		return "", fmt.Errorf("failed to parse string template: %w", err)
	}
	tmpl, err := engine.GetTemplate(name)
	if err != nil {
		return "", err
	}
	return tmpl.Render(data)
}

// TemplateNames returns a sorted copy of the loaded template names.
func (e *Environment) TemplateNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, len(e.names))
	copy(names, e.names)
	sort.Strings(names)
	return names
}

// GlobalNames returns the sorted names in the registration table.
func (e *Environment) GlobalNames() []string {
	names := make([]string, 0, len(e.globals))
	for name := range e.globals {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// EnvName returns the deployment environment name frozen at construction.
func (e *Environment) EnvName() string {
	return e.envName
}

// Preprocessor returns the source preprocessor this environment compiles
// templates through.
func (e *Environment) Preprocessor() *Preprocessor {
	return e.pre
}
