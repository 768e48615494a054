package templating

// Config holds all configuration options for the template environment.
type Config struct {
	// TemplateDirs lists the directories searched for template files.
	// Later directories win when two files share a relative name.
	TemplateDirs []string `json:"template_dirs"`

	// StaticURL is the URL prefix under which static assets are served.
	StaticURL string `json:"static_url"`

	// StaticManifest is an optional path to a JSON manifest mapping asset
	// names to their hashed filenames. When empty, names pass through.
	StaticManifest string `json:"static_manifest"`

	// WebpackStatsPath is an optional path to the webpack-stats.json file
	// produced by webpack-bundle-tracker. Required for render_bundle and
	// webpack_static to resolve anything.
	WebpackStatsPath string `json:"webpack_stats_path"`

	// Routes maps route names to URL path patterns for the url global.
	// Patterns use ":name" placeholders, e.g. "/applications/:id/".
	Routes map[string]string `json:"routes"`

	// Timezone is the IANA zone name used by the localtime filter.
	Timezone string `json:"timezone"`

	// TimeFormat is the Go reference layout localtime renders with.
	TimeFormat string `json:"time_format"`

	// ServiceName is exposed to templates through the settings global.
	ServiceName string `json:"service_name"`

	// Debug is exposed to templates through the settings global.
	Debug bool `json:"debug"`
}

// DefaultConfig returns a Config with sensible default values.
// Routes is empty by default, so the url global resolves nothing until
// the hosting application registers its route table.
func DefaultConfig() *Config {
	return &Config{
		TemplateDirs:     []string{"./data/templates"},
		StaticURL:        "/static/",
		StaticManifest:   "",
		WebpackStatsPath: "",
		Routes:           map[string]string{},
		Timezone:         "Europe/London",
		TimeFormat:       "2 January 2006 at 3:04pm",
		ServiceName:      "govjinja",
		Debug:            false,
	}
}
