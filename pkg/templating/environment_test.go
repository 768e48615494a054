package templating

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

// setupTestEnvironment creates an Environment over a temp template dir for
// a single test's scope. Extra template files may be supplied as
// name -> source pairs.
func setupTestEnvironment(tb testing.TB, files map[string]string) *Environment {
	tb.Helper()

	dir := tb.TempDir()
	if files == nil {
		files = map[string]string{"index.njk": "Hello {{ name }}"}
	}
	for name, source := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			tb.Fatalf("failed to create template subdir: %v", err)
		}
		if err := os.WriteFile(path, []byte(source), 0644); err != nil {
			tb.Fatalf("failed to write template %s: %v", name, err)
		}
	}

	config := DefaultConfig()
	config.TemplateDirs = []string{dir}
	config.Routes = map[string]string{
		"home":               "/",
		"application-detail": "/applications/:id/",
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env, err := New(logger, config)
	if err != nil {
		tb.Fatalf("failed to create environment: %v", err)
	}
	return env
}

// expectedGlobals is the fixed set of names the registration table
// exposes to templates.
var expectedGlobals = []string{
	"break_words",
	"crispy",
	"env",
	"get_messages",
	"localtime",
	"pluralize",
	"query_transform",
	"render_bundle",
	"settings",
	"static",
	"url",
	"webpack_static",
}

func TestGlobalRegistrationTable(t *testing.T) {
	env := setupTestEnvironment(t, nil)

	if got := env.GlobalNames(); !slices.Equal(got, expectedGlobals) {
		t.Errorf("global name set mismatch:\ngot  %v\nwant %v", got, expectedGlobals)
	}

	// Two builds yield independent instances with identical tables.
	other := setupTestEnvironment(t, nil)
	if !slices.Equal(env.GlobalNames(), other.GlobalNames()) {
		t.Error("two environments disagree on the global name set")
	}
}

func TestEnvGlobalReadsVariableAtConstruction(t *testing.T) {
	t.Setenv("ENV", "production")
	first := setupTestEnvironment(t, nil)
	if first.EnvName() != "production" {
		t.Errorf("EnvName() = %q, want %q", first.EnvName(), "production")
	}

	t.Setenv("ENV", "staging")
	second := setupTestEnvironment(t, nil)
	if second.EnvName() != "staging" {
		t.Errorf("second EnvName() = %q, want %q", second.EnvName(), "staging")
	}
	// The first instance keeps the value frozen at its construction.
	if first.EnvName() != "production" {
		t.Errorf("first EnvName() changed to %q after rebuild", first.EnvName())
	}

	t.Setenv("ENV", "")
	if env := setupTestEnvironment(t, nil); env.EnvName() != "dev" {
		t.Errorf("unset ENV: EnvName() = %q, want %q", env.EnvName(), "dev")
	}
}

func TestExecute(t *testing.T) {
	env := setupTestEnvironment(t, map[string]string{
		"index.njk":         "Hello {{ name }}",
		"partials/nav.html": "<nav>{{ name }}</nav>",
	})

	want := []string{"index.njk", "partials/nav.html"}
	if got := env.TemplateNames(); !slices.Equal(got, want) {
		t.Fatalf("TemplateNames() = %v, want %v", got, want)
	}

	var buf bytes.Buffer
	if err := env.Execute(&buf, "index.njk", map[string]any{"name": "World"}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if buf.String() != "Hello World" {
		t.Errorf("Execute output = %q, want %q", buf.String(), "Hello World")
	}

	if err := env.Execute(io.Discard, "missing.njk", nil); err == nil {
		t.Error("Execute of a missing template did not error")
	}
}

func TestExecuteString(t *testing.T) {
	env := setupTestEnvironment(t, nil)

	t.Run("BreakWords", func(t *testing.T) {
		out, err := env.ExecuteString(`{{ break_words("hello/goodbye") }}`, nil)
		if err != nil {
			t.Fatalf("ExecuteString failed: %v", err)
		}
		if out != "hello&#8203;/&#8203;goodbye" {
			t.Errorf("break_words output = %q", out)
		}
	})

	t.Run("EnvGlobal", func(t *testing.T) {
		out, err := env.ExecuteString(`{{ env }}`, nil)
		if err != nil {
			t.Fatalf("ExecuteString failed: %v", err)
		}
		if out != env.EnvName() {
			t.Errorf("env global = %q, want %q", out, env.EnvName())
		}
	})

	t.Run("SettingsGlobal", func(t *testing.T) {
		out, err := env.ExecuteString(`{{ settings.STATIC_URL }}`, nil)
		if err != nil {
			t.Fatalf("ExecuteString failed: %v", err)
		}
		if out != "/static/" {
			t.Errorf("settings.STATIC_URL = %q", out)
		}
	})

	t.Run("UrlGlobal", func(t *testing.T) {
		out, err := env.ExecuteString(`{{ url("application-detail", "42") }}`, nil)
		if err != nil {
			t.Fatalf("ExecuteString failed: %v", err)
		}
		if out != "/applications/42/" {
			t.Errorf("url global = %q", out)
		}
	})

	t.Run("LocaltimeFilter", func(t *testing.T) {
		ts := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
		out, err := env.ExecuteString(`{{ ts|localtime }}`, map[string]any{"ts": ts})
		if err != nil {
			t.Fatalf("ExecuteString failed: %v", err)
		}
		if out != "15 January 2024 at 12:00pm" {
			t.Errorf("localtime filter = %q", out)
		}
	})

	t.Run("Pluralize", func(t *testing.T) {
		out, err := env.ExecuteString(`document{{ pluralize(n) }}`, map[string]any{"n": 3})
		if err != nil {
			t.Fatalf("ExecuteString failed: %v", err)
		}
		if out != "documents" {
			t.Errorf("pluralize = %q", out)
		}
	})
}

func TestRefreshPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.njk")
	if err := os.WriteFile(path, []byte("one"), 0644); err != nil {
		t.Fatalf("failed to write template: %v", err)
	}

	config := DefaultConfig()
	config.TemplateDirs = []string{dir}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env, err := New(logger, config)
	if err != nil {
		t.Fatalf("failed to create environment: %v", err)
	}

	if err = os.WriteFile(path, []byte("two"), 0644); err != nil {
		t.Fatalf("failed to rewrite template: %v", err)
	}
	if err = env.Refresh(); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	var buf bytes.Buffer
	if err = env.Execute(&buf, "index.njk", nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if buf.String() != "two" {
		t.Errorf("Execute after Refresh = %q, want %q", buf.String(), "two")
	}
}
