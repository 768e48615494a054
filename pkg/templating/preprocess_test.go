package templating

import (
	"strings"
	"testing"
)

// TestPreprocessDialectGate verifies that only .njk sources receive the
// guard rewrites; everything else passes through the baseline translation
// byte-identical.
func TestPreprocessDialectGate(t *testing.T) {
	p := NewPreprocessor()

	source := "{% for attribute, value in item.attributes %}{{ params.legend.text }}{% endfor %}"

	if got := p.Preprocess(source, "page.html", "templates/page.html"); got != source {
		t.Errorf("non-njk source was rewritten:\n%s", got)
	}
	if got := p.Preprocess(source, "page", ""); got != source {
		t.Errorf("source without a filename was rewritten:\n%s", got)
	}
	if got := p.Preprocess(source, "macro.njk", "templates/macro.njk"); got == source {
		t.Error("njk source was not rewritten")
	}
}

// TestPreprocessBaseline verifies the translation rules applied to every
// source regardless of extension.
func TestPreprocessBaseline(t *testing.T) {
	p := NewPreprocessor()

	t.Run("Elseif", func(t *testing.T) {
		got := p.Preprocess("{% if a %}1{% elseif b %}2{% endif %}", "page.html", "page.html")
		want := "{% if a %}1{% elif b %}2{% endif %}"
		if got != want {
			t.Errorf("elseif not translated: got %q, want %q", got, want)
		}

		got = p.Preprocess("{%- elseif b %}", "page.html", "page.html")
		if got != "{%- elif b %}" {
			t.Errorf("trimmed elseif not translated: got %q", got)
		}
	})

	t.Run("ParamsAttributesIteration", func(t *testing.T) {
		got := p.Preprocess("{% for attribute, value in params.attributes %}", "page.html", "page.html")
		want := "{% for attribute, value in (params.attributes|default({})) %}"
		if got != want {
			t.Errorf("baseline iteration guard missing: got %q, want %q", got, want)
		}
	})
}

// TestPreprocessGuardRules validates the three njk-only substitution rules.
func TestPreprocessGuardRules(t *testing.T) {
	p := NewPreprocessor()
	njk := func(source string) string {
		return p.Preprocess(source, "component.njk", "templates/component.njk")
	}

	t.Run("IterationGuard", func(t *testing.T) {
		got := njk("{% for attribute, value in item.attributes %}")
		want := "{% for attribute, value in (item.attributes|default({})) %}"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("AttributeGuard", func(t *testing.T) {
		got := njk("{{ params.legend.text }}")
		want := "{{ (params.legend|default({})).text }}"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}

		// Every allow-listed prefix gets the same treatment.
		for _, prefix := range nestedAttrs {
			source := "{{ " + prefix + ".classes }}"
			got = njk(source)
			want = "{{ (" + prefix + "|default({})).classes }}"
			if got != want {
				t.Errorf("prefix %s: got %q, want %q", prefix, got, want)
			}
		}

		// A bare prefix without attribute chaining is left alone.
		source := "{{ params.legend }}"
		if got = njk(source); got != source {
			t.Errorf("bare prefix was rewritten: %q", got)
		}
	})

	t.Run("ConcatFix", func(t *testing.T) {
		source := `{{ "count-" + (params.maxlength or params.maxwords) + "-suffix" }}`
		got := njk(source)
		if strings.Contains(got, "+ (params.maxlength or params.maxwords) +") {
			t.Errorf("plus concatenation survived: %q", got)
		}
		if !strings.Contains(got, "~ (params.maxlength or params.maxwords) ~") {
			t.Errorf("tilde concatenation missing: %q", got)
		}
	})

	t.Run("RulesCompose", func(t *testing.T) {
		source := "{% for attribute, value in item.attributes %}{{ (params.formGroup.classes) }}{% endfor %}"
		got := njk(source)
		if !strings.Contains(got, "(item.attributes|default({}))") {
			t.Errorf("iteration guard missing in composed source: %q", got)
		}
		if !strings.Contains(got, "(params.formGroup|default({})).classes") {
			t.Errorf("attribute guard missing in composed source: %q", got)
		}
	})
}
