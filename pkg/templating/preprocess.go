package templating

import (
	"regexp"
	"strings"
)

// njkExtension marks template sources written in the Nunjucks dialect.
// Only these receive the guard rewrites below; everything else passes
// through the baseline translation untouched.
const njkExtension = ".njk"

// iteratedObjects lists the expressions the Design System macros iterate
// with a "for attribute, value in ..." construct. The baseline translation
// only guards params.attributes, so the rest live here.
var iteratedObjects = []string{
	`item.attributes`,
}

// nestedAttrs lists the dotted prefixes the macros access with attribute
// chaining where an absent intermediate value would otherwise raise at
// render time. Curated, not exhaustive.
var nestedAttrs = []string{
	`cell.attributes`,
	`item.conditional`,
	`item.hint`,
	`item.label`,
	`params.attributes`,
	`params.countMessage`,
	`params.formGroup`,
	`params.legend`,
	`params.prefix`,
	`params.suffix`,
}

// baselineRules are the Nunjucks-to-Jinja rewrites applied to every
// source before the njk-only guard rules run. They stand in for the
// upstream GOV.UK translation layer.
var baselineRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	// Nunjucks accepts elseif, Jinja only elif.
	{regexp.MustCompile(`\{%([+-]?)(\s*)elseif`), `{%${1}${2}elif`},
	// The one iteration guard the upstream layer already applies.
	{regexp.MustCompile(`(for attribute, value in )(params.attributes)`), `$1($2|default({}))`},
}

// Preprocessor textually rewrites known incompatibilities between the
// Nunjucks dialect and Jinja before compilation. The rules match raw text,
// not a parsed syntax tree, so a pattern can in principle hit inside an
// unrelated larger identifier; the fixed allow-lists above keep that
// acceptable in practice.
type Preprocessor struct {
	iterRe *regexp.Regexp
	attrRe *regexp.Regexp
}

// NewPreprocessor compiles the rewrite-rule tables into a Preprocessor.
func NewPreprocessor() *Preprocessor {
	return &Preprocessor{
		iterRe: regexp.MustCompile(`(for attribute, value in )(` + strings.Join(iteratedObjects, `|`) + `)`),
		attrRe: regexp.MustCompile(`(` + strings.Join(nestedAttrs, `|`) + `)\.`),
	}
}

// Preprocess rewrites a raw template source. The logical name is unused by
// the current rules but kept in the signature so rules can become
// name-aware without changing call sites. Pure: the input string is never
// modified, malformed output simply fails later in the compiler.
func (p *Preprocessor) Preprocess(source, name, filename string) string {
	source = translateBaseline(source)

	if !strings.HasSuffix(filename, njkExtension) {
		return source
	}

	// fix iterating objects that may be undefined
	source = p.iterRe.ReplaceAllString(source, `$1($2|default({}))`)

	// fix nested attribute access on possibly-undefined intermediates
	source = p.attrRe.ReplaceAllString(source, `($1|default({})).`)

	// fix concatenating str and int: Jinja's + does not coerce mixed
	// operands the way Nunjucks does, ~ does
	source = strings.ReplaceAll(source,
		"+ (params.maxlength or params.maxwords) +",
		"~ (params.maxlength or params.maxwords) ~",
	)

	return source
}

// translateBaseline applies the dialect-translation rules every source
// gets regardless of extension.
func translateBaseline(source string) string {
	for _, rule := range baselineRules {
		source = rule.re.ReplaceAllString(source, rule.repl)
	}
	return source
}
