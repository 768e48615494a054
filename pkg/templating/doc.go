/*
Package templating configures a Jinja-style rendering environment for
services built on the GOV.UK Design System's Nunjucks templates.

It wires the minijinja engine together with a source preprocessor that
patches the handful of known Nunjucks-to-Jinja syntax mismatches in the
Design System component macros, and registers the global helper functions
templates expect by name: URL reversal, static asset resolution, webpack
bundle injection, pluralization, timezone localization, flash-message
retrieval and form rendering.

The environment is built once at startup and its registration table is
read-only afterwards, so it may be shared freely across request handlers.
Templates can be hot-reloaded from the filesystem with Refresh.
*/
package templating
