package templating

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"

	"github.com/mitsuhiko/minijinja/minijinja-go/v2/value"

	"github.com/oakmere/govjinja/pkg/forms"
	"github.com/oakmere/govjinja/pkg/messages"
)

// RequestData builds the template-visible view of an incoming request for
// the request context key. query_transform and get_messages read from it.
func RequestData(w http.ResponseWriter, r *http.Request) map[string]any {
	query := make(map[string]any, len(r.URL.Query()))
	for k, vs := range r.URL.Query() {
		items := make([]any, len(vs))
		for i, v := range vs {
			items[i] = v
		}
		query[k] = items
	}

	flashes := messages.FromRequest(w, r)
	msgs := make([]any, len(flashes))
	for i, m := range flashes {
		msgs[i] = m.Map()
	}

	return map[string]any{
		"path":     r.URL.Path,
		"method":   r.Method,
		"GET":      query,
		"messages": msgs,
	}
}

// queryTransform overrides query parameters in the current request's
// query string: existing keys are retained, supplied keys are set to their
// supplied values, and the encoded result is returned. The request's own
// query mapping is copied, never mutated.
func queryTransform(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("query_transform takes exactly 1 argument, got %d", len(args))
	}

	updated := url.Values{}
	if query, ok := args[0].GetAttr("GET").AsMap(); ok {
		for key, v := range query {
			if items, isSlice := v.AsSlice(); isSlice {
				for _, item := range items {
					updated.Add(key, item.String())
				}
			} else {
				updated.Set(key, v.String())
			}
		}
	}

	// Deterministic application order; last write wins within the map
	// either way, but tests deserve stable output.
	keys := make([]string, 0, len(kwargs))
	for key := range kwargs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		updated.Set(key, kwargs[key].String())
	}

	return value.FromString(updated.Encode()), nil
}

// getMessages returns the flash messages attached to the request view, or
// an empty sequence when none were queued.
func getMessages(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("get_messages takes exactly 1 argument, got %d", len(args))
	}
	msgs := args[0].GetAttr("messages")
	if msgs.IsUndefined() {
		return value.FromSlice(nil), nil
	}
	return msgs, nil
}

// crispy renders a form definition as GOV.UK markup.
func crispy(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("crispy takes exactly 1 argument, got %d", len(args))
	}
	form, ok := args[0].Raw().(*forms.Form)
	if !ok {
		return value.Undefined(), fmt.Errorf("crispy: argument is not a form")
	}
	return value.FromSafeString(form.Render()), nil
}

// staticGlobal resolves a static asset name to its served URL.
func (e *Environment) staticGlobal(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("static takes exactly 1 argument, got %d", len(args))
	}
	return value.FromString(e.statics.Resolve(args[0].String())), nil
}

// urlGlobal reverses a route name into a path:
// {{ url("application-detail", application.id) }}.
func (e *Environment) urlGlobal(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) < 1 {
		return value.Undefined(), fmt.Errorf("url takes at least 1 argument")
	}
	name, ok := args[0].AsString()
	if !ok {
		return value.Undefined(), fmt.Errorf("url: route name must be a string")
	}
	rest := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		rest = append(rest, arg.String())
	}
	path, err := e.router.Reverse(name, rest...)
	if err != nil {
		return value.Undefined(), err
	}
	return value.FromString(path), nil
}

// webpackStaticGlobal resolves an asset emitted by webpack against the
// bundle manifest's public path.
func (e *Environment) webpackStaticGlobal(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) != 1 {
		return value.Undefined(), fmt.Errorf("webpack_static takes exactly 1 argument, got %d", len(args))
	}
	if e.bundles == nil {
		return value.Undefined(), fmt.Errorf("webpack_static: no webpack stats configured")
	}
	return value.FromString(e.bundles.Static(args[0].String())), nil
}

// bundleRenderer builds the render_bundle callable over the completed
// global table, so the renderer can resolve unrecorded asset paths through
// the environment's own static global. Called once, after every other
// global is registered.
func (e *Environment) bundleRenderer(globals map[string]value.Value) callableFunc {
	return func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) < 1 || len(args) > 2 {
			return value.Undefined(), fmt.Errorf("render_bundle takes 1 or 2 arguments, got %d", len(args))
		}
		if e.bundles == nil {
			return value.Undefined(), fmt.Errorf("render_bundle: no webpack stats configured")
		}

		name, ok := args[0].AsString()
		if !ok {
			return value.Undefined(), fmt.Errorf("render_bundle: bundle name must be a string")
		}
		ext := ""
		if len(args) == 2 {
			ext = args[1].String()
		} else if v, exists := kwargs["extension"]; exists {
			ext = v.String()
		}

		tags, err := e.bundles.RenderBundle(name, ext, func(asset string) (string, error) {
			static, exists := globals["static"]
			if !exists {
				return asset, nil
			}
			callable, isCallable := static.AsCallable()
			if !isCallable {
				return asset, nil
			}
			resolved, err := callable.Call(nil, []value.Value{value.FromString(asset)}, nil)
			if err != nil {
				return "", err
			}
			return resolved.String(), nil
		})
		if err != nil {
			return value.Undefined(), err
		}
		return value.FromSafeString(tags), nil
	}
}
