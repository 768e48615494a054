// Package forms renders form definitions as GOV.UK Design System markup.
// It backs the crispy template global: handlers describe a form as data
// and templates emit it with a single call.
package forms

import (
	"fmt"
	"html"
	"strings"
)

// Field is one input in a form.
type Field struct {
	// Name is the input's name and id attribute.
	Name string

	// Label is the visible field label.
	Label string

	// Hint is optional supporting text rendered under the label.
	Hint string

	// Type is the input type attribute. Empty means "text". The special
	// value "textarea" renders a textarea element instead.
	Type string

	// Value is the current value, re-rendered after validation failures.
	Value string

	// Errors holds validation messages for the field. A non-empty list
	// switches the group into its error presentation.
	Errors []string
}

// Form is a renderable collection of fields.
type Form struct {
	// Action and Method populate the form element. Method defaults to
	// "post" when empty.
	Action string
	Method string

	// SubmitLabel is the button text. Defaults to "Continue".
	SubmitLabel string

	Fields []Field
}

// Render returns the form as GOV.UK-styled HTML. All user-supplied text
// is escaped; the caller may emit the result verbatim as markup.
func (f *Form) Render() string {
	method := f.Method
	if method == "" {
		method = "post"
	}
	submit := f.SubmitLabel
	if submit == "" {
		submit = "Continue"
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<form action="%s" method="%s" novalidate>`,
		html.EscapeString(f.Action), html.EscapeString(method))
	for _, field := range f.Fields {
		renderField(&b, field)
	}
	fmt.Fprintf(&b, `<button type="submit" class="govuk-button" data-module="govuk-button">%s</button>`,
		html.EscapeString(submit))
	b.WriteString(`</form>`)
	return b.String()
}

func renderField(b *strings.Builder, field Field) {
	name := html.EscapeString(field.Name)
	hasError := len(field.Errors) > 0

	groupClass := "govuk-form-group"
	if hasError {
		groupClass += " govuk-form-group--error"
	}
	fmt.Fprintf(b, `<div class="%s">`, groupClass)

	fmt.Fprintf(b, `<label class="govuk-label" for="%s">%s</label>`,
		name, html.EscapeString(field.Label))

	var describedBy []string
	if field.Hint != "" {
		fmt.Fprintf(b, `<div id="%s-hint" class="govuk-hint">%s</div>`,
			name, html.EscapeString(field.Hint))
		describedBy = append(describedBy, name+"-hint")
	}
	if hasError {
		fmt.Fprintf(b, `<p id="%s-error" class="govuk-error-message">`, name)
		for i, msg := range field.Errors {
			if i > 0 {
				b.WriteString("<br/>")
			}
			fmt.Fprintf(b, `<span class="govuk-visually-hidden">Error:</span> %s`,
				html.EscapeString(msg))
		}
		b.WriteString(`</p>`)
		describedBy = append(describedBy, name+"-error")
	}

	describedByAttr := ""
	if len(describedBy) > 0 {
		describedByAttr = fmt.Sprintf(` aria-describedby="%s"`, strings.Join(describedBy, " "))
	}

	if field.Type == "textarea" {
		class := "govuk-textarea"
		if hasError {
			class += " govuk-textarea--error"
		}
		fmt.Fprintf(b, `<textarea class="%s" id="%s" name="%s" rows="5"%s>%s</textarea>`,
			class, name, name, describedByAttr, html.EscapeString(field.Value))
	} else {
		inputType := field.Type
		if inputType == "" {
			inputType = "text"
		}
		class := "govuk-input"
		if hasError {
			class += " govuk-input--error"
		}
		fmt.Fprintf(b, `<input class="%s" id="%s" name="%s" type="%s" value="%s"%s/>`,
			class, name, name, html.EscapeString(inputType),
			html.EscapeString(field.Value), describedByAttr)
	}

	b.WriteString(`</div>`)
}
