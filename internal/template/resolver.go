// Package template implements the variable resolver: placeholder discovery,
// per-recipient resolution and final message rendering.
package template

import (
	"regexp"

	"github.com/textpilot/bulksms-backend/internal/model"
)

// Pattern recognizes one provider's variable markers. The single capture
// group is the variable name.
type Pattern struct {
	re *regexp.Regexp
}

var (
	// {name} — free-form and WhatsApp templates
	braced = Pattern{re: regexp.MustCompile(`\{(\w+)\}`)}
	// ##name## — MSG91 flow variables
	hashed = Pattern{re: regexp.MustCompile(`##(\w+)##`)}
	// {#name#} — Textlocal DLT templates
	hashBraced = Pattern{re: regexp.MustCompile(`\{#(\w+)#\}`)}
)

// PatternFor returns the marker pattern for a provider's templates.
func PatternFor(p model.Provider) Pattern {
	switch p {
	case model.ProviderMSG91:
		return hashed
	case model.ProviderTextlocal:
		return hashBraced
	default:
		return braced
	}
}

// ExtractVariables returns the distinct variable names in raw, in
// first-seen order. Repeated occurrences collapse to one entry. Names are
// case-sensitive: {Name} and {name} are distinct variables, mirroring the
// upstream gateways.
func (p Pattern) ExtractVariables(raw string) []string {
	seen := map[string]bool{}
	var names []string
	for _, m := range p.re.FindAllStringSubmatch(raw, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Resolve produces the substitution value for one mapping against one
// recipient. A field mapping whose field is absent degrades to the bracketed
// field name so previews stay readable; MissingField reports that case.
func Resolve(m model.VariableMapping, r model.Recipient) string {
	if m.Source == model.SourceStatic {
		return m.Value
	}
	if v, ok := r.Field(m.Value); ok {
		return v
	}
	return "[" + m.Value + "]"
}

// MissingField reports whether a field mapping points at a field the
// recipient does not have.
func MissingField(m model.VariableMapping, r model.Recipient) bool {
	if m.Source != model.SourceField {
		return false
	}
	_, ok := r.Field(m.Value)
	return !ok
}

// Render substitutes every occurrence of each mapped placeholder with its
// resolved value. Placeholders present in the text but absent from mappings
// are left verbatim and returned as warnings.
func (p Pattern) Render(raw string, mappings []model.VariableMapping, r model.Recipient) (string, []string) {
	byName := make(map[string]model.VariableMapping, len(mappings))
	for _, m := range mappings {
		byName[m.Placeholder] = m
	}

	var unknown []string
	seenUnknown := map[string]bool{}
	out := p.re.ReplaceAllStringFunc(raw, func(marker string) string {
		name := p.re.FindStringSubmatch(marker)[1]
		m, ok := byName[name]
		if !ok {
			if !seenUnknown[name] {
				seenUnknown[name] = true
				unknown = append(unknown, name)
			}
			return marker
		}
		return Resolve(m, r)
	})
	return out, unknown
}

// ResolveAll resolves every mapping for one recipient, for providers that
// take variable values out-of-band instead of a pre-rendered body. The
// second return lists mapped fields the recipient is missing.
func ResolveAll(mappings []model.VariableMapping, r model.Recipient) (map[string]string, []string) {
	values := make(map[string]string, len(mappings))
	var missing []string
	for _, m := range mappings {
		values[m.Placeholder] = Resolve(m, r)
		if MissingField(m, r) {
			missing = append(missing, m.Value)
		}
	}
	return values, missing
}

// ReconcileMappings is a pure reducer from the current mapping set and the
// freshly detected variable list to the next mapping set: mappings for
// vanished variables are dropped, surviving ones keep their configuration,
// and newly detected variables default to a same-named field lookup.
func ReconcileMappings(current []model.VariableMapping, detected []string) []model.VariableMapping {
	byName := make(map[string]model.VariableMapping, len(current))
	for _, m := range current {
		byName[m.Placeholder] = m
	}

	next := make([]model.VariableMapping, 0, len(detected))
	for _, name := range detected {
		if m, ok := byName[name]; ok {
			next = append(next, m)
			continue
		}
		next = append(next, model.VariableMapping{
			Placeholder: name,
			Source:      model.SourceField,
			Value:       name,
		})
	}
	return next
}
