package model

// Template is a provider-hosted message template. Immutable once fetched;
// variable markers are substrings of RawText in the provider's pattern.
type Template struct {
	ID            string   `db:"id" json:"id"`
	Provider      Provider `db:"provider" json:"provider"`
	Name          string   `db:"name" json:"name"`
	RawText       string   `db:"raw_text" json:"raw_text"`
	RegulatoryID  string   `db:"regulatory_id" json:"regulatory_id,omitempty"`
	VariableCount int      `db:"variable_count" json:"variable_count"`
}

// MappingSource tags how a variable gets its value.
type MappingSource string

const (
	SourceStatic MappingSource = "static" // Value is the literal to substitute
	SourceField  MappingSource = "field"  // Value names a recipient field
)

// VariableMapping binds one distinct placeholder in the active template to
// either a static literal or a per-recipient field lookup. Every variable
// occurring in the template must have exactly one mapping before dispatch.
type VariableMapping struct {
	Placeholder string        `json:"placeholder"`
	Source      MappingSource `json:"source"`
	Value       string        `json:"value"`
}
