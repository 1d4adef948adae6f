package model

import "strconv"

// Recipient is one contact inside a campaign. Phone is the stable identity
// of the recipient within a campaign; ExtraFields carries arbitrary
// per-contact attributes (string, number or bool) usable as mapping sources.
type Recipient struct {
	Phone       string         `json:"phone"`
	Name        string         `json:"name"`
	ExtraFields map[string]any `json:"extra_fields,omitempty"`
}

// Field looks up a personalization field by name. Canonical fields "name"
// and "phone" win over ExtraFields entries of the same name.
func (r Recipient) Field(name string) (string, bool) {
	switch name {
	case "name":
		return r.Name, true
	case "phone":
		return r.Phone, true
	}
	v, ok := r.ExtraFields[name]
	if !ok {
		return "", false
	}
	return fieldString(v), true
}

func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		// JSON numbers decode as float64; keep integers unpadded.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
