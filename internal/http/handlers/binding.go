package handlers

import (
	"encoding/json"
	"strings"
)

// textID is an identifier field that accepts a form value, a JSON string or
// a JSON number. Coercion and validation stay in the services layer, which
// reports the offending field.
type textID string

func (t *textID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = textID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*t = textID(n.String())
	return nil
}

func (t textID) String() string { return string(t) }

// normalizeNewlines converts CRLF and lone CR to LF so textarea input from
// different browsers is stored the same way.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
