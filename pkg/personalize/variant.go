package personalize

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// PlacementReplace replaces the contents of each target.
const PlacementReplace = "replace"

// Variant is one server-selected content unit.
type Variant struct {
	ID             VariantID `json:"id"`
	Name           string    `json:"name"`
	Script         string    `json:"script,omitempty"`
	Markup         string    `json:"markup,omitempty"`
	TargetSelector string    `json:"targetSelector,omitempty"`
	PlacementMode  string    `json:"placementMode,omitempty"`
}

// HasMarkup reports whether the variant carries markup to place.
func (v Variant) HasMarkup() bool { return strings.TrimSpace(v.Markup) != "" }

// HasScript reports whether the variant carries a script body.
func (v Variant) HasScript() bool { return strings.TrimSpace(v.Script) != "" }

// VariantID is a variant identifier sent either as a JSON string or number.
type VariantID string

func (id VariantID) String() string { return string(id) }

func (id *VariantID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = VariantID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = VariantID(n.String())
	return nil
}

func (id VariantID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// decodeVariants reads a JSON array of variants. Anything else yields an
// error. Entries that fail to decode individually are skipped.
func decodeVariants(body []byte) ([]Variant, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	out := make([]Variant, 0, len(raw))
	for _, r := range raw {
		var v Variant
		if err := json.Unmarshal(r, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
