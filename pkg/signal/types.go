package signal

import (
	"maps"
	"strings"
)

// refField is the payload key owned by the identity manager.
const refField = "ref"

// DataPoint is a named interest with an optional weight.
type DataPoint struct {
	Name   string
	Weight *int
}

// Weighted returns a data point with a weight.
func Weighted(name string, weight int) DataPoint {
	return DataPoint{Name: name, Weight: &weight}
}

func (d DataPoint) payload() map[string]any {
	p := map[string]any{"name": d.Name}
	if d.Weight != nil {
		p["weight"] = *d.Weight
	}
	return p
}

// Action is a custom visitor action.
type Action struct {
	Name       string
	Category   string
	Value      *float64
	Properties map[string]any
}

func (a Action) payload() map[string]any {
	p := map[string]any{"name": a.Name}
	if a.Category != "" {
		p["category"] = a.Category
	}
	if a.Value != nil {
		p["value"] = *a.Value
	}
	if len(a.Properties) > 0 {
		p["properties"] = a.Properties
	}
	return p
}

// Contact carries profile fields for the current visitor. Fields holds
// additional custom attributes and never overrides the named ones. A "ref"
// key in Fields is dropped; the visitor identifier is attached separately.
type Contact struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Fields    map[string]any
}

func (c Contact) empty() bool {
	return strings.TrimSpace(c.Email) == "" &&
		c.FirstName == "" && c.LastName == "" && c.Phone == "" &&
		len(c.fields()) == 0
}

// fields returns the custom attributes without the reserved ref key.
func (c Contact) fields() map[string]any {
	if _, ok := c.Fields[refField]; !ok {
		return c.Fields
	}
	out := maps.Clone(c.Fields)
	delete(out, refField)
	return out
}

func (c Contact) payload() map[string]any {
	fields := c.fields()
	p := make(map[string]any, len(fields)+4)
	maps.Copy(p, fields)
	set := func(k, v string) {
		if v != "" {
			p[k] = v
		}
	}
	set("email", strings.TrimSpace(c.Email))
	set("firstName", c.FirstName)
	set("lastName", c.LastName)
	set("phone", c.Phone)
	return p
}

// identifyQuery is sent query encoded.
type identifyQuery struct {
	Email string `url:"email"`
	Ref   string `url:"ref,omitempty"`
}
