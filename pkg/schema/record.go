package schema

import "reflect"

// Record maps unqualified field names to values. A missing key and a nil
// value both mean the field is absent.
type Record map[string]any

// Get returns the value of name and whether it is present.
func (r Record) Get(name string) (any, bool) {
	v, ok := r[name]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// Has reports whether name is present.
func (r Record) Has(name string) bool {
	_, ok := r.Get(name)
	return ok
}

// Clone returns a copy of r. Slice values are copied so the clone owns them.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue copies slice values one level deep and returns other values as is.
func CloneValue(v any) any {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return v
	}
	cp := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(cp, rv)
	return cp.Interface()
}

// Point is one control point together with its measures.
type Point struct {
	Fields   Record
	Measures []Record
}

// ID returns the point id, or "" when absent or not a string.
func (p Point) ID() string {
	if v, ok := p.Fields.Get("id"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Clone returns a deep copy of p.
func (p Point) Clone() Point {
	out := Point{Fields: p.Fields.Clone(), Measures: make([]Record, len(p.Measures))}
	for i, m := range p.Measures {
		out.Measures[i] = m.Clone()
	}
	return out
}

// NetworkInfo is the descriptive metadata of a control network.
type NetworkInfo struct {
	NetworkID    string `json:"network_id" yaml:"network_id"`
	TargetName   string `json:"target_name" yaml:"target_name"`
	Description  string `json:"description" yaml:"description"`
	UserName     string `json:"user_name" yaml:"user_name"`
	Created      string `json:"created" yaml:"created"`
	LastModified string `json:"last_modified" yaml:"last_modified"`
}
