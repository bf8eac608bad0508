package schema

import (
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Kind is the wire type of a field.
type Kind uint8

const (
	KindDouble Kind = iota + 1
	KindInt32
	KindBool
	KindString
	KindEnum
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindDouble:
		return "double"
	case KindInt32:
		return "int32"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	case KindMessage:
		return "message"
	}
	return "unknown"
}

// Enum is a closed enumeration carried by an enum field.
type Enum struct {
	Name   string
	Values map[int32]string
	// First is the value a protobuf getter reports when the field is unset.
	First int32
}

// Valid reports whether v belongs to the enumeration.
func (e *Enum) Valid(v int32) bool {
	_, ok := e.Values[v]
	return ok
}

// Field describes one field of a message.
type Field struct {
	Name     string
	Number   protowire.Number
	Kind     Kind
	Repeated bool
	Packed   bool
	// Alias is the tabular column name used when Name collides between the
	// point and measure messages.
	Alias string
	Enum  *Enum
	// PixelCentered fields are stored on disk offset by +0.5.
	PixelCentered bool
	// Unsupported fields are never written.
	Unsupported bool
}

// Column returns the tabular column name of the field.
func (f Field) Column() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Zero returns the value a protobuf getter reports for an unset field.
// Message fields have no zero here; their owners decide.
func (f Field) Zero() any {
	if f.Repeated {
		switch f.Kind {
		case KindDouble:
			return []float64{}
		case KindInt32, KindEnum:
			return []int32{}
		case KindBool:
			return []bool{}
		case KindString:
			return []string{}
		}
		return nil
	}
	switch f.Kind {
	case KindDouble:
		return float64(0)
	case KindInt32:
		return int32(0)
	case KindEnum:
		if f.Enum != nil {
			return f.Enum.First
		}
		return int32(0)
	case KindBool:
		return false
	case KindString:
		return ""
	}
	return nil
}

// Table is the ordered field list of one message.
type Table struct {
	name     string
	fields   []Field
	byName   map[string]int
	byNumber map[protowire.Number]int
	byColumn map[string]int
}

// NewTable builds a table. Field names, numbers and columns must be unique.
func NewTable(name string, fields ...Field) *Table {
	t := &Table{
		name:     name,
		fields:   fields,
		byName:   make(map[string]int, len(fields)),
		byNumber: make(map[protowire.Number]int, len(fields)),
		byColumn: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if _, dup := t.byName[f.Name]; dup {
			panic("schema: duplicate field " + name + "." + f.Name)
		}
		if _, dup := t.byNumber[f.Number]; dup {
			panic("schema: duplicate field number in " + name)
		}
		t.byName[f.Name] = i
		t.byNumber[f.Number] = i
		t.byColumn[f.Column()] = i
	}
	return t
}

// Name returns the message name.
func (t *Table) Name() string { return t.name }

// Fields returns the fields in declaration order.
func (t *Table) Fields() []Field { return t.fields }

// Field looks up a field by name.
func (t *Table) Field(name string) (Field, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// FieldByNumber looks up a field by its wire number.
func (t *Table) FieldByNumber(n protowire.Number) (Field, bool) {
	i, ok := t.byNumber[n]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// FieldByColumn looks up a field by its tabular column name.
func (t *Table) FieldByColumn(col string) (Field, bool) {
	i, ok := t.byColumn[col]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// FillDefaults sets every absent non-message field of rec to its getter default.
func (t *Table) FillDefaults(rec Record) {
	for _, f := range t.fields {
		if f.Kind == KindMessage {
			continue
		}
		if _, ok := rec.Get(f.Name); !ok {
			rec[f.Name] = f.Zero()
		}
	}
}

func (t *Table) String() string {
	var b strings.Builder
	b.WriteString(t.name)
	b.WriteString("{")
	for i, f := range t.fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Name)
	}
	b.WriteString("}")
	return b.String()
}
