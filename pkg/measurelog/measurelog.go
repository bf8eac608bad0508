// Package measurelog converts measure log entries to and from their wire form.
package measurelog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/wire"
)

// MessageType mirrors the ISIS MeasureLogData numeric data types.
type MessageType int32

const (
	GoodnessOfFit         MessageType = 2
	MinimumPixelZScore    MessageType = 3
	MaximumPixelZScore    MessageType = 4
	PixelShift            MessageType = 5
	WholePixelCorrelation MessageType = 6
	SubPixelCorrelation   MessageType = 7
)

var typeNames = map[MessageType]string{
	GoodnessOfFit:         "GoodnessOfFit",
	MinimumPixelZScore:    "MinimumPixelZScore",
	MaximumPixelZScore:    "MaximumPixelZScore",
	PixelShift:            "PixelShift",
	WholePixelCorrelation: "WholePixelCorrelation",
	SubPixelCorrelation:   "SubPixelCorrelation",
}

var typesByName = func() map[string]MessageType {
	m := make(map[string]MessageType, len(typeNames))
	for t, name := range typeNames {
		m[name] = t
	}
	return m
}()

func (t MessageType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "MessageType(" + strconv.Itoa(int(t)) + ")"
}

// Valid reports whether t is one of the enumerated types.
func (t MessageType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// ParseMessageType resolves a type by its exact name.
func ParseMessageType(name string) (MessageType, error) {
	t, ok := typesByName[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", errs.ErrUnknownLogType, name)
	}
	return t, nil
}

// MeasureLog is one (type, value) diagnostic attached to a measure.
type MeasureLog struct {
	Type  MessageType
	Value float64
}

// FromWire builds a log from its integer type code.
func FromWire(code int32, value any) (MeasureLog, error) {
	t := MessageType(code)
	if !t.Valid() {
		return MeasureLog{}, fmt.Errorf("%w: %w: %d", errs.ErrInvalidEnumValue, errs.ErrUnknownLogType, code)
	}
	return newLog(t, value)
}

// FromName builds a log from its type name.
func FromName(name string, value any) (MeasureLog, error) {
	t, err := ParseMessageType(name)
	if err != nil {
		return MeasureLog{}, err
	}
	return newLog(t, value)
}

func newLog(t MessageType, value any) (MeasureLog, error) {
	v, ok := wire.ToFloat64(value)
	if !ok {
		return MeasureLog{}, fmt.Errorf("%w: %v (%T) is not a numeric type", errs.ErrInvalidLogValue, value, value)
	}
	return MeasureLog{Type: t, Value: v}, nil
}

func (l MeasureLog) String() string {
	return fmt.Sprintf("%s: %s", l.Type, strconv.FormatFloat(l.Value, 'g', -1, 64))
}

type jsonLog struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

func (l MeasureLog) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonLog{Type: l.Type.String(), Value: l.Value})
}

func (l *MeasureLog) UnmarshalJSON(b []byte) error {
	var j jsonLog
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	parsed, err := FromName(j.Type, j.Value)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ToWire encodes l as a MeasureLogData message of version v. The type code is
// the enumeration value itself.
func ToWire(l MeasureLog, v schema.Version) ([]byte, error) {
	s, err := schema.Lookup(v)
	if err != nil {
		return nil, err
	}
	return wire.Marshal(s.MeasureLog, schema.Record{
		"doubleDataType":  int32(l.Type),
		"doubleDataValue": l.Value,
	})
}

// Decode parses a MeasureLogData message of version v.
func Decode(b []byte, v schema.Version) (MeasureLog, error) {
	s, err := schema.Lookup(v)
	if err != nil {
		return MeasureLog{}, err
	}
	rec, err := wire.Unmarshal(s.MeasureLog, b)
	if err != nil {
		return MeasureLog{}, err
	}
	s.MeasureLog.FillDefaults(rec)
	return FromWire(rec["doubleDataType"].(int32), rec["doubleDataValue"])
}
