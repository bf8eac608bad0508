// Package diag collects non-fatal diagnostics raised while encoding or decoding
// a control network.
package diag

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Diagnostic is one non-fatal condition. Err is one of the non-fatal errs
// sentinels.
type Diagnostic struct {
	Err     error  `json:"-" yaml:"-"`
	Kind    string `json:"kind" yaml:"kind"`
	PointID string `json:"point_id,omitempty" yaml:"point_id,omitempty"`
	Field   string `json:"field,omitempty" yaml:"field,omitempty"`
}

func (d Diagnostic) String() string {
	switch {
	case d.PointID != "" && d.Field != "":
		return fmt.Sprintf("%s: point %q field %q", d.Kind, d.PointID, d.Field)
	case d.PointID != "":
		return fmt.Sprintf("%s: point %q", d.Kind, d.PointID)
	}
	return d.Kind
}

// Collector accumulates diagnostics and logs each one as a warning.
// A Collector belongs to a single read or write and is not safe for
// concurrent use.
type Collector struct {
	logger *zap.Logger
	items  []Diagnostic
}

// NewCollector creates a collector that logs through logger. A nil logger
// disables logging.
func NewCollector(logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{logger: logger}
}

// Report records a diagnostic of the given kind.
func (c *Collector) Report(kind error, pointID, field string) {
	d := Diagnostic{Err: kind, Kind: kind.Error(), PointID: pointID, Field: field}
	c.items = append(c.items, d)
	c.logger.Warn(d.Kind, zap.String("point_id", pointID), zap.String("field", field))
}

// Diagnostics returns a copy of everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(c.items))
	copy(out, c.items)
	return out
}

// Count returns how many diagnostics match kind.
func (c *Collector) Count(kind error) int {
	n := 0
	for _, d := range c.items {
		if errors.Is(d.Err, kind) {
			n++
		}
	}
	return n
}

// Len returns the number of diagnostics reported.
func (c *Collector) Len() int {
	return len(c.items)
}
