package store

import (
	"context"
	"fmt"

	"github.com/ssargent/isiscnet/pkg/diag"
	"github.com/ssargent/isiscnet/pkg/schema"
)

// ExplainOptions configures the explain operation
type ExplainOptions struct {
	WithSamples int  // Number of points to summarize individually
	StrictCount bool // Treat label count mismatches as errors
}

// ExplainResult holds the results of an explain operation
type ExplainResult struct {
	Global struct {
		Version         schema.Version `json:"version"`
		FileSizeBytes   int64          `json:"file_size_bytes"`
		Points          int            `json:"points"`
		Measures        int            `json:"measures"`
		IgnoredPoints   int            `json:"ignored_points"`
		IgnoredMeasures int            `json:"ignored_measures"`
		LabelPoints     int64          `json:"label_points"`
		LabelMeasures   int64          `json:"label_measures"`
		TrailingBytes   int64          `json:"trailing_bytes"`
		ConsumedPoints  int64          `json:"consumed_points_bytes"`
	} `json:"global"`

	Layout Layout             `json:"layout"`
	Info   schema.NetworkInfo `json:"info"`

	PointTypes   map[string]int `json:"point_types"`
	MeasureTypes map[string]int `json:"measure_types"`

	Diagnostics struct {
		Items   []diag.Diagnostic `json:"items,omitempty"`
		Samples []Sample          `json:"samples,omitempty"`
	} `json:"diagnostics"`

	Warnings []string `json:"warnings,omitempty"`
}

// Sample summarizes one point.
type Sample struct {
	PointID        string `json:"point_id"`
	Type           string `json:"type"`
	Measures       int    `json:"measures"`
	ReferenceIndex int32  `json:"reference_index"`
}

// Explain streams every point of a store opened for reading and reports
// what the file contains. The label counts are cross-checked against the
// decoded points.
func (s *NetworkStore) Explain(ctx context.Context, opts ExplainOptions) (*ExplainResult, error) {
	if err := s.ReadHeader(); err != nil {
		return nil, err
	}
	r, err := s.Points()
	if err != nil {
		return nil, err
	}

	res := &ExplainResult{
		Layout:       s.layout,
		Info:         s.header.NetworkInfo,
		PointTypes:   make(map[string]int),
		MeasureTypes: make(map[string]int),
	}
	res.Global.Version = s.layout.Version
	res.Global.FileSizeBytes = s.size

	it := r.Iterator()
	for it.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := it.Point()
		res.Global.Points++
		res.Global.Measures += len(p.Measures)
		if ignored, _ := p.Fields["ignore"].(bool); ignored {
			res.Global.IgnoredPoints++
		}
		pointType := enumName(schema.PointType, p.Fields["type"])
		res.PointTypes[pointType]++
		for _, m := range p.Measures {
			if ignored, _ := m["ignore"].(bool); ignored {
				res.Global.IgnoredMeasures++
			}
			res.MeasureTypes[enumName(schema.MeasureType, m["type"])]++
		}
		if len(res.Diagnostics.Samples) < opts.WithSamples {
			ref, _ := p.Fields[schema.FieldReferenceIndex].(int32)
			res.Diagnostics.Samples = append(res.Diagnostics.Samples, Sample{
				PointID:        p.ID(),
				Type:           pointType,
				Measures:       len(p.Measures),
				ReferenceIndex: ref,
			})
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	s.points, s.measures = res.Global.Points, res.Global.Measures
	s.state = statePointsStreamed
	res.Global.ConsumedPoints = r.Offset()

	end := s.layout.PointsStartByte + s.layout.PointsBytes
	if s.size > end {
		res.Global.TrailingBytes = s.size - end
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d bytes follow the points region", res.Global.TrailingBytes))
	}

	if n, err := s.label.Int(KeyNumberOfPoints); err == nil {
		res.Global.LabelPoints = n
		if n != int64(res.Global.Points) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("label declares %d points, found %d", n, res.Global.Points))
		}
	}
	if n, err := s.label.Int(KeyNumberOfMeasures); err == nil {
		res.Global.LabelMeasures = n
		if n != int64(res.Global.Measures) {
			res.Warnings = append(res.Warnings, fmt.Sprintf("label declares %d measures, found %d", n, res.Global.Measures))
		}
	}
	if opts.StrictCount && len(res.Warnings) > 0 {
		return res, fmt.Errorf("network %s: %s", s.config.FilePath, res.Warnings[0])
	}

	res.Diagnostics.Items = s.diag.Diagnostics()
	return res, nil
}

func enumName(e *schema.Enum, v any) string {
	code, ok := v.(int32)
	if !ok {
		return "unknown"
	}
	if name, ok := e.Values[code]; ok {
		return name
	}
	return fmt.Sprintf("%s(%d)", e.Name, code)
}
