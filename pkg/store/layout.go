package store

import (
	"fmt"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/pvl"
	"github.com/ssargent/isiscnet/pkg/schema"
)

// Label keys locating the binary regions.
const (
	KeyHeaderStartByte  = "HeaderStartByte"
	KeyHeaderBytes      = "HeaderBytes"
	KeyPointsStartByte  = "PointsStartByte"
	KeyPointsBytes      = "PointsBytes"
	KeyVersion          = "Version"
	KeyNumberOfPoints   = "NumberOfPoints"
	KeyNumberOfMeasures = "NumberOfMeasures"
)

// Layout is the byte layout and version recorded in a text label.
type Layout struct {
	Version         schema.Version `json:"version" yaml:"version"`
	HeaderStartByte int64          `json:"header_start_byte" yaml:"header_start_byte"`
	HeaderBytes     int64          `json:"header_bytes" yaml:"header_bytes"`
	PointsStartByte int64          `json:"points_start_byte" yaml:"points_start_byte"`
	PointsBytes     int64          `json:"points_bytes" yaml:"points_bytes"`
}

// LayoutFromLabel extracts the layout keys from l. A missing or non-integer key
// fails with ErrMalformedHeader and an unknown version with
// ErrUnsupportedVersion.
func LayoutFromLabel(l *pvl.Label) (Layout, error) {
	var lay Layout
	for _, k := range []struct {
		key string
		dst *int64
	}{
		{KeyHeaderStartByte, &lay.HeaderStartByte},
		{KeyHeaderBytes, &lay.HeaderBytes},
		{KeyPointsStartByte, &lay.PointsStartByte},
		{KeyPointsBytes, &lay.PointsBytes},
	} {
		n, err := l.Int(k.key)
		if err != nil {
			return Layout{}, err
		}
		if n < 0 {
			return Layout{}, fmt.Errorf("%w: %s is negative", errs.ErrMalformedHeader, k.key)
		}
		*k.dst = n
	}
	v, err := l.Int(KeyVersion)
	if err != nil {
		return Layout{}, err
	}
	lay.Version, err = schema.ParseVersion(v)
	if err != nil {
		return Layout{}, err
	}
	return lay, nil
}

// Validate checks that the regions fit in a file of size bytes and do not
// overlap. Bounds are checked by subtraction, so no sum can overflow.
func (l Layout) Validate(size int64) error {
	if l.HeaderStartByte > size || l.HeaderBytes > size-l.HeaderStartByte {
		return fmt.Errorf("%w: binary header of %d bytes at %d exceeds file size %d",
			errs.ErrMalformedHeader, l.HeaderBytes, l.HeaderStartByte, size)
	}
	if l.PointsStartByte > size || l.PointsBytes > size-l.PointsStartByte {
		return fmt.Errorf("%w: points region of %d bytes at %d exceeds file size %d",
			errs.ErrMalformedHeader, l.PointsBytes, l.PointsStartByte, size)
	}
	headerEnd, pointsEnd := l.HeaderStartByte+l.HeaderBytes, l.PointsStartByte+l.PointsBytes
	if l.HeaderBytes > 0 && l.PointsBytes > 0 &&
		l.PointsStartByte < headerEnd && l.HeaderStartByte < pointsEnd {
		return fmt.Errorf("%w: points region [%d, %d) overlaps binary header [%d, %d)",
			errs.ErrMalformedHeader, l.PointsStartByte, pointsEnd, l.HeaderStartByte, headerEnd)
	}
	return nil
}

// buildLabel lays out the text label the way ISIS writes it.
func buildLabel(lay Layout, info schema.NetworkInfo, points, measures int) *pvl.Label {
	return pvl.New(
		pvl.Object("ProtoBuffer",
			pvl.Object("Core",
				pvl.KV(KeyHeaderStartByte, lay.HeaderStartByte),
				pvl.KV(KeyHeaderBytes, lay.HeaderBytes),
				pvl.KV(KeyPointsStartByte, lay.PointsStartByte),
				pvl.KV(KeyPointsBytes, lay.PointsBytes),
			),
			pvl.Group("ControlNetworkInfo",
				pvl.KV("NetworkId", info.NetworkID),
				pvl.KV("TargetName", info.TargetName),
				pvl.KV("UserName", info.UserName),
				pvl.KV("Created", info.Created),
				pvl.KV("LastModified", info.LastModified),
				pvl.KV("Description", info.Description),
				pvl.KV(KeyNumberOfPoints, int64(points)),
				pvl.KV(KeyNumberOfMeasures, int64(measures)),
				pvl.KV(KeyVersion, int64(lay.Version)),
			),
		),
	)
}
