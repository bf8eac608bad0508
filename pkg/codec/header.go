package codec

import (
	"github.com/ssargent/isiscnet/pkg/schema"
	"github.com/ssargent/isiscnet/pkg/wire"
)

// NetworkHeader is the binary header stored at HeaderStartByte.
type NetworkHeader struct {
	schema.NetworkInfo
	// PointMessageSizes is only carried by table-framed versions.
	PointMessageSizes []int32
}

// EncodeHeader serializes h with the header table of s.
func EncodeHeader(s *schema.Schema, h NetworkHeader) ([]byte, error) {
	rec := schema.Record{
		"networkId":    h.NetworkID,
		"targetName":   h.TargetName,
		"created":      h.Created,
		"lastModified": h.LastModified,
		"description":  h.Description,
		"userName":     h.UserName,
	}
	if _, ok := s.Header.Field(schema.FieldPointSizes); ok && h.PointMessageSizes != nil {
		rec[schema.FieldPointSizes] = h.PointMessageSizes
	}
	return wire.Marshal(s.Header, rec)
}

// DecodeHeader parses a binary header of schema s.
func DecodeHeader(s *schema.Schema, b []byte) (NetworkHeader, error) {
	rec, err := wire.Unmarshal(s.Header, b)
	if err != nil {
		return NetworkHeader{}, err
	}
	s.Header.FillDefaults(rec)
	h := NetworkHeader{
		NetworkInfo: schema.NetworkInfo{
			NetworkID:    rec["networkId"].(string),
			TargetName:   rec["targetName"].(string),
			Created:      rec["created"].(string),
			LastModified: rec["lastModified"].(string),
			Description:  rec["description"].(string),
			UserName:     rec["userName"].(string),
		},
	}
	if sizes, ok := rec[schema.FieldPointSizes].([]int32); ok {
		h.PointMessageSizes = sizes
	}
	return h, nil
}
