package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/schema"
)

func TestHeader_RoundTrip(t *testing.T) {
	info := schema.NetworkInfo{
		NetworkID:    "Apollo15",
		TargetName:   "Moon",
		Description:  "Metric camera tie points",
		UserName:     "jlaura",
		Created:      "2026-10-19 08:00:00",
		LastModified: "2026-10-19 09:30:00",
	}

	testCases := []struct {
		version   schema.Version
		sizes     []int32
		wantSizes []int32
	}{
		{schema.V2, []int32{120, 98, 4000}, []int32{120, 98, 4000}},
		{schema.V5, []int32{120, 98}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.version.String(), func(t *testing.T) {
			s := mustSchema(t, tc.version)
			b, err := EncodeHeader(s, NetworkHeader{NetworkInfo: info, PointMessageSizes: tc.sizes})
			require.NoError(t, err)

			h, err := DecodeHeader(s, b)
			require.NoError(t, err)
			assert.Equal(t, info, h.NetworkInfo)
			assert.Equal(t, tc.wantSizes, h.PointMessageSizes)
		})
	}
}

func TestHeader_DecodeDefaultsAndErrors(t *testing.T) {
	s := mustSchema(t, schema.V2)

	h, err := DecodeHeader(s, nil)
	require.NoError(t, err)
	assert.Equal(t, schema.NetworkInfo{}, h.NetworkInfo)
	assert.Empty(t, h.PointMessageSizes)

	_, err = DecodeHeader(s, []byte{0x0a, 0x10, 'x'})
	assert.ErrorIs(t, err, errs.ErrMalformedMessage)
}
