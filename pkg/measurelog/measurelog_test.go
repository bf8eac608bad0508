package measurelog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/isiscnet/pkg/errs"
	"github.com/ssargent/isiscnet/pkg/schema"
)

func TestFromWire(t *testing.T) {
	testCases := []struct {
		name    string
		code    int32
		value   any
		want    MeasureLog
		wantErr error
	}{
		{name: "goodness of fit", code: 2, value: 3.5, want: MeasureLog{Type: GoodnessOfFit, Value: 3.5}},
		{name: "integer value", code: 5, value: 1, want: MeasureLog{Type: PixelShift, Value: 1}},
		{name: "sub pixel correlation", code: 7, value: float32(0.25), want: MeasureLog{Type: SubPixelCorrelation, Value: 0.25}},
		{name: "unknown code", code: 99, value: 0, wantErr: errs.ErrInvalidEnumValue},
		{name: "below range", code: 1, value: 0, wantErr: errs.ErrInvalidEnumValue},
		{name: "string value", code: 2, value: "high", wantErr: errs.ErrInvalidLogValue},
		{name: "nil value", code: 2, value: nil, wantErr: errs.ErrInvalidLogValue},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := FromWire(tc.code, tc.value)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestFromWire_UnknownCodeIsAlsoUnknownLogType(t *testing.T) {
	_, err := FromWire(99, 0)
	assert.ErrorIs(t, err, errs.ErrUnknownLogType)
}

func TestFromName(t *testing.T) {
	l, err := FromName("PixelShift", 1)
	require.NoError(t, err)
	assert.Equal(t, PixelShift, l.Type)
	assert.Equal(t, 1.0, l.Value)

	_, err = FromName("pixelshift", 1)
	assert.ErrorIs(t, err, errs.ErrUnknownLogType)

	_, err = FromName("Bogus", 1)
	assert.ErrorIs(t, err, errs.ErrUnknownLogType)

	_, err = FromName("GoodnessOfFit", []float64{1})
	assert.ErrorIs(t, err, errs.ErrInvalidLogValue)
}

func TestMeasureLog_String(t *testing.T) {
	assert.Equal(t, "PixelShift: 1", MeasureLog{Type: PixelShift, Value: 1}.String())
	assert.Equal(t, "GoodnessOfFit: 0.75", MeasureLog{Type: GoodnessOfFit, Value: 0.75}.String())
	assert.Equal(t, "MessageType(42)", MessageType(42).String())
}

func TestMeasureLog_JSON(t *testing.T) {
	in := []MeasureLog{{Type: GoodnessOfFit, Value: 0.9}, {Type: PixelShift, Value: 2}}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"type":"GoodnessOfFit","value":0.9},{"type":"PixelShift","value":2}]`, string(b))

	var out []MeasureLog
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)

	var bad MeasureLog
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"type":"Nope","value":1}`), &bad), errs.ErrUnknownLogType)
}

func TestToWire_Decode(t *testing.T) {
	for _, v := range schema.Versions() {
		t.Run(v.String(), func(t *testing.T) {
			for code := range typeNames {
				l := MeasureLog{Type: code, Value: float64(code) / 4}
				b, err := ToWire(l, v)
				require.NoError(t, err)

				got, err := Decode(b, v)
				require.NoError(t, err)
				assert.Equal(t, l, got)
			}
		})
	}
}

func TestToWire_TypeCodeIsPassthrough(t *testing.T) {
	b, err := ToWire(MeasureLog{Type: SubPixelCorrelation, Value: 0}, schema.V2)
	require.NoError(t, err)
	// Field 1 varint tag followed by the raw enumeration value.
	require.GreaterOrEqual(t, len(b), 2)
	assert.Equal(t, byte(0x08), b[0])
	assert.Equal(t, byte(7), b[1])
}

func TestDecode_Malformed(t *testing.T) {
	_, err := Decode([]byte{0x08}, schema.V2)
	assert.ErrorIs(t, err, errs.ErrMalformedMessage)

	// Missing type decodes to code 0, which is not a log type.
	_, err = Decode(nil, schema.V5)
	assert.ErrorIs(t, err, errs.ErrInvalidEnumValue)
}

func TestDecodeLogData(t *testing.T) {
	b, err := ToWire(MeasureLog{Type: GoodnessOfFit, Value: 1.5}, schema.V2)
	require.NoError(t, err)

	ld, err := DecodeLogData(b, schema.V2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), ld.DoubleDataType)
	assert.Equal(t, 1.5, ld.DoubleDataValue)
	assert.False(t, ld.BoolDataValue)
}
