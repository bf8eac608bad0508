package pvl

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/isiscnet/pkg/errs"
)

const isisLabel = `Object = ControlNetwork
  /* written by ISIS */
  Object = Core
    HeaderStartByte = 65536
    HeaderBytes     = 136
    PointsStartByte = 65672
    PointsBytes     = 4821 <bytes>
  End_Object

  Group = ControlNetworkInfo
    NetworkId    = Apollo15
    TargetName   = Moon
    UserName     = "j laura"
    Description  = "A long description that
                    continues on the next line"
    Created      = "2026-10-19 08:00:00"
    Spacing      = (1.5, 2, "three")
    Version      = 5
  End_Group
End_Object
End
this text is never read`

func TestParse_ISISLabel(t *testing.T) {
	l, err := Parse(strings.NewReader(isisLabel))
	require.NoError(t, err)

	n, err := l.Int("headerstartbyte")
	require.NoError(t, err)
	assert.Equal(t, int64(65536), n)

	n, err = l.Int("PointsBytes")
	require.NoError(t, err)
	assert.Equal(t, int64(4821), n, "units are ignored")

	n, err = l.Int("Version")
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	s, err := l.String("UserName")
	require.NoError(t, err)
	assert.Equal(t, "j laura", s)

	s, err = l.String("Description")
	require.NoError(t, err)
	assert.Equal(t, "A long description that continues on the next line", s)

	v, ok := l.Find("Spacing")
	require.True(t, ok)
	assert.Equal(t, []any{1.5, int64(2), "three"}, v)

	core, ok := l.Block("core")
	require.True(t, ok)
	assert.Equal(t, KindObject, core.Kind)
	assert.Len(t, core.Items, 4)

	info, ok := l.Block("ControlNetworkInfo")
	require.True(t, ok)
	assert.Equal(t, KindGroup, info.Kind)
}

func TestParse_StopsAtNUL(t *testing.T) {
	data := append([]byte("Object = A\n  Key = 1\nEnd_Object\n"), 0, 0, 0xff, 0xfe)
	l, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)

	n, err := l.Int("Key")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"missing end object", "Object = A\n  Key = 1\n"},
		{"mismatched end", "Object = A\nEnd_Group\n"},
		{"stray end object", "End_Object\n"},
		{"missing equals", "Key 1\n"},
		{"missing value", "Key =\n"},
		{"unterminated string", "Key = \"abc\n"},
		{"unterminated comment", "/* never closed\nKey = 1\n"},
		{"bad sequence", "Key = (1 2)\n"},
		{"end inside block", "Object = A\nEnd\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			assert.ErrorIs(t, err, errs.ErrMalformedHeader)
		})
	}
}

func TestLabel_MissingKeys(t *testing.T) {
	l := New(KV("Name", "x"), KV("Ratio", 1.5))

	_, err := l.Int("Missing")
	assert.ErrorIs(t, err, errs.ErrMalformedHeader)

	_, err = l.Int("Name")
	assert.ErrorIs(t, err, errs.ErrMalformedHeader)

	_, err = l.Int("Ratio")
	assert.ErrorIs(t, err, errs.ErrMalformedHeader)

	_, err = l.String("Missing")
	assert.ErrorIs(t, err, errs.ErrMalformedHeader)
	assert.Equal(t, "fallback", l.StringOr("Missing", "fallback"))

	var nilLabel *Label
	_, ok := nilLabel.Find("x")
	assert.False(t, ok)
}

func TestEncode_ISISStyle(t *testing.T) {
	l := New(
		Object("ProtoBuffer",
			Object("Core",
				KV("HeaderStartByte", int64(65536)),
				KV("HeaderBytes", int64(84)),
			),
			Group("ControlNetworkInfo",
				KV("NetworkId", "None"),
				KV("Created", "2026-10-19 08:00:00"),
				KV("Version", int64(2)),
			),
		),
	)

	want := `Object = ProtoBuffer
  Object = Core
    HeaderStartByte = 65536
    HeaderBytes     = 84
  End_Object

  Group = ControlNetworkInfo
    NetworkId = None
    Created   = "2026-10-19 08:00:00"
    Version   = 2
  End_Group

End_Object

`
	out, err := Marshal(l)
	require.NoError(t, err)
	assert.Equal(t, want, string(out))
	assert.NotContains(t, string(out), "\nEnd\n")
}

func TestEncode_ParseRoundTrip(t *testing.T) {
	l := New(
		KV("Plain", "word"),
		KV("Spaced", "two words"),
		KV("Numeric", "42"),
		KV("Keyword", "End"),
		KV("Empty", ""),
		KV("Float", 2.0),
		KV("Int", int64(-7)),
		KV("List", []any{int64(1), "a b", 0.5}),
		KV("DoubleQuoted", `say "hi"`),
		KV("SingleQuoted", "it's"),
		KV("QuotedList", []any{`a "b"`, "c'd"}),
		Group("G", KV("Inner", "x")),
	)

	text, err := Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(text), `'say "hi"'`)
	parsed, err := Parse(bytes.NewReader(text))
	require.NoError(t, err)

	for _, tc := range []struct {
		key  string
		want any
	}{
		{"Plain", "word"},
		{"Spaced", "two words"},
		{"Numeric", "42"},
		{"Keyword", "End"},
		{"Empty", ""},
		{"Float", 2.0},
		{"Int", int64(-7)},
		{"List", []any{int64(1), "a b", 0.5}},
		{"DoubleQuoted", `say "hi"`},
		{"SingleQuoted", "it's"},
		{"QuotedList", []any{`a "b"`, "c'd"}},
		{"Inner", "x"},
	} {
		got, ok := parsed.Find(tc.key)
		require.True(t, ok, tc.key)
		assert.Equal(t, tc.want, got, tc.key)
	}
}

func TestEncode_BothQuoteCharacters(t *testing.T) {
	for _, l := range []*Label{
		New(KV("Description", `it's "quoted"`)),
		New(Object("Core", KV("List", []any{"ok", `it's "quoted"`}))),
	} {
		var buf bytes.Buffer
		err := Encode(&buf, l)
		assert.ErrorIs(t, err, errs.ErrInvalidFieldValue)

		_, err = Marshal(l)
		assert.ErrorIs(t, err, errs.ErrInvalidFieldValue)
	}
}
