package pvl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ssargent/isiscnet/pkg/errs"
)

const indentWidth = 2

// Encode writes label in ISIS style: two-space indentation, aligned "=" inside
// each block and a blank line after every block. No trailing End is written.
// A string holding both quote characters cannot be written and fails with
// ErrInvalidFieldValue.
func Encode(w io.Writer, l *Label) error {
	bw := bufio.NewWriter(w)
	if err := writeItems(bw, l.Items, 0); err != nil {
		return err
	}
	return bw.Flush()
}

// Marshal returns the encoded label.
func Marshal(l *Label) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, l); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeItems(w *bufio.Writer, items []Item, depth int) error {
	pad := strings.Repeat(" ", depth*indentWidth)
	width := 0
	for _, it := range items {
		if it.Aggregate == nil && len(it.Key) > width {
			width = len(it.Key)
		}
	}
	for _, it := range items {
		if a := it.Aggregate; a != nil {
			kind := a.Kind.String()
			w.WriteString(pad + kind + " = " + a.Name + "\n")
			if err := writeItems(w, a.Items, depth+1); err != nil {
				return err
			}
			w.WriteString(pad + "End_" + kind + "\n\n")
			continue
		}
		v, err := formatValue(it.Value)
		if err != nil {
			return fmt.Errorf("%s: %w", it.Key, err)
		}
		w.WriteString(pad + it.Key + strings.Repeat(" ", width-len(it.Key)) + " = " + v + "\n")
	}
	return nil
}

func formatValue(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "Null", nil
	case string:
		return quote(x)
	case int:
		return strconv.Itoa(x), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s, nil
	case []any:
		parts := make([]string, len(x))
		for i, e := range x {
			p, err := formatValue(e)
			if err != nil {
				return "", err
			}
			parts[i] = p
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	default:
		return quote(strings.TrimSpace(fmt.Sprint(x)))
	}
}

// quote wraps s in quotes when it would not read back as the same bare word.
// Double quotes are used unless s contains one.
func quote(s string) (string, error) {
	if s == "" || strings.ContainsAny(s, " \t\r\n=(){},\"'<>#/") {
		hasDouble, hasSingle := strings.Contains(s, `"`), strings.Contains(s, `'`)
		switch {
		case hasDouble && hasSingle:
			return "", fmt.Errorf("%w: %q mixes both quote characters", errs.ErrInvalidFieldValue, s)
		case hasDouble:
			return `'` + s + `'`, nil
		}
		return `"` + s + `"`, nil
	}
	if _, isString := scalar(s).(string); !isString {
		return `"` + s + `"`, nil
	}
	switch strings.ToUpper(s) {
	case "END", "END_OBJECT", "END_GROUP", "OBJECT", "GROUP", "BEGIN_OBJECT", "BEGIN_GROUP":
		return `"` + s + `"`, nil
	}
	return s, nil
}
