package pvl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/ssargent/isiscnet/pkg/errs"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokWord
	tokString
	tokEquals
	tokOpen
	tokClose
	tokComma
	tokUnits
)

type token struct {
	kind tokenKind
	text string
	line int
}

type lexer struct {
	r      *bufio.Reader
	line   int
	peeked *token
}

func isDelim(r rune) bool {
	switch r {
	case '=', '(', ')', '{', '}', ',', '"', '\'', '<', '>', 0:
		return true
	}
	return unicode.IsSpace(r)
}

func (lx *lexer) read() (rune, bool) {
	r, _, err := lx.r.ReadRune()
	if err != nil || r == 0 {
		return 0, false
	}
	if r == '\n' {
		lx.line++
	}
	return r, true
}

func (lx *lexer) unread(r rune) {
	if r == '\n' {
		lx.line--
	}
	_ = lx.r.UnreadRune()
}

func (lx *lexer) peek() (token, error) {
	if lx.peeked == nil {
		t, err := lx.scan()
		if err != nil {
			return token{}, err
		}
		lx.peeked = &t
	}
	return *lx.peeked, nil
}

func (lx *lexer) next() (token, error) {
	if lx.peeked != nil {
		t := *lx.peeked
		lx.peeked = nil
		return t, nil
	}
	return lx.scan()
}

func (lx *lexer) scan() (token, error) {
	for {
		r, ok := lx.read()
		if !ok {
			return token{kind: tokEOF, line: lx.line}, nil
		}
		switch {
		case unicode.IsSpace(r):
			continue
		case r == '#':
			for r != '\n' {
				if r, ok = lx.read(); !ok {
					break
				}
			}
			continue
		case r == '/':
			n, ok := lx.read()
			if ok && n == '*' {
				if err := lx.skipComment(); err != nil {
					return token{}, err
				}
				continue
			}
			if ok {
				lx.unread(n)
			}
			return lx.word(r), nil
		case r == '=':
			return token{kind: tokEquals, text: "=", line: lx.line}, nil
		case r == '(' || r == '{':
			return token{kind: tokOpen, text: string(r), line: lx.line}, nil
		case r == ')' || r == '}':
			return token{kind: tokClose, text: string(r), line: lx.line}, nil
		case r == ',':
			return token{kind: tokComma, text: ",", line: lx.line}, nil
		case r == '"' || r == '\'':
			return lx.quoted(r)
		case r == '<':
			return lx.units()
		default:
			return lx.word(r), nil
		}
	}
}

func (lx *lexer) skipComment() error {
	var prev rune
	for {
		r, ok := lx.read()
		if !ok {
			return fmt.Errorf("%w: unterminated comment at line %d", errs.ErrMalformedHeader, lx.line)
		}
		if prev == '*' && r == '/' {
			return nil
		}
		prev = r
	}
}

func (lx *lexer) word(first rune) token {
	var b strings.Builder
	b.WriteRune(first)
	for {
		r, ok := lx.read()
		if !ok {
			break
		}
		if isDelim(r) {
			lx.unread(r)
			break
		}
		b.WriteRune(r)
	}
	return token{kind: tokWord, text: b.String(), line: lx.line}
}

// quoted reads a quoted string. Line breaks and the indentation around them
// collapse to a single space.
func (lx *lexer) quoted(quote rune) (token, error) {
	start := lx.line
	var b strings.Builder
	for {
		r, ok := lx.read()
		if !ok {
			return token{}, fmt.Errorf("%w: unterminated string at line %d", errs.ErrMalformedHeader, start)
		}
		if r == quote {
			return token{kind: tokString, text: b.String(), line: start}, nil
		}
		if r == '\n' || r == '\r' {
			s := strings.TrimRight(b.String(), " \t")
			b.Reset()
			b.WriteString(s)
			for {
				n, ok := lx.read()
				if !ok {
					break
				}
				if n != ' ' && n != '\t' && n != '\n' && n != '\r' {
					lx.unread(n)
					break
				}
			}
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			continue
		}
		b.WriteRune(r)
	}
}

func (lx *lexer) units() (token, error) {
	var b strings.Builder
	for {
		r, ok := lx.read()
		if !ok {
			return token{}, fmt.Errorf("%w: unterminated units at line %d", errs.ErrMalformedHeader, lx.line)
		}
		if r == '>' {
			return token{kind: tokUnits, text: b.String(), line: lx.line}, nil
		}
		b.WriteRune(r)
	}
}

// Parse reads a label from r. Parsing stops at an End statement, a NUL byte or
// the end of input, so r may continue with binary data.
func Parse(r io.Reader) (*Label, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	p := &parser{lx: &lexer{r: br, line: 1}}
	items, err := p.items(0)
	if err != nil {
		return nil, err
	}
	return &Label{Items: items}, nil
}

type parser struct {
	lx *lexer
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", errs.ErrMalformedHeader, line, fmt.Sprintf(format, args...))
}

// items parses statements until the end of input or the End_ keyword closing
// kind (0 at top level).
func (p *parser) items(kind Kind) ([]Item, error) {
	var items []Item
	for {
		t, err := p.lx.next()
		if err != nil {
			return nil, err
		}
		switch t.kind {
		case tokEOF:
			if kind != 0 {
				return nil, p.errorf(t.line, "missing End_%s", kind)
			}
			return items, nil
		case tokWord:
		default:
			return nil, p.errorf(t.line, "unexpected %q", t.text)
		}

		keyword := strings.ToUpper(t.text)
		switch keyword {
		case "END":
			if kind != 0 {
				return nil, p.errorf(t.line, "End inside %s", kind)
			}
			return items, nil
		case "END_OBJECT", "END_GROUP":
			want := "END_" + strings.ToUpper(kind.String())
			if kind == 0 || keyword != want {
				return nil, p.errorf(t.line, "unexpected %s", t.text)
			}
			if err := p.skipEndName(); err != nil {
				return nil, err
			}
			return items, nil
		}

		eq, err := p.lx.next()
		if err != nil {
			return nil, err
		}
		if eq.kind != tokEquals {
			return nil, p.errorf(eq.line, "expected = after %s", t.text)
		}

		switch keyword {
		case "OBJECT", "BEGIN_OBJECT", "GROUP", "BEGIN_GROUP":
			name, err := p.lx.next()
			if err != nil {
				return nil, err
			}
			if name.kind != tokWord && name.kind != tokString {
				return nil, p.errorf(name.line, "expected block name")
			}
			k := KindObject
			if strings.HasSuffix(keyword, "GROUP") {
				k = KindGroup
			}
			children, err := p.items(k)
			if err != nil {
				return nil, err
			}
			items = append(items, Item{Key: name.text, Aggregate: &Aggregate{Kind: k, Name: name.text, Items: children}})
		default:
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			items = append(items, Item{Key: t.text, Value: v})
		}
	}
}

func (p *parser) skipEndName() error {
	t, err := p.lx.peek()
	if err != nil || t.kind != tokEquals {
		return err
	}
	if _, err := p.lx.next(); err != nil {
		return err
	}
	_, err = p.lx.next()
	return err
}

func (p *parser) value() (any, error) {
	t, err := p.lx.next()
	if err != nil {
		return nil, err
	}
	var v any
	switch t.kind {
	case tokString:
		v = t.text
	case tokWord:
		v = scalar(t.text)
	case tokOpen:
		seq := []any{}
		for {
			e, err := p.lx.peek()
			if err != nil {
				return nil, err
			}
			if e.kind == tokClose {
				_, _ = p.lx.next()
				break
			}
			ev, err := p.value()
			if err != nil {
				return nil, err
			}
			seq = append(seq, ev)
			sep, err := p.lx.next()
			if err != nil {
				return nil, err
			}
			if sep.kind == tokClose {
				break
			}
			if sep.kind != tokComma {
				return nil, p.errorf(sep.line, "expected , or ) in sequence")
			}
		}
		v = seq
	default:
		return nil, p.errorf(t.line, "expected value, got %q", t.text)
	}
	if u, err := p.lx.peek(); err == nil && u.kind == tokUnits {
		_, _ = p.lx.next()
	}
	return v, nil
}

func scalar(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.ContainsAny(s, ".eE") {
		return f
	}
	return s
}
