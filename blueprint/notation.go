package blueprint

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// The notation is a small subset of a Rust-object-like text format:
//
//	document := '{' string ':' value '}'
//	value    := 'true' | 'false' | number | string | list
//	          | ident [ '(' fields ')' ] | '(' fields ')'
//	list     := '[' [ value { ',' value } [ ',' ] ] ']'
//	fields   := [ field { ',' field } [ ',' ] ]
//	field    := ident ':' value | value
//
// Bare identifiers name enum variants; they also decode into strings.

// SyntaxError reports malformed notation.
type SyntaxError struct {
	Offset int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("blueprint: %s at offset %d", e.Msg, e.Offset)
}

type ValueKind int

const (
	BoolValue ValueKind = iota
	NumberValue
	StringValue
	IdentValue
	TupleValue // Also named structs: Name(...)
	ListValue
)

func (k ValueKind) String() string {
	switch k {
	case BoolValue:
		return "bool"
	case NumberValue:
		return "number"
	case StringValue:
		return "string"
	case IdentValue:
		return "identifier"
	case TupleValue:
		return "tuple"
	case ListValue:
		return "list"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// Value is a parsed notation value.
type Value struct {
	Kind   ValueKind
	Offset int
	Bool   bool
	Text   string  // Number literal, string contents or identifier.
	Name   string  // Struct name before '(', if any.
	Fields []Field // Tuple fields.
	Items  []Value // List items.
}

// Field is a tuple member; Name is empty for positional members.
type Field struct {
	Name  string
	Value Value
}

// Positional reports whether no field of v is named.
func (v Value) Positional() bool {
	for _, f := range v.Fields {
		if f.Name != "" {
			return false
		}
	}
	return true
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokLBrace
	tokRBrace
	tokLParen
	tokRParen
	tokLBracket
	tokRBracket
	tokColon
	tokComma
	tokString
	tokNumber
	tokIdent
)

var tokenNames = [...]string{
	tokEOF:      "end of input",
	tokLBrace:   "'{'",
	tokRBrace:   "'}'",
	tokLParen:   "'('",
	tokRParen:   "')'",
	tokLBracket: "'['",
	tokRBracket: "']'",
	tokColon:    "':'",
	tokComma:    "','",
	tokString:   "string",
	tokNumber:   "number",
	tokIdent:    "identifier",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind   tokenKind
	text   string
	offset int
}

func tokenize(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case unicode.IsSpace(r):
			i += size
		case strings.ContainsRune("{}()[]:,", r):
			toks = append(toks, token{kind: punct[r], text: string(r), offset: i})
			i++
		case r == '"':
			end, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			s, err := strconv.Unquote(src[i:end])
			if err != nil {
				return nil, &SyntaxError{Offset: i, Msg: "invalid string literal"}
			}
			toks = append(toks, token{kind: tokString, text: s, offset: i})
			i = end
		case r == '-' || r == '+' || r == '.' || unicode.IsDigit(r):
			end := i + 1
			for end < len(src) && isNumberChar(src[end], src[end-1]) {
				end++
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:end], offset: i})
			i = end
		case r == '_' || unicode.IsLetter(r):
			end := i + size
			for end < len(src) {
				r, size := utf8.DecodeRuneInString(src[end:])
				if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
					break
				}
				end += size
			}
			toks = append(toks, token{kind: tokIdent, text: src[i:end], offset: i})
			i = end
		default:
			return nil, &SyntaxError{Offset: i, Msg: fmt.Sprintf("unexpected character %q", r)}
		}
	}
	return append(toks, token{kind: tokEOF, offset: len(src)}), nil
}

var punct = map[rune]tokenKind{
	'{': tokLBrace,
	'}': tokRBrace,
	'(': tokLParen,
	')': tokRParen,
	'[': tokLBracket,
	']': tokRBracket,
	':': tokColon,
	',': tokComma,
}

func isNumberChar(c, prev byte) bool {
	switch {
	case c >= '0' && c <= '9', c == '.', c == 'e', c == 'E', c == '_':
		return true
	case c == '-' || c == '+':
		return prev == 'e' || prev == 'E'
	}
	return false
}

func scanString(src string, start int) (int, error) {
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case '"':
			return i + 1, nil
		}
	}
	return 0, &SyntaxError{Offset: start, Msg: "unterminated string"}
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k tokenKind) (token, error) {
	t := p.next()
	if t.kind != k {
		return t, &SyntaxError{Offset: t.offset, Msg: fmt.Sprintf("expected %v, found %v", k, t.kind)}
	}
	return t, nil
}

// ParseDocument parses `{ "type.path": value }` and returns the path and the
// value.
func ParseDocument(src string) (string, Value, error) {
	toks, err := tokenize(src)
	if err != nil {
		return "", Value{}, err
	}
	p := &parser{toks: toks}

	if _, err := p.expect(tokLBrace); err != nil {
		return "", Value{}, err
	}
	name, err := p.expect(tokString)
	if err != nil {
		return "", Value{}, err
	}
	if _, err := p.expect(tokColon); err != nil {
		return "", Value{}, err
	}
	v, err := p.value()
	if err != nil {
		return "", Value{}, err
	}
	if _, err := p.expect(tokRBrace); err != nil {
		return "", Value{}, err
	}
	if _, err := p.expect(tokEOF); err != nil {
		return "", Value{}, err
	}
	return name.text, v, nil
}

// ParseValue parses a single value.
func ParseValue(src string) (Value, error) {
	toks, err := tokenize(src)
	if err != nil {
		return Value{}, err
	}
	p := &parser{toks: toks}
	v, err := p.value()
	if err != nil {
		return Value{}, err
	}
	if _, err := p.expect(tokEOF); err != nil {
		return Value{}, err
	}
	return v, nil
}

func (p *parser) value() (Value, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return Value{Kind: NumberValue, Offset: t.offset, Text: t.text}, nil
	case tokString:
		return Value{Kind: StringValue, Offset: t.offset, Text: t.text}, nil
	case tokIdent:
		switch {
		case t.text == "true" || t.text == "false":
			return Value{Kind: BoolValue, Offset: t.offset, Bool: t.text == "true", Text: t.text}, nil
		case p.peek().kind == tokLParen:
			p.next()
			v, err := p.fields(t.offset)
			v.Name = t.text
			return v, err
		}
		return Value{Kind: IdentValue, Offset: t.offset, Text: t.text}, nil
	case tokLParen:
		return p.fields(t.offset)
	case tokLBracket:
		return p.list(t.offset)
	}
	return Value{}, &SyntaxError{Offset: t.offset, Msg: fmt.Sprintf("unexpected %v", t.kind)}
}

// fields parses the members of a tuple; the opening parenthesis is consumed.
func (p *parser) fields(offset int) (Value, error) {
	v := Value{Kind: TupleValue, Offset: offset}
	for p.peek().kind != tokRParen {
		var f Field
		if p.peek().kind == tokIdent && p.toks[p.pos+1].kind == tokColon {
			f.Name = p.next().text
			p.next()
		}
		fv, err := p.value()
		if err != nil {
			return Value{}, err
		}
		f.Value = fv
		v.Fields = append(v.Fields, f)

		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokRParen); err != nil {
		return Value{}, err
	}
	return v, nil
}

func (p *parser) list(offset int) (Value, error) {
	v := Value{Kind: ListValue, Offset: offset}
	for p.peek().kind != tokRBracket {
		item, err := p.value()
		if err != nil {
			return Value{}, err
		}
		v.Items = append(v.Items, item)

		if p.peek().kind != tokComma {
			break
		}
		p.next()
	}
	if _, err := p.expect(tokRBracket); err != nil {
		return Value{}, err
	}
	return v, nil
}
