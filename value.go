package noproto

import (
	"strconv"
	"strings"
)

// ValueKind discriminates the JSON value tree described in spec.md §3/§4.4.
type ValueKind uint8

const (
	ValueNull ValueKind = iota
	ValueTrue
	ValueFalse
	ValueString
	ValueInteger
	ValueFloat
	ValueArray
	ValueDictionary
)

// Value is the tagged value tree produced by ParseValue (and by
// compiler.go's YAML conversion) and consumed by the JSON-form schema
// ingestion (schema_json.go). Dictionary preserves insertion order via OMap, per spec.md
// §3's invariant that struct/enum-adjacent ordered data is never silently
// reordered through a hash map.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
	Arr   []*Value
	Dict  *OMap[*Value]
}

func NewNull() *Value    { return &Value{Kind: ValueNull} }
func NewBool(b bool) *Value {
	if b {
		return &Value{Kind: ValueTrue}
	}
	return &Value{Kind: ValueFalse}
}
func NewString(s string) *Value  { return &Value{Kind: ValueString, Str: s} }
func NewInteger(i int64) *Value  { return &Value{Kind: ValueInteger, Int: i} }
func NewFloat(f float64) *Value  { return &Value{Kind: ValueFloat, Float: f} }
func NewArray(v []*Value) *Value { return &Value{Kind: ValueArray, Arr: v} }
func NewDict() *Value            { return &Value{Kind: ValueDictionary, Dict: NewOMap[*Value]()} }

func (v *Value) IsNull() bool       { return v != nil && v.Kind == ValueNull }
func (v *Value) IsTrue() bool       { return v != nil && v.Kind == ValueTrue }
func (v *Value) IsFalse() bool      { return v != nil && v.Kind == ValueFalse }
func (v *Value) IsString() bool     { return v != nil && v.Kind == ValueString }
func (v *Value) IsInteger() bool    { return v != nil && v.Kind == ValueInteger }
func (v *Value) IsFloat() bool      { return v != nil && v.Kind == ValueFloat }
func (v *Value) IsArray() bool      { return v != nil && v.Kind == ValueArray }
func (v *Value) IsDictionary() bool { return v != nil && v.Kind == ValueDictionary }

// AsBool reports the boolean value of a True/False node.
func (v *Value) AsBool() (bool, bool) {
	if v == nil {
		return false, false
	}
	switch v.Kind {
	case ValueTrue:
		return true, true
	case ValueFalse:
		return false, true
	default:
		return false, false
	}
}

func (v *Value) AsString() (string, bool) {
	if v != nil && v.Kind == ValueString {
		return v.Str, true
	}
	return "", false
}

func (v *Value) AsInt() (int64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.Kind {
	case ValueInteger:
		return v.Int, true
	case ValueFloat:
		return int64(v.Float), true
	default:
		return 0, false
	}
}

func (v *Value) AsFloat() (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.Kind {
	case ValueFloat:
		return v.Float, true
	case ValueInteger:
		return float64(v.Int), true
	default:
		return 0, false
	}
}

func (v *Value) AsArray() ([]*Value, bool) {
	if v != nil && v.Kind == ValueArray {
		return v.Arr, true
	}
	return nil, false
}

func (v *Value) AsDict() (*OMap[*Value], bool) {
	if v != nil && v.Kind == ValueDictionary {
		return v.Dict, true
	}
	return nil, false
}

// Get looks up a key on a Dictionary value, returning nil if v isn't a
// dictionary or the key is absent.
func (v *Value) Get(key string) *Value {
	if v == nil || v.Kind != ValueDictionary {
		return nil
	}
	val, ok := v.Dict.Get(key)
	if !ok {
		return nil
	}
	return val
}

// ParseValue parses a single JSON (with the §6 single-quote relaxation)
// document into a Value tree. It is a single-pass, recursive-descent reader
// over the input bytes — allocation-tolerant in the sense that it never
// copies the source except for decoded string/number runs, matching
// spec.md §4.4's contract with the JSON-form schema and buffer import/export
// surfaces. Grounded on the value-tree shape of
// original_source/no_proto_js/src/json_flex.rs's NP_JSON.
func ParseValue(src []byte) (*Value, error) {
	p := &jsonParser{src: src}
	p.skipWS()
	v, err := p.parseValue(0)
	if err != nil {
		return nil, err
	}
	p.skipWS()
	if p.pos != len(p.src) {
		return nil, newErr(ErrParseError, "trailing data after JSON value")
	}
	return v, nil
}

type jsonParser struct {
	src []byte
	pos int
}

func (p *jsonParser) skipWS() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\r', '\n':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) parseValue(depth int) (*Value, error) {
	if depth > 255 {
		return nil, newErr(ErrRecursionLimit, "json nesting exceeds 255 levels")
	}
	p.skipWS()
	if p.pos >= len(p.src) {
		return nil, newErr(ErrParseError, "unexpected end of JSON input")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject(depth)
	case c == '[':
		return p.parseArray(depth)
	case c == '"' || c == '\'':
		s, err := p.parseString()
		if err != nil {
			return nil, err
		}
		return NewString(s), nil
	case c == 't':
		return p.parseLiteral("true", NewBool(true))
	case c == 'f':
		return p.parseLiteral("false", NewBool(false))
	case c == 'n':
		return p.parseLiteral("null", NewNull())
	case c == '-' || isDigitByte(c):
		return p.parseNumber()
	default:
		return nil, newErrAt(ErrParseError, "", "unexpected character in JSON input")
	}
}

func (p *jsonParser) parseLiteral(lit string, v *Value) (*Value, error) {
	if p.pos+len(lit) > len(p.src) || string(p.src[p.pos:p.pos+len(lit)]) != lit {
		return nil, newErr(ErrParseError, "invalid literal")
	}
	p.pos += len(lit)
	return v, nil
}

func (p *jsonParser) parseString() (string, error) {
	quote := p.src[p.pos]
	p.pos++
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == quote {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' && p.pos+1 < len(p.src) {
			p.pos++
			switch p.src[p.pos] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case '"':
				b.WriteByte('"')
			case '\'':
				b.WriteByte('\'')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'u':
				if p.pos+4 < len(p.src) {
					code, err := strconv.ParseInt(string(p.src[p.pos+1:p.pos+5]), 16, 32)
					if err == nil {
						b.WriteRune(rune(code))
						p.pos += 4
						break
					}
				}
				b.WriteByte('u')
			default:
				b.WriteByte(p.src[p.pos])
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
	return "", newErr(ErrUnterminatedString, "unterminated JSON string")
}

func (p *jsonParser) parseNumber() (*Value, error) {
	start := p.pos
	isFloat := false
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && isDigitByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		isFloat = true
		p.pos++
		for p.pos < len(p.src) && isDigitByte(p.src[p.pos]) {
			p.pos++
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		isFloat = true
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.src) && isDigitByte(p.src[p.pos]) {
			p.pos++
		}
	}
	text := string(p.src[start:p.pos])
	if isFloat {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, newErr(ErrParseError, "invalid JSON number")
		}
		return NewFloat(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, newErr(ErrParseError, "invalid JSON number")
	}
	return NewInteger(i), nil
}

func (p *jsonParser) parseArray(depth int) (*Value, error) {
	p.pos++ // '['
	var items []*Value
	p.skipWS()
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return NewArray(items), nil
	}
	for {
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		p.skipWS()
		if p.pos >= len(p.src) {
			return nil, newErr(ErrUnterminatedGroup, "unterminated JSON array")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return NewArray(items), nil
		}
		return nil, newErr(ErrParseError, "expected ',' or ']' in JSON array")
	}
}

func (p *jsonParser) parseObject(depth int) (*Value, error) {
	p.pos++ // '{'
	dict := NewDict()
	p.skipWS()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return &Value{Kind: ValueDictionary, Dict: dict.Dict}, nil
	}
	for {
		p.skipWS()
		if p.pos >= len(p.src) || (p.src[p.pos] != '"' && p.src[p.pos] != '\'') {
			return nil, newErr(ErrParseError, "expected string key in JSON object")
		}
		key, err := p.parseString()
		if err != nil {
			return nil, err
		}
		p.skipWS()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return nil, newErr(ErrParseError, "expected ':' after JSON object key")
		}
		p.pos++
		v, err := p.parseValue(depth + 1)
		if err != nil {
			return nil, err
		}
		dict.Dict.Set(key, v)
		p.skipWS()
		if p.pos >= len(p.src) {
			return nil, newErr(ErrUnterminatedGroup, "unterminated JSON object")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return &Value{Kind: ValueDictionary, Dict: dict.Dict}, nil
		}
		return nil, newErr(ErrParseError, "expected ',' or '}' in JSON object")
	}
}

// Stringify serializes v back to minimal-whitespace JSON text, the inverse
// described in spec.md §4.4.
func (v *Value) Stringify() string {
	var b strings.Builder
	v.writeTo(&b)
	return b.String()
}

func (v *Value) writeTo(b *strings.Builder) {
	if v == nil {
		b.WriteString("null")
		return
	}
	switch v.Kind {
	case ValueNull:
		b.WriteString("null")
	case ValueTrue:
		b.WriteString("true")
	case ValueFalse:
		b.WriteString("false")
	case ValueString:
		writeJSONString(b, v.Str)
	case ValueInteger:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case ValueFloat:
		b.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case ValueArray:
		b.WriteByte('[')
		for i, item := range v.Arr {
			if i > 0 {
				b.WriteByte(',')
			}
			item.writeTo(b)
		}
		b.WriteByte(']')
	case ValueDictionary:
		b.WriteByte('{')
		for i, pair := range v.Dict.Iter() {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONString(b, pair.Key)
			b.WriteByte(':')
			pair.Value.writeTo(b)
		}
		b.WriteByte('}')
	}
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
}
