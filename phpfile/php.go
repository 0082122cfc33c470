// Package phpfile implements reading and writing of PHP array translation
// files, the layout used by Laravel's lang/<locale>/<group>.php files:
//
//	<?php
//
//	return [
//	    'login' => 'Log in',
//	    'errors' => [
//	        'required' => 'This field is required.',
//	    ],
//	];
//
// Marshal renders a keypath.Tree structurally: four spaces per nesting
// level, trailing commas, keys and values as single-quoted literals. Parse
// accepts the subset of PHP that such files use in practice: a single
// return statement of nested short ([...]) or long (array(...)) array
// literals with string, integer and float scalars, comments, and string
// concatenation with '.'. Anything else is a parse error; Parse never
// returns a partial tree.
package phpfile

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/minios-linux/transync/keypath"
)

// Extension is the file extension for PHP translation files.
const Extension = ".php"

// indent is the per-level indentation of rendered arrays.
const indent = "    "

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Marshal renders t as a PHP file returning a short-syntax array literal.
func Marshal(t *keypath.Tree) []byte {
	var b bytes.Buffer
	b.WriteString("<?php\n\nreturn ")
	writeArray(&b, t, 1)
	b.WriteString(";\n")
	return b.Bytes()
}

func writeArray(b *bytes.Buffer, t *keypath.Tree, level int) {
	if t.Len() == 0 {
		b.WriteString("[]")
		return
	}
	pad := strings.Repeat(indent, level)
	b.WriteString("[\n")
	for _, k := range t.Keys() {
		n, _ := t.Get(k)
		b.WriteString(pad)
		b.WriteString(Quote(k))
		b.WriteString(" => ")
		if n.Kind == keypath.Interior {
			writeArray(b, n.Children, level+1)
		} else {
			b.WriteString(Quote(n.Value))
		}
		b.WriteString(",\n")
	}
	b.WriteString(strings.Repeat(indent, level-1))
	b.WriteByte(']')
}

// Quote returns s as a single-quoted PHP string literal. Only the backslash
// and the quote character need escaping; everything else, including
// newlines and non-ASCII text, is written verbatim.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '\'' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('\'')
	return b.String()
}

// WriteFile renders t and writes it to path.
func WriteFile(path string, t *keypath.Tree) error {
	if err := os.WriteFile(path, Marshal(t), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// ParseError describes where a document stopped making sense.
type ParseError struct {
	Line    int
	Column  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// ParseFile reads and parses a PHP translation file.
func ParseFile(path string) (*keypath.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses a PHP file that returns an array literal.
func Parse(data []byte) (*keypath.Tree, error) {
	p := &parser{src: data}
	p.skipBOM()
	p.skipSpace()
	if !p.consume("<?php") {
		return nil, p.errorf("expected <?php open tag")
	}
	if err := p.skipTrivia(); err != nil {
		return nil, err
	}
	if p.peekWord() == "declare" {
		if err := p.skipDeclare(); err != nil {
			return nil, err
		}
	}
	if p.peekWord() != "return" {
		return nil, p.errorf("expected return statement")
	}
	p.pos += len("return")
	if err := p.skipTrivia(); err != nil {
		return nil, err
	}
	tree, err := p.parseArray()
	if err != nil {
		return nil, err
	}
	if err := p.skipTrivia(); err != nil {
		return nil, err
	}
	if !p.consume(";") {
		return nil, p.errorf("expected ; after return value")
	}
	if err := p.skipTrivia(); err != nil {
		return nil, err
	}
	if p.consume("?>") {
		p.skipSpace()
	}
	if !p.eof() {
		return nil, p.errorf("unexpected content after return statement")
	}
	return tree, nil
}

// scalarKind classifies a parsed scalar.
type scalarKind int

const (
	scalarString scalarKind = iota
	scalarInt
	scalarFloat
	scalarNull
)

type scalar struct {
	kind scalarKind
	text string
}

type parser struct {
	src []byte
	pos int
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) consume(s string) bool {
	if bytes.HasPrefix(p.src[p.pos:], []byte(s)) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) errorf(format string, args ...any) error {
	line, col := 1, 1
	for i := 0; i < p.pos && i < len(p.src); i++ {
		if p.src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return &ParseError{Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) skipBOM() {
	p.consume("\xef\xbb\xbf")
}

func (p *parser) skipSpace() {
	for !p.eof() {
		switch p.peek() {
		case ' ', '\t', '\n', '\r', '\f', '\v':
			p.pos++
		default:
			return
		}
	}
}

// skipTrivia skips whitespace and comments.
func (p *parser) skipTrivia() error {
	for {
		p.skipSpace()
		switch {
		case p.consume("//"), p.peek() == '#' && !bytes.HasPrefix(p.src[p.pos:], []byte("#[")):
			if p.peek() == '#' {
				p.pos++
			}
			for !p.eof() && p.peek() != '\n' {
				if bytes.HasPrefix(p.src[p.pos:], []byte("?>")) {
					break
				}
				p.pos++
			}
		case p.consume("/*"):
			end := bytes.Index(p.src[p.pos:], []byte("*/"))
			if end < 0 {
				return p.errorf("unterminated comment")
			}
			p.pos += end + 2
		default:
			return nil
		}
	}
}

// peekWord returns the identifier at the cursor, lower-cased.
func (p *parser) peekWord() string {
	end := p.pos
	for end < len(p.src) && isIdentByte(p.src[end]) {
		end++
	}
	return strings.ToLower(string(p.src[p.pos:end]))
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// skipDeclare skips a declare(...); statement.
func (p *parser) skipDeclare() error {
	p.pos += len("declare")
	if err := p.skipTrivia(); err != nil {
		return err
	}
	if !p.consume("(") {
		return p.errorf("expected ( after declare")
	}
	end := bytes.IndexByte(p.src[p.pos:], ')')
	if end < 0 {
		return p.errorf("unterminated declare")
	}
	p.pos += end + 1
	if err := p.skipTrivia(); err != nil {
		return err
	}
	if !p.consume(";") {
		return p.errorf("expected ; after declare")
	}
	return p.skipTrivia()
}

// parseArray parses [ ... ] or array( ... ) into a tree.
func (p *parser) parseArray() (*keypath.Tree, error) {
	var closing byte
	switch {
	case p.consume("["):
		closing = ']'
	case p.peekWord() == "array":
		p.pos += len("array")
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if !p.consume("(") {
			return nil, p.errorf("expected ( after array")
		}
		closing = ')'
	default:
		return nil, p.errorf("expected array literal")
	}

	tree := keypath.New()
	next := int64(0)
	for {
		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		if p.peek() == closing {
			p.pos++
			return tree, nil
		}
		if p.eof() {
			return nil, p.errorf("unterminated array")
		}

		if err := p.parseItem(tree, &next); err != nil {
			return nil, err
		}

		if err := p.skipTrivia(); err != nil {
			return nil, err
		}
		switch {
		case p.consume(","):
		case p.peek() == closing:
		default:
			return nil, p.errorf("expected , or %c in array", closing)
		}
	}
}

// parseItem parses "value" or "key => value" and stores it in tree.
func (p *parser) parseItem(tree *keypath.Tree, next *int64) error {
	if p.isArrayStart() {
		sub, err := p.parseArray()
		if err != nil {
			return err
		}
		tree.SetChild(strconv.FormatInt(*next, 10), sub)
		*next++
		return nil
	}

	first, err := p.parseScalar()
	if err != nil {
		return err
	}
	if err := p.skipTrivia(); err != nil {
		return err
	}

	if !p.consume("=>") {
		storeScalar(tree, strconv.FormatInt(*next, 10), first)
		*next++
		return nil
	}

	key, err := p.keyFor(first, next)
	if err != nil {
		return err
	}
	if err := p.skipTrivia(); err != nil {
		return err
	}
	if p.isArrayStart() {
		sub, err := p.parseArray()
		if err != nil {
			return err
		}
		tree.SetChild(key, sub)
		return nil
	}
	value, err := p.parseScalar()
	if err != nil {
		return err
	}
	storeScalar(tree, key, value)
	return nil
}

// keyFor converts a scalar used as an array key, tracking the next implicit
// index the way PHP does.
func (p *parser) keyFor(s scalar, next *int64) (string, error) {
	switch s.kind {
	case scalarString:
		if n, err := strconv.ParseInt(s.text, 10, 64); err == nil && strconv.FormatInt(n, 10) == s.text {
			bumpIndex(next, n)
		}
		return s.text, nil
	case scalarInt:
		n, err := strconv.ParseInt(s.text, 10, 64)
		if err != nil {
			return "", p.errorf("invalid integer key %s", s.text)
		}
		bumpIndex(next, n)
		return strconv.FormatInt(n, 10), nil
	default:
		return "", p.errorf("unsupported array key")
	}
}

func bumpIndex(next *int64, n int64) {
	if n >= *next {
		*next = n + 1
	}
}

// storeScalar writes a scalar value; null means "no translation" and is
// dropped.
func storeScalar(tree *keypath.Tree, key string, s scalar) {
	if s.kind == scalarNull {
		return
	}
	tree.SetLeaf(key, s.text)
}

func (p *parser) isArrayStart() bool {
	if p.peek() == '[' {
		return true
	}
	if p.peekWord() != "array" {
		return false
	}
	// array followed by "(" after optional trivia.
	save := p.pos
	p.pos += len("array")
	p.skipSpace()
	ok := p.peek() == '('
	p.pos = save
	return ok
}

// parseScalar parses a string (with optional '.' concatenation), a number,
// or null.
func (p *parser) parseScalar() (scalar, error) {
	switch c := p.peek(); {
	case c == '\'' || c == '"':
		s, err := p.parseString()
		if err != nil {
			return scalar{}, err
		}
		for {
			save := p.pos
			if err := p.skipTrivia(); err != nil {
				return scalar{}, err
			}
			if !p.consume(".") {
				p.pos = save
				break
			}
			if err := p.skipTrivia(); err != nil {
				return scalar{}, err
			}
			if c := p.peek(); c != '\'' && c != '"' {
				return scalar{}, p.errorf("expected string after concatenation operator")
			}
			more, err := p.parseString()
			if err != nil {
				return scalar{}, err
			}
			s += more
		}
		return scalar{kind: scalarString, text: s}, nil
	case c == '-' || c == '+' || c >= '0' && c <= '9':
		return p.parseNumber()
	default:
		switch word := p.peekWord(); word {
		case "null":
			p.pos += len(word)
			return scalar{kind: scalarNull}, nil
		case "":
			return scalar{}, p.errorf("unexpected character %q", c)
		default:
			return scalar{}, p.errorf("unsupported value %q", word)
		}
	}
}

func (p *parser) parseNumber() (scalar, error) {
	start := p.pos
	if c := p.peek(); c == '-' || c == '+' {
		p.pos++
	}
	digits := p.pos
	for !p.eof() && (p.peek() >= '0' && p.peek() <= '9' || p.peek() == '_') {
		p.pos++
	}
	if p.pos == digits {
		return scalar{}, p.errorf("invalid number")
	}
	kind := scalarInt
	if p.peek() == '.' && p.pos+1 < len(p.src) && p.src[p.pos+1] >= '0' && p.src[p.pos+1] <= '9' {
		kind = scalarFloat
		p.pos++
		for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
			p.pos++
		}
	}
	text := strings.ReplaceAll(string(p.src[start:p.pos]), "_", "")
	text = strings.TrimPrefix(text, "+")
	return scalar{kind: kind, text: text}, nil
}

// parseString parses a quoted literal. The decoded text must be valid
// UTF-8, since JSON and YAML files cannot hold anything else.
func (p *parser) parseString() (string, error) {
	start := p.pos
	quote := p.peek()
	p.pos++
	var b strings.Builder
	for {
		if p.eof() {
			return "", p.errorf("unterminated string")
		}
		c := p.src[p.pos]
		switch {
		case c == quote:
			if !utf8.ValidString(b.String()) {
				p.pos = start
				return "", p.errorf("string is not valid UTF-8")
			}
			p.pos++
			return b.String(), nil
		case c == '\\' && p.pos+1 < len(p.src):
			if quote == '\'' {
				p.singleEscape(&b)
			} else if err := p.doubleEscape(&b); err != nil {
				return "", err
			}
		case c == '$' && quote == '"' && p.pos+1 < len(p.src) && (p.src[p.pos+1] == '{' || isIdentStart(p.src[p.pos+1])):
			return "", p.errorf("variable interpolation is not supported")
		default:
			b.WriteByte(c)
			p.pos++
		}
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

// singleEscape handles \\ and \' inside single quotes; any other backslash
// is literal.
func (p *parser) singleEscape(b *strings.Builder) {
	next := p.src[p.pos+1]
	if next == '\\' || next == '\'' {
		b.WriteByte(next)
		p.pos += 2
		return
	}
	b.WriteByte('\\')
	p.pos++
}

// doubleEscape handles the escape sequences of double-quoted strings.
func (p *parser) doubleEscape(b *strings.Builder) error {
	next := p.src[p.pos+1]
	simple := map[byte]byte{
		'n': '\n', 't': '\t', 'r': '\r', 'v': '\v', 'f': '\f', 'e': 0x1b,
		'\\': '\\', '$': '$', '"': '"',
	}
	if r, ok := simple[next]; ok {
		b.WriteByte(r)
		p.pos += 2
		return nil
	}
	switch {
	case next >= '0' && next <= '7':
		end := p.pos + 1
		for end < len(p.src) && end < p.pos+4 && p.src[end] >= '0' && p.src[end] <= '7' {
			end++
		}
		n, _ := strconv.ParseUint(string(p.src[p.pos+1:end]), 8, 16)
		b.WriteByte(byte(n))
		p.pos = end
		return nil
	case next == 'x':
		end := p.pos + 2
		for end < len(p.src) && end < p.pos+4 && isHex(p.src[end]) {
			end++
		}
		if end == p.pos+2 {
			b.WriteString(`\x`)
			p.pos += 2
			return nil
		}
		n, _ := strconv.ParseUint(string(p.src[p.pos+2:end]), 16, 8)
		b.WriteByte(byte(n))
		p.pos = end
		return nil
	case next == 'u' && p.pos+2 < len(p.src) && p.src[p.pos+2] == '{':
		end := bytes.IndexByte(p.src[p.pos+3:], '}')
		if end < 0 {
			return p.errorf("unterminated unicode escape")
		}
		hex := string(p.src[p.pos+3 : p.pos+3+end])
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil || !utf8.ValidRune(rune(n)) {
			return p.errorf("invalid unicode escape \\u{%s}", hex)
		}
		b.WriteRune(rune(n))
		p.pos += 3 + end + 1
		return nil
	default:
		b.WriteByte('\\')
		p.pos++
		return nil
	}
}

func isHex(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}
