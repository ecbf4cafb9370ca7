package builtin

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode"
)

// 表达式语法（Python 算术子集）:
//
//	expr    = term { ("+" | "-") term }
//	term    = factor { ("*" | "/" | "//" | "%") factor }
//	factor  = ("+" | "-") factor | power
//	power   = primary [ "**" factor ]
//	primary = NUMBER | "(" expr ")" | NAME [ "." NAME ] [ "(" args ")" ]

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokName
	tokOp
)

type exprToken struct {
	kind tokenKind
	text string
	pos  int
}

// pythonKeywords 会触发 "disallowed construct" 错误的关键字
var pythonKeywords = map[string]bool{
	"import": true, "from": true, "lambda": true, "def": true, "class": true,
	"exec": true, "eval": true, "__import__": true, "open": true, "compile": true,
	"globals": true, "locals": true, "getattr": true, "setattr": true, "del": true,
	"for": true, "while": true, "if": true, "with": true, "yield": true, "await": true,
}

// tokenize 将表达式切分为记号
func tokenize(src string) ([]exprToken, error) {
	var toks []exprToken
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			i = scanNumber(src, i)
			toks = append(toks, exprToken{kind: tokNumber, text: src[start:i], pos: start})
		case c == '_' || unicode.IsLetter(rune(c)):
			start := i
			for i < len(src) && (src[i] == '_' || isDigit(src[i]) || unicode.IsLetter(rune(src[i]))) {
				i++
			}
			toks = append(toks, exprToken{kind: tokName, text: src[start:i], pos: start})
		case c == '*' || c == '/':
			if i+1 < len(src) && src[i+1] == c {
				toks = append(toks, exprToken{kind: tokOp, text: src[i : i+2], pos: i})
				i += 2
			} else {
				toks = append(toks, exprToken{kind: tokOp, text: string(c), pos: i})
				i++
			}
		case strings.IndexByte("+-%(),.", c) >= 0:
			toks = append(toks, exprToken{kind: tokOp, text: string(c), pos: i})
			i++
		default:
			return nil, fmt.Errorf("invalid syntax: unexpected character %q at position %d", c, i)
		}
	}
	toks = append(toks, exprToken{kind: tokEOF, pos: len(src)})
	return toks, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// scanNumber 扫描数字字面量，返回结束位置
func scanNumber(src string, i int) int {
	if src[i] == '0' && i+1 < len(src) && strings.IndexByte("xXoObB", src[i+1]) >= 0 {
		i += 2
		for i < len(src) && (isHexDigit(src[i]) || src[i] == '_') {
			i++
		}
		return i
	}
	for i < len(src) && (isDigit(src[i]) || src[i] == '_' || src[i] == '.') {
		i++
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			i = j
			for i < len(src) && (isDigit(src[i]) || src[i] == '_') {
				i++
			}
		}
	}
	return i
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// exprNode 表达式语法树节点
type exprNode interface{}

type numberLit struct{ val number }

type unaryExpr struct {
	op string
	x  exprNode
}

type binaryExpr struct {
	op   string
	x, y exprNode
}

type callExpr struct {
	fn   string
	args []exprNode
}

type nameRef struct{ name string }

type exprParser struct {
	toks []exprToken
	pos  int
}

// parseExpression 解析完整表达式
func parseExpression(src string) (exprNode, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	node, err := p.expr()
	if err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, p.unexpected(tok)
	}
	return node, nil
}

func (p *exprParser) peek() exprToken { return p.toks[p.pos] }

func (p *exprParser) next() exprToken {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *exprParser) isOp(ops ...string) bool {
	tok := p.peek()
	if tok.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if tok.text == op {
			return true
		}
	}
	return false
}

func (p *exprParser) expect(op string) error {
	if !p.isOp(op) {
		return p.unexpected(p.peek())
	}
	p.next()
	return nil
}

func (p *exprParser) unexpected(tok exprToken) error {
	if tok.kind == tokEOF {
		return fmt.Errorf("invalid syntax: unexpected end of expression")
	}
	if tok.kind == tokName && pythonKeywords[tok.text] {
		return fmt.Errorf("disallowed construct: %s", tok.text)
	}
	return fmt.Errorf("invalid syntax: unexpected %q at position %d", tok.text, tok.pos)
}

func (p *exprParser) expr() (exprNode, error) {
	x, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+", "-") {
		op := p.next().text
		y, err := p.term()
		if err != nil {
			return nil, err
		}
		x = &binaryExpr{op: op, x: x, y: y}
	}
	return x, nil
}

func (p *exprParser) term() (exprNode, error) {
	x, err := p.factor()
	if err != nil {
		return nil, err
	}
	for p.isOp("*", "/", "//", "%") {
		op := p.next().text
		y, err := p.factor()
		if err != nil {
			return nil, err
		}
		x = &binaryExpr{op: op, x: x, y: y}
	}
	return x, nil
}

func (p *exprParser) factor() (exprNode, error) {
	if p.isOp("+", "-") {
		op := p.next().text
		x, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: op, x: x}, nil
	}
	return p.power()
}

func (p *exprParser) power() (exprNode, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	if p.isOp("**") {
		p.next()
		// 右结合，且右侧允许一元运算: 2 ** -1
		y, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &binaryExpr{op: "**", x: x, y: y}, nil
	}
	return x, nil
}

func (p *exprParser) primary() (exprNode, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		n, err := parseNumber(tok.text)
		if err != nil {
			return nil, err
		}
		return &numberLit{val: n}, nil

	case tokName:
		if pythonKeywords[tok.text] {
			return nil, fmt.Errorf("disallowed construct: %s", tok.text)
		}
		name := tok.text
		if p.isOp(".") {
			p.next()
			attr := p.next()
			if attr.kind != tokName {
				return nil, p.unexpected(attr)
			}
			name += "." + attr.text
		}
		if !p.isOp("(") {
			return &nameRef{name: name}, nil
		}
		p.next()
		var args []exprNode
		for !p.isOp(")") {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if !p.isOp(",") {
				break
			}
			p.next()
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		return &callExpr{fn: name, args: args}, nil

	case tokOp:
		if tok.text == "(" {
			x, err := p.expr()
			if err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			return x, nil
		}
	}
	return nil, p.unexpected(tok)
}

// parseNumber 按 Python 规则解析数字字面量
func parseNumber(text string) (number, error) {
	if strings.Contains(text, "__") || strings.HasSuffix(text, "_") {
		return number{}, fmt.Errorf("invalid decimal literal: %s", text)
	}

	lower := strings.ToLower(text)
	isPrefixed := len(lower) > 1 && lower[0] == '0' && strings.IndexByte("xob", lower[1]) >= 0
	if !isPrefixed && strings.ContainsAny(lower, ".e") {
		f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		// 超出范围的字面量与 Python 一致，取值为 inf
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			err = nil
		}
		if err != nil {
			return number{}, fmt.Errorf("invalid decimal literal: %s", text)
		}
		return floatNum(f), nil
	}

	digits := strings.ReplaceAll(text, "_", "")
	if !isPrefixed && len(digits) > 1 && digits[0] == '0' && strings.Trim(digits, "0") != "" {
		return number{}, fmt.Errorf("leading zeros in decimal integer literals are not permitted: %s", text)
	}
	base := 10
	if isPrefixed {
		base = 0
		digits = text
	}
	i, ok := new(big.Int).SetString(digits, base)
	if !ok {
		return number{}, fmt.Errorf("invalid literal: %s", text)
	}
	return intNum(i), nil
}
