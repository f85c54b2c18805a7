package cgen

import "strconv"

const (
	ampersand      = "&"
	arrow          = "->"
	assign         = "="
	asterisk       = "*"
	brace1         = "{"
	brace2         = "}"
	calloc         = "calloc"
	case_          = "case"
	char           = "char"
	cmpE           = "=="
	cmpNE          = "!="
	colon          = ":"
	comma          = ","
	cplusplus      = "__cplusplus"
	default_       = "default"
	define         = "define"
	dot            = "."
	doubleQuote    = "\""
	else_          = "else"
	empty          = ""
	endif          = "endif"
	enum           = "enum"
	extern         = "extern"
	fclose         = "fclose"
	float          = "float"
	fopen          = "fopen"
	fread          = "fread"
	free           = "free"
	fwrite         = "fwrite"
	gap            = "/**/"
	hash           = "#"
	ifdef          = "ifdef"
	if_            = "if"
	include        = "include"
	int_           = "int"
	linkageC       = "C"
	malloc         = "malloc"
	newline        = "\n"
	once           = "once"
	one            = "1"
	paren1         = "("
	paren2         = ")"
	plus           = "+"
	pragma         = "pragma"
	printf         = "printf"
	return_        = "return"
	semicolon      = ";"
	sizeof         = "sizeof"
	slashes        = "//"
	space          = " "
	sprintf        = "sprintf"
	squareBracket1 = "["
	squareBracket2 = "]"
	strlen         = "strlen"
	struct_        = "struct"
	switch_        = "switch"
	typedef        = "typedef"
	void           = "void"
	zero           = "0"
)

type Add struct {
	Expr1, Expr2 Gen
}

func (a Add) Append(to []byte) []byte {
	to = a.Expr1.Append(to)
	to = append(to, space+plus+space...)
	to = a.Expr2.Append(to)
	return to
}

type Addr struct {
	Expr Gen
}

func (a Addr) Append(to []byte) []byte {
	to = append(to, ampersand...)
	to = a.Expr.Append(to)
	return to
}

type AddrArrow Arrow

func (a AddrArrow) Append(to []byte) []byte {
	to = Addr{Arrow(a)}.Append(to)
	return to
}

type AngleBracketed string

func (a AngleBracketed) Append(to []byte) []byte {
	to = append(to, "<"...)
	to = append(to, a...)
	to = append(to, ">"...)
	return to
}

type Arrow struct {
	Expr Gen
	Name string
}

func (a Arrow) Append(to []byte) []byte {
	to = a.Expr.Append(to)
	to = append(to, arrow...)
	to = append(to, a.Name...)
	return to
}

type Assign struct {
	Expr1, Expr2 Gen
}

func (a Assign) Append(to []byte) []byte {
	to = a.Expr1.Append(to)
	to = append(to, space+assign+space...)
	to = a.Expr2.Append(to)
	return to
}

type Block struct {
	Inner Gen
}

func (b Block) Append(to []byte) []byte {
	to = append(to, brace1+newline...)
	to = Maybe{b.Inner}.Append(to)
	to = append(to, brace2...)
	return to
}

type Brace struct {
	Inner Gen
}

func (b Brace) Append(to []byte) []byte {
	to = append(to, brace1...)
	to = Maybe{b.Inner}.Append(to)
	to = append(to, brace2...)
	return to
}

type Call struct {
	Func, Args Gen
}

func (c Call) Append(to []byte) []byte {
	to = c.Func.Append(to)
	to = Paren{c.Args}.Append(to)
	return to
}

type Case struct {
	Expr, Body Gen
}

func (c Case) Append(to []byte) []byte {
	if c.Expr == nil {
		to = append(to, default_...)
	} else {
		to = append(to, case_+space...)
		to = c.Expr.Append(to)
	}
	to = append(to, colon...)
	if c.Body != nil {
		to = append(to, space...)
		to = Block{c.Body}.Append(to)
	}
	return to
}

type Cast struct {
	Type, Expr Gen
}

func (c Cast) Append(to []byte) []byte {
	to = Paren{c.Type}.Append(to)
	to = c.Expr.Append(to)
	return to
}

type CmpE struct {
	Expr1, Expr2 Gen
}

func (c CmpE) Append(to []byte) []byte {
	to = c.Expr1.Append(to)
	to = append(to, space+cmpE+space...)
	to = c.Expr2.Append(to)
	return to
}

type CmpNE struct {
	Expr1, Expr2 Gen
}

func (c CmpNE) Append(to []byte) []byte {
	to = c.Expr1.Append(to)
	to = append(to, space+cmpNE+space...)
	to = c.Expr2.Append(to)
	return to
}

type CommaLines []Gen

func (c CommaLines) Append(to []byte) []byte {
	first := true
	for _, gen := range c {
		if gen == nil {
			continue
		}
		if first {
			first = false
		} else {
			to = append(to, comma...)
		}
		to = append(to, newline...)
		to = gen.Append(to)
	}
	if !first {
		to = append(to, newline...)
	}
	return to
}

type CommaSpaced []Gen

func (c CommaSpaced) Append(to []byte) []byte {
	first := true
	for _, gen := range c {
		if gen == nil {
			continue
		}
		if first {
			first = false
		} else {
			to = append(to, comma+space...)
		}
		to = gen.Append(to)
	}
	return to
}

type Comment []string

func (c Comment) Append(to []byte) []byte {
	for _, line := range c {
		switch line {
		case empty:
			to = append(to, slashes+newline...)
		default:
			to = append(to, slashes+space...)
			to = append(to, line...)
			to = append(to, newline...)
		}
	}
	return to
}

// Define is an object-like macro whose replacement is parenthesized.
type Define struct {
	Name  string
	Value Gen
}

func (d Define) Append(to []byte) []byte {
	to = Preprocessor{
		Head: Defn,
		Tail: Spaced{Vb(d.Name), Paren{d.Value}},
	}.Append(to)
	return to
}

type Directive string

const (
	Defn    Directive = define
	Endif   Directive = endif
	Ifdef   Directive = ifdef
	Include Directive = include
	Pragma  Directive = pragma
)

type Dot struct {
	Expr Gen
	Name string
}

func (d Dot) Append(to []byte) []byte {
	to = d.Expr.Append(to)
	to = append(to, dot...)
	to = append(to, d.Name...)
	return to
}

type DoubleQuoted string

func (d DoubleQuoted) Append(to []byte) []byte {
	to = append(to, doubleQuote...)
	to = append(to, d...)
	to = append(to, doubleQuote...)
	return to
}

type Elem struct {
	Arr, Idx Gen
}

func (e Elem) Append(to []byte) []byte {
	to = e.Arr.Append(to)
	to = append(to, squareBracket1...)
	to = Maybe{e.Idx}.Append(to)
	to = append(to, squareBracket2...)
	return to
}

type Extern struct {
	Tail Gen
}

func (e Extern) Append(to []byte) []byte {
	to = append(to, extern+space...)
	to = e.Tail.Append(to)
	return to
}

type Field struct {
	Type, What Gen
}

func (f Field) Append(to []byte) []byte {
	to = f.Type.Append(to)
	to = append(to, space...)
	to = f.What.Append(to)
	to = append(to, semicolon...)
	return to
}

type FuncDecl struct {
	ReturnType Gen
	Name       string
	Params     Gen
}

func (f FuncDecl) Append(to []byte) []byte {
	to = f.ReturnType.Append(to)
	to = append(to, space...)
	to = Call{Vb(f.Name), f.Params}.Append(to)
	to = append(to, semicolon+newline...)
	return to
}

type FuncDef struct {
	ReturnType Gen
	Name       string
	Params     Gen
	Body       Gen
}

func (f FuncDef) Append(to []byte) []byte {
	var g1, g2, g3 Gen
	g1 = f.ReturnType
	g2 = Call{Vb(f.Name), f.Params}
	g3 = Block{f.Body}
	to = Spaced{g1, g2, g3}.Append(to)
	to = append(to, newline...)
	return to
}

type Gen interface {
	Append(to []byte) []byte
}

type Gens []Gen

func (gs Gens) Append(to []byte) []byte {
	for _, gen := range gs {
		if gen != nil {
			to = gen.Append(to)
		}
	}
	return to
}

type If struct {
	Cond Gen
	Then Stmts
	Else Stmts
}

func (i If) Append(to []byte) []byte {
	to = append(to, if_+space...)
	to = Paren{i.Cond}.Append(to)
	to = append(to, space...)
	to = Block{i.Then}.Append(to)
	if n := len(i.Else); n != 0 {
		to = append(to, space+else_+space...)
		chain := false
		if n == 1 {
			_, chain = i.Else[0].(If)
		}
		if chain {
			to = i.Else[0].Append(to)
		} else {
			to = Block{i.Else}.Append(to)
		}
	}
	return to
}

type IntLit int

func (i IntLit) Append(to []byte) []byte {
	to = strconv.AppendInt(to, int64(i), 10)
	return to
}

type Int64Lit int64

func (i Int64Lit) Append(to []byte) []byte {
	to = strconv.AppendInt(to, int64(i), 10)
	return to
}

type IsZero struct {
	Expr Gen
}

func (i IsZero) Append(to []byte) []byte {
	to = append(to, "!"...)
	to = i.Expr.Append(to)
	return to
}

type Maybe struct {
	What Gen
}

func (m Maybe) Append(to []byte) []byte {
	if m.What != nil {
		to = m.What.Append(to)
	}
	return to
}

type MaybeSpace struct {
	What Gen
}

func (m MaybeSpace) Append(to []byte) []byte {
	if m.What != nil {
		to = append(to, space...)
		to = m.What.Append(to)
	}
	return to
}

type Param struct {
	Type, What Gen
}

func (p Param) Append(to []byte) []byte {
	to = p.Type.Append(to)
	to = append(to, space...)
	to = p.What.Append(to)
	return to
}

type Paren struct {
	Inner Gen
}

func (p Paren) Append(to []byte) []byte {
	to = append(to, paren1...)
	to = Maybe{p.Inner}.Append(to)
	to = append(to, paren2...)
	return to
}

type Preprocessor struct {
	Head Directive
	Tail Gen
}

func (p Preprocessor) Append(to []byte) []byte {
	to = append(to, hash...)
	to = append(to, p.Head...)
	to = MaybeSpace{p.Tail}.Append(to)
	to = append(to, newline...)
	return to
}

type Ptr struct {
	Type Gen
}

func (p Ptr) Append(to []byte) []byte {
	to = p.Type.Append(to)
	to = append(to, asterisk...)
	return to
}

type Return struct {
	Expr Gen
}

func (r Return) Append(to []byte) []byte {
	to = append(to, return_...)
	to = MaybeSpace{r.Expr}.Append(to)
	return to
}

type Sizeof struct {
	What Gen
}

func (s Sizeof) Append(to []byte) []byte {
	to = append(to, sizeof...)
	to = Paren{s.What}.Append(to)
	return to
}

type Spaced []Gen

func (s Spaced) Append(to []byte) []byte {
	first := true
	for _, gen := range s {
		if gen == nil {
			continue
		}
		if first {
			first = false
		} else {
			to = append(to, space...)
		}
		to = gen.Append(to)
	}
	return to
}

type Stmts []Gen

func (s Stmts) Append(to []byte) []byte {
	for _, gen := range s {
		if gen == nil {
			continue
		}
		n1 := len(to)
		to = gen.Append(to)
		n2 := len(to)
		if n1 >= n2 {
			continue
		}
		switch to[n2-1] {
		case newline[0]:
		case brace2[0], semicolon[0]:
			to = append(to, newline...)
		default:
			to = append(to, semicolon+newline...)
		}
	}
	return to
}

type Switch struct {
	Expr, Cases Gen
}

func (s Switch) Append(to []byte) []byte {
	to = append(to, switch_+space...)
	to = Paren{s.Expr}.Append(to)
	to = append(to, space...)
	to = Block{s.Cases}.Append(to)
	return to
}

type Table struct {
	Flat []Gen
	Cols int
}

func (t Table) Append(to []byte) []byte {
	last := t.Cols - 1
	if last < 0 {
		return to
	}
	var text []byte
	sizes := make([]int, 0, len(t.Flat))
	maxes := make([]int, last)
	col := 0
	for i := range t.Flat {
		if col == last {
			col = 0
			continue
		}
		was := len(text)
		if gen := t.Flat[i]; gen != nil {
			text = gen.Append(text)
		}
		size := len(text) - was
		sizes = append(sizes, size)
		if maxes[col] < size {
			maxes[col] = size
		}
		col += 1
	}
	most := 0
	for _, max := range maxes {
		if most < max {
			most = max
		}
	}
	sp, nl := space[0], newline[0]
	spaces := make([]byte, most+1)
	for i := range spaces {
		spaces[i] = sp
	}
	for i := range t.Flat {
		if col == last {
			was := len(to)
			if gen := t.Flat[i]; gen != nil {
				to = gen.Append(to)
			}
			now := len(to)
			if was >= now || to[now-1] != nl {
				to = append(to, nl)
			}
			col = 0
			continue
		}
		size := sizes[0]
		sizes = sizes[1:]
		to = append(to, text[:size]...)
		text = text[size:]
		fill := maxes[col] - size + 1
		to = append(to, spaces[:fill]...)
		col += 1
	}
	return to
}

// TypedefEnum declares an anonymous enum under a typedef name.
type TypedefEnum struct {
	Name   string
	Values []Gen
}

func (t TypedefEnum) Append(to []byte) []byte {
	to = append(to, typedef+space+enum+space...)
	to = Brace{CommaLines(t.Values)}.Append(to)
	to = append(to, space...)
	to = append(to, t.Name...)
	to = append(to, semicolon+newline...)
	return to
}

// TypedefStruct declares an anonymous struct under a typedef name.
type TypedefStruct struct {
	Name   string
	Fields Gen
}

func (t TypedefStruct) Append(to []byte) []byte {
	to = append(to, typedef+space+struct_+space...)
	to = Block{t.Fields}.Append(to)
	to = append(to, space...)
	to = append(to, t.Name...)
	to = append(to, semicolon+newline...)
	return to
}

type Var struct {
	Type, What, Init Gen
}

func (v Var) Append(to []byte) []byte {
	to = v.Type.Append(to)
	to = append(to, space...)
	to = v.What.Append(to)
	if v.Init != nil {
		to = append(to, space+assign+space...)
		to = v.Init.Append(to)
	}
	to = append(to, semicolon...)
	return to
}

type Vb string

func (v Vb) Append(to []byte) []byte {
	to = append(to, v...)
	return to
}

var (
	Calloc     Gen = Vb(calloc)
	Char       Gen = Vb(char)
	Cplusplus  Gen = Vb(cplusplus)
	Fclose     Gen = Vb(fclose)
	Float      Gen = Vb(float)
	Fopen      Gen = Vb(fopen)
	Fread      Gen = Vb(fread)
	Free       Gen = Vb(free)
	Fwrite     Gen = Vb(fwrite)
	Gap        Gen = Vb(gap)
	Int        Gen = Vb(int_)
	LinkageC   Gen = DoubleQuoted(linkageC)
	Malloc     Gen = Vb(malloc)
	Newline    Gen = Vb(newline)
	Once       Gen = Vb(once)
	One        Gen = Vb(one)
	PragmaOnce Gen = Preprocessor{Pragma, Once}
	Printf     Gen = Vb(printf)
	PtrChar    Gen = Ptr{Char}
	PtrFloat   Gen = Ptr{Float}
	PtrPtrChar Gen = Ptr{PtrChar}
	PtrPtrVoid Gen = Ptr{PtrVoid}
	PtrVoid    Gen = Ptr{Void}
	Sprintf    Gen = Vb(sprintf)
	Strlen     Gen = Vb(strlen)
	Void       Gen = Vb(void)
	Zero       Gen = Vb(zero)
)

var Linkage1 Gen = Gens{
	Preprocessor{Ifdef, Cplusplus},
	Extern{Spaced{LinkageC, Vb(brace1), Gap}}, Newline,
	Preprocessor{Endif, nil},
}

var Linkage2 Gen = Gens{
	Preprocessor{Ifdef, Cplusplus},
	Spaced{Gap, Vb(brace2)}, Newline,
	Preprocessor{Endif, nil},
}
