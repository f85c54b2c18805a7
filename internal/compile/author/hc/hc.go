package hc

import "nnrt/internal/compile/author/cgen"

// Section orders the text of every artifact. Each artifact owns a
// contiguous run of sections bounded by its First and Last markers.
type Section int

const (
	PHFirst Section = iota
	PHPragmaOnce
	PHLinkage1
	PHTable
	PHLinkage2
	PHLast
	PCFirst
	PCInclude
	PCArrays
	PCTable
	PCLast
	IHFirst
	IHPragmaOnce
	IHLinkage1
	IHInputs
	IHOutputs
	IHParams
	IHContext
	IHLinkage2
	IHLast
	ICFirst
	ICToBuild
	ICInclude
	ICTypes
	ICStruct
	ICAllocate
	ICFree
	ICAccess
	ICInference
	ICLast
	EXFirst
	EXInclude
	EXMain
	EXLast
	MKFirst
	MKRules
	MKLast
	sectionCount
)

type Sections struct {
	a [sectionCount][]byte
}

func (s *Sections) Append(to Section, from ...cgen.Gen) {
	for _, gen := range from {
		if gen != nil {
			s.a[to] = gen.Append(s.a[to])
		}
	}
}

// Join concatenates sections first through last, tab-indenting every line
// nested in an open brace or parenthesis.
func (s *Sections) Join(first, last Section) (to []byte) {
	const (
		brace1  = '{'
		brace2  = '}'
		newline = '\n'
		paren1  = '('
		paren2  = ')'
		tab     = '\t'
	)
	var prev byte
	var indent []byte
	for _, from := range s.a[first : last+1] {
		for _, curr := range from {
			switch curr {
			case newline:
				if prev == brace1 || prev == paren1 {
					indent = append(indent, tab)
				}
			default:
				if prev == newline {
					if (curr == brace2 || curr == paren2) && len(indent) > 0 {
						indent = indent[:len(indent)-1]
					}
					to = append(to, indent...)
				}
			}
			to = append(to, curr)
			prev = curr
		}
	}
	return
}
