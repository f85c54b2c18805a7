package graph

import (
	"fmt"
	"strconv"
)

// Kind classifies an argument value.
type Kind int

const (
	Scalar Kind = iota
	Boolean
	ShapeVector
	IntegerList
)

var kindStrings = [...]string{
	Scalar:      "scalar",
	Boolean:     "bool",
	ShapeVector: "shape",
	IntegerList: "ints",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindStrings) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
	return kindStrings[k]
}

// Value is one typed operator argument. It is implemented by Int, Float,
// Bool, ShapeValue and Ints.
type Value interface {
	Kind() Kind
	String() string
}

type Int int64

func (Int) Kind() Kind       { return Scalar }
func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }

type Float float64

func (Float) Kind() Kind       { return Scalar }
func (f Float) String() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

type Bool bool

func (Bool) Kind() Kind       { return Boolean }
func (b Bool) String() string { return strconv.FormatBool(bool(b)) }

type ShapeValue []int64

func (ShapeValue) Kind() Kind       { return ShapeVector }
func (s ShapeValue) String() string { return fmt.Sprint([]int64(s)) }

type Ints []int64

func (Ints) Kind() Kind       { return IntegerList }
func (i Ints) String() string { return fmt.Sprint([]int64(i)) }

type Arg struct {
	Name  string
	Value Value
}
