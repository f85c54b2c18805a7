// Package nmsrc hands out local names that are unique within one
// generated artifact set.
package nmsrc

import "strconv"

// Src numbers each prefix independently, starting at 1. Copies share
// their counters.
type Src struct {
	next map[string]int
}

func New() Src {
	return Src{next: make(map[string]int)}
}

// Name returns prefix followed by the next number for that prefix.
func (s Src) Name(prefix string) string {
	n := s.next[prefix] + 1
	s.next[prefix] = n
	return prefix + strconv.Itoa(n)
}
