// internal/collation/collation.go
package collation

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparator sorts names the way the kitchen staff reads them: collation
// rules of the configured locale, case-insensitive. Byte order is wrong for
// anything beyond plain ASCII.
type Comparator struct {
	mu sync.Mutex
	c  *collate.Collator
}

// New builds a comparator for the given BCP 47 locale tag. An empty or
// unparseable tag falls back to Russian, matching the menus this system
// was built for.
func New(locale string) *Comparator {
	tag, err := language.Parse(locale)
	if locale == "" || err != nil {
		tag = language.Russian
	}
	return &Comparator{c: collate.New(tag, collate.IgnoreCase)}
}

// Less reports whether a sorts before b.
func (cmp *Comparator) Less(a, b string) bool {
	return cmp.Compare(a, b) < 0
}

// Compare returns -1, 0 or 1. Collators are not safe for concurrent use,
// so comparisons are serialized.
func (cmp *Comparator) Compare(a, b string) int {
	cmp.mu.Lock()
	defer cmp.mu.Unlock()
	return cmp.c.CompareString(a, b)
}
