package collation

import (
	"sort"
	"sync"
	"testing"
)

func TestLessCyrillic(t *testing.T) {
	cmp := New("ru")

	names := []string{"Томаты", "базилик", "Сыр", "Базилик соус"}
	sort.SliceStable(names, func(i, j int) bool {
		return cmp.Less(names[i], names[j])
	})

	want := []string{"базилик", "Базилик соус", "Сыр", "Томаты"}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("unexpected order: %v", names)
		}
	}
}

func TestCompareIgnoresCase(t *testing.T) {
	cmp := New("ru")

	if cmp.Compare("томаты", "ТОМАТЫ") != 0 {
		t.Error("comparison should ignore case")
	}
	// Byte order would put uppercase Latin before lowercase; collation must
	// not.
	if !cmp.Less("apple", "Banana") {
		t.Error("expected apple before Banana regardless of case")
	}
}

func TestFallbackLocale(t *testing.T) {
	for _, locale := range []string{"", "not-a-locale-!!"} {
		cmp := New(locale)
		if cmp.Compare("а", "б") >= 0 {
			t.Errorf("fallback comparator for %q is broken", locale)
		}
	}
}

func TestConcurrentCompare(t *testing.T) {
	cmp := New("ru")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if cmp.Compare("Базилик", "Томаты") >= 0 {
					t.Error("unexpected comparison result under concurrency")
					return
				}
			}
		}()
	}
	wg.Wait()
}
