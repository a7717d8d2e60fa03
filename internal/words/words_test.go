package words

import (
	"os"
	"path/filepath"
	"slices"
	"sort"
	"testing"
)

func TestNewNormalizes(t *testing.T) {
	p := New([]string{" dog ", "Cat", "", "dog", "x-ray", "bird2", "owl"})
	want := []string{"DOG", "CAT", "OWL"}
	if got := p.Words(); !slices.Equal(got, want) {
		t.Fatalf("Words() = %v, want %v", got, want)
	}
	if p.Len() != 3 {
		t.Errorf("Len() = %d, want 3", p.Len())
	}
}

func TestWordsReturnsCopy(t *testing.T) {
	p := New([]string{"dog", "cat"})
	w := p.Words()
	w[0] = "HACK"
	if p.Words()[0] != "DOG" {
		t.Fatal("pool mutated through Words() result")
	}
}

func TestShuffledIsPermutation(t *testing.T) {
	p := New([]string{"alpha", "bravo", "charlie", "delta", "echo"})
	got := p.Shuffled()
	sort.Strings(got)
	want := p.Words()
	sort.Strings(want)
	if !slices.Equal(got, want) {
		t.Fatalf("Shuffled() = %v, not a permutation of %v", got, want)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("# comment\nsun\n\nmoon\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := p.Words(); !slices.Equal(got, []string{"SUN", "MOON"}) {
		t.Errorf("Words() = %v", got)
	}
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("# nothing\n123\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err != ErrEmpty {
		t.Fatalf("Load err = %v, want ErrEmpty", err)
	}
}

func TestLoadEmbeddedDefault(t *testing.T) {
	p, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Len() == 0 {
		t.Fatal("embedded list is empty")
	}
	for _, w := range p.Words() {
		if !isAlpha(w) {
			t.Errorf("word %q is not normalized", w)
		}
	}
}
