// internal/words/words.go
//
// Word Pool: the immutable list of candidate words shared by every game session.
//
// Responsibilities:
//   - Load candidates from a file (WORDS_FILE) or fall back to the embedded default list.
//   - Normalize to uppercase A–Z, drop blanks/comments/non-alphabetic lines, de-duplicate.
//   - Hand each new session its own fresh shuffle; the pool itself is never mutated.
//
// Word selection is not meant to be unpredictable; math/rand is sufficient.

package words

import (
	"bufio"
	"errors"
	"math/rand/v2"
	"os"
	"strings"

	"github.com/samber/lo"

	"github.com/robalobadob/wordduel/assets"
)

// ErrEmpty is returned when a source yields no usable words.
var ErrEmpty = errors.New("words: word list is empty")

// Pool is read-only after construction and safe for concurrent use.
type Pool struct {
	words []string
}

// New builds a pool from raw lines. Order is preserved after normalization.
func New(list []string) *Pool {
	normalized := lo.FilterMap(list, func(line string, _ int) (string, bool) {
		w := strings.ToUpper(strings.TrimSpace(line))
		return w, w != "" && isAlpha(w)
	})
	return &Pool{words: lo.Uniq(normalized)}
}

// Load reads path when set, otherwise the embedded default list.
func Load(path string) (*Pool, error) {
	var (
		lines []string
		err   error
	)
	if path != "" {
		lines, err = readWordFile(path)
	} else {
		lines, err = assets.WordList()
	}
	if err != nil {
		return nil, err
	}
	p := New(lines)
	if p.Len() == 0 {
		return nil, ErrEmpty
	}
	return p, nil
}

// readWordFile loads one word per line, skipping blanks and # comments.
func readWordFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

// Len reports the number of distinct words.
func (p *Pool) Len() int { return len(p.words) }

// Words returns a copy of the pool in load order.
func (p *Pool) Words() []string {
	return append([]string(nil), p.words...)
}

// Shuffled returns a fresh random permutation of the pool.
func (p *Pool) Shuffled() []string {
	out := p.Words()
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// isAlpha reports whether s is all uppercase ASCII letters.
func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
