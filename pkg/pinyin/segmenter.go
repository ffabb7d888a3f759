// Package pinyin segments a stream of lowercase letters into pinyin
// syllable tokens. The segmenter owns a bounded letter buffer split into a
// fixed (committed) prefix and an editable remainder; every edit re-segments
// only the remainder against a syllable trie.
package pinyin

import (
	"errors"
	"fmt"

	"github.com/nspt/chinese-pinyin-ime/pkg/trie"
)

// Delim separates syllables inside the buffer. It is consumed during
// segmentation and never appears in a token's text.
const Delim = '\''

const (
	// DefaultCapacity bounds the letter buffer.
	DefaultCapacity = 128
	// DefaultForkLimit caps segmentation backtracking; past it the greedy
	// longest-match parse stands.
	DefaultForkLimit = 64
)

// ErrFixedRegion is returned by edits that touch the committed prefix.
var ErrFixedRegion = errors.New("pinyin: edit inside fixed region")

// SyllableSet is the read side of the syllable trie the segmenter consults.
type SyllableSet = trie.Trie[struct{}]

// Segmenter turns the letter buffer into syllable tokens. The editing
// methods (PushBack, Insert, Backspace) return the current unfixed token
// span.
type Segmenter struct {
	syllables *SyllableSet
	buf       []byte
	tokens    []Token

	fixedLetters int
	fixedTokens  int

	capacity  int
	forkLimit int
}

// NewSegmenter builds a segmenter over the given syllable set. Zero
// capacity or forkLimit select the defaults.
func NewSegmenter(syllables *SyllableSet, capacity, forkLimit int) *Segmenter {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if forkLimit <= 0 {
		forkLimit = DefaultForkLimit
	}
	return &Segmenter{
		syllables: syllables,
		buf:       make([]byte, 0, capacity),
		capacity:  capacity,
		forkLimit: forkLimit,
	}
}

// Letters returns the whole buffer contents.
func (s *Segmenter) Letters() string { return string(s.buf) }

// FixedLetters returns the committed prefix of the buffer.
func (s *Segmenter) FixedLetters() string { return string(s.buf[:s.fixedLetters]) }

// UnfixedLetters returns the editable remainder of the buffer.
func (s *Segmenter) UnfixedLetters() string { return string(s.buf[s.fixedLetters:]) }

// FixedLetterCount returns the number of committed letters.
func (s *Segmenter) FixedLetterCount() int { return s.fixedLetters }

// FixedTokenCount returns the number of committed tokens.
func (s *Segmenter) FixedTokenCount() int { return s.fixedTokens }

// Tokens returns the full token list.
func (s *Segmenter) Tokens() []Token { return s.tokens }

// FixedTokens returns the committed token span.
func (s *Segmenter) FixedTokens() []Token { return s.tokens[:s.fixedTokens] }

// UnfixedTokens returns the token span not yet committed.
func (s *Segmenter) UnfixedTokens() []Token { return s.tokens[s.fixedTokens:] }

// PushBack appends letters to the buffer. Exceeding capacity is a silent
// no-op so callers can feed raw keystrokes without branching.
func (s *Segmenter) PushBack(str string) []Token {
	if len(s.buf)+len(str) > s.capacity {
		return s.UnfixedTokens()
	}
	s.buf = append(s.buf, str...)
	return s.resegment()
}

// Insert places letters at pos. Inserting before the fixed boundary fails
// with ErrFixedRegion; exceeding capacity is a silent no-op.
func (s *Segmenter) Insert(pos int, str string) ([]Token, error) {
	if pos < s.fixedLetters {
		return s.UnfixedTokens(), ErrFixedRegion
	}
	if len(s.buf)+len(str) > s.capacity {
		return s.UnfixedTokens(), nil
	}
	if pos > len(s.buf) {
		pos = len(s.buf)
	}
	s.buf = append(s.buf[:pos], append([]byte(str), s.buf[pos:]...)...)
	return s.resegment(), nil
}

// Backspace removes up to count trailing letters, capped by the unfixed
// letter count. With nothing unfixed it is a no-op.
func (s *Segmenter) Backspace(count int) []Token {
	free := len(s.buf) - s.fixedLetters
	if count <= 0 || free == 0 {
		return s.UnfixedTokens()
	}
	if count > free {
		count = free
	}
	s.buf = s.buf[:len(s.buf)-count]
	return s.resegment()
}

// Clear resets the buffer, tokens and both fixed counters.
func (s *Segmenter) Clear() {
	s.buf = s.buf[:0]
	s.tokens = s.tokens[:0]
	s.fixedLetters = 0
	s.fixedTokens = 0
}

// FixFrontTokens commits the first count tokens; their letters become the
// fixed prefix of the buffer.
func (s *Segmenter) FixFrontTokens(count int) error {
	if count > len(s.tokens) {
		return fmt.Errorf("pinyin: fix %d tokens, have %d", count, len(s.tokens))
	}
	s.fixedTokens = count
	switch {
	case count == 0:
		s.fixedLetters = 0
	case count == len(s.tokens):
		s.fixedLetters = len(s.buf)
	default:
		s.fixedLetters = s.tokens[count].Offset
	}
	return nil
}

// FixCountFor resolves a token span to the argument FixFrontTokens needs to
// commit up through the span's last token. It returns 0 when the span is
// not a contiguous run of the current token list starting inside the
// unfixed region.
func (s *Segmenter) FixCountFor(span []Token) int {
	if len(span) == 0 {
		return 0
	}
	for p := s.fixedTokens; p+len(span) <= len(s.tokens); p++ {
		if !SameToken(s.tokens[p], span[0]) {
			continue
		}
		matched := true
		for i := 1; i < len(span); i++ {
			if !SameToken(s.tokens[p+i], span[i]) {
				matched = false
				break
			}
		}
		if matched {
			return p + len(span)
		}
	}
	return 0
}

// resegment rebuilds the unfixed tail of the token list. Candidate
// tokenizations are enumerated depth-first, branching wherever a syllable
// could either stand alone or keep extending; the winner replaces the tail.
func (s *Segmenter) resegment() []Token {
	s.tokens = s.tokens[:s.fixedTokens]
	if s.fixedLetters == len(s.buf) {
		return s.UnfixedTokens()
	}

	var candidates [][]Token
	pending := [][]Token{nil}
	forks := 0
	capped := false

	for len(pending) > 0 {
		list := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		start := s.fixedLetters
		if len(list) > 0 {
			start = list[len(list)-1].end()
		}
		cur := start
		end := len(s.buf)

		prev := Invalid
		for cur < end {
			if s.buf[cur] == Delim {
				if cur > start {
					list = append(list, Token{start, prev, string(s.buf[start:cur])})
				}
				cur++
				start = cur
				prev = Invalid
				continue
			}
			tok := string(s.buf[start : cur+1])
			switch s.syllables.Match(tok) {
			case trie.MatchMiss:
				if cur > start {
					list = append(list, Token{start, prev, string(s.buf[start:cur])})
					prev = Invalid
					start = cur
				} else {
					list = append(list, Token{start, Invalid, tok})
					prev = Invalid
					cur++
					start = cur
				}
			case trie.MatchPartial:
				prev = Initial
				cur++
				if cur == end {
					list = append(list, Token{start, Initial, string(s.buf[start:cur])})
					start = cur
				}
			case trie.MatchExtendible:
				if cur+1 < end && s.buf[cur+1] != Delim &&
					s.syllables.Match(string(s.buf[start:cur+2])) != trie.MatchMiss {
					if forks < s.forkLimit {
						fork := make([]Token, len(list), len(list)+1)
						copy(fork, list)
						pending = append(pending, append(fork, Token{start, Extendible, tok}))
						forks++
					} else {
						capped = true
					}
					prev = Extendible
					cur++
				} else {
					list = append(list, Token{start, Extendible, tok})
					prev = Invalid
					cur++
					start = cur
				}
			case trie.MatchComplete:
				list = append(list, Token{start, Complete, tok})
				prev = Invalid
				cur++
				start = cur
			}
		}
		candidates = append(candidates, list)
	}

	// candidates[0] is the greedy longest-match parse; once the fork cap
	// has been hit it stands without comparison.
	winner := candidates[0]
	for _, cand := range candidates[1:] {
		if capped {
			break
		}
		if tokenListBetter(winner, cand) {
			winner = cand
		}
	}
	s.tokens = append(s.tokens, winner...)
	return s.UnfixedTokens()
}

// tokenListBetter reports whether cand beats the current winner: fewer
// Invalid tokens first, then at the first index that differs, non-Invalid
// over Invalid and longer text over shorter.
func tokenListBetter(winner, cand []Token) bool {
	wInvalid := countInvalid(winner)
	cInvalid := countInvalid(cand)
	if cInvalid != wInvalid {
		return cInvalid < wInvalid
	}
	n := len(winner)
	if len(cand) < n {
		n = len(cand)
	}
	for i := 0; i < n; i++ {
		wInv := winner[i].Kind == Invalid
		cInv := cand[i].Kind == Invalid
		if wInv != cInv {
			return wInv
		}
		if len(cand[i].Text) != len(winner[i].Text) {
			return len(cand[i].Text) > len(winner[i].Text)
		}
	}
	return false
}

func countInvalid(tokens []Token) int {
	count := 0
	for _, t := range tokens {
		if t.Kind == Invalid {
			count++
		}
	}
	return count
}
