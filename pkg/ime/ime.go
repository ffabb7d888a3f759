// Package ime drives a pinyin input session: it owns the segmenter and the
// candidate list, borrows a lexicon, tracks the choices a user committed,
// and learns from them when the session ends.
package ime

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nspt/chinese-pinyin-ime/internal/utils"
	"github.com/nspt/chinese-pinyin-ime/pkg/dict"
	"github.com/nspt/chinese-pinyin-ime/pkg/pinyin"
	"github.com/nspt/chinese-pinyin-ime/pkg/suggest"
)

// ErrInvalidChoice is returned when a selection index does not resolve to
// a candidate or its span cannot be committed.
var ErrInvalidChoice = errors.New("ime: choice does not resolve")

// Choice records one committed selection for end-of-session learning.
type Choice struct {
	tokens []pinyin.Token
	dict   *dict.Dict
	entry  *dict.Entry
}

// Entry returns the chosen dictionary entry.
func (c Choice) Entry() *dict.Entry { return c.entry }

// Tokens returns the token span the selection covered.
func (c Choice) Tokens() []pinyin.Token { return c.tokens }

// Options configure a session.
type Options struct {
	// Capacity bounds the letter buffer; zero selects 128.
	Capacity int
	// ForkLimit caps segmenter backtracking; zero selects 64.
	ForkLimit int
	// Promote maps a bucket index to the frequency delta applied on
	// commit; nil applies a constant 1.
	Promote dict.PromotePolicy
	// HistorySize bounds the committed-phrase cache; zero selects 1024.
	HistorySize int
}

// IME is a single input session. It is not safe for concurrent use; wrap
// the whole instance in a lock if several goroutines drive it.
type IME struct {
	lex     *dict.Lexicon
	seg     *pinyin.Segmenter
	cands   Candidates
	choices []Choice
	history *suggest.History
	promote dict.PromotePolicy
}

// New builds a session over lex. A nil lex gets a fresh empty lexicon.
func New(lex *dict.Lexicon, opts Options) *IME {
	if lex == nil {
		lex = dict.NewLexicon()
	}
	return &IME{
		lex:     lex,
		seg:     pinyin.NewSegmenter(lex.Syllables(), opts.Capacity, opts.ForkLimit),
		history: suggest.NewHistory(opts.HistorySize),
		promote: opts.Promote,
	}
}

// Lexicon returns the borrowed lexicon.
func (m *IME) Lexicon() *dict.Lexicon { return m.lex }

// History returns the committed-phrase cache.
func (m *IME) History() *suggest.History { return m.history }

// Candidates returns the current candidate list. It is only valid until
// the next state-changing call.
func (m *IME) Candidates() *Candidates { return &m.cands }

// Letters returns the session's full letter buffer.
func (m *IME) Letters() string { return m.seg.Letters() }

// UnfixedLetters returns the editable remainder of the buffer.
func (m *IME) UnfixedLetters() string { return m.seg.UnfixedLetters() }

// Tokens returns the current token list.
func (m *IME) Tokens() []pinyin.Token { return m.seg.Tokens() }

// FixedTokenCount returns how many front tokens are committed.
func (m *IME) FixedTokenCount() int { return m.seg.FixedTokenCount() }

// Choices returns the selections committed so far this session.
func (m *IME) Choices() []Choice { return m.choices }

// Search reconciles pinyinStr with the buffer: a pure extension is pushed,
// a pure truncation inside the unfixed region is backspaced, anything else
// restarts the session with the new string.
func (m *IME) Search(pinyinStr string) *Candidates {
	cur := m.seg.Letters()
	switch {
	case strings.HasPrefix(pinyinStr, cur):
		if len(pinyinStr) == len(cur) {
			return &m.cands
		}
		return m.PushBack(pinyinStr[len(cur):])
	case strings.HasPrefix(cur, pinyinStr) &&
		len(cur)-len(pinyinStr) <= len(cur)-m.seg.FixedLetterCount():
		return m.Backspace(len(cur) - len(pinyinStr))
	default:
		m.ResetSearch()
		return m.PushBack(pinyinStr)
	}
}

// PushBack appends letters and re-runs the search.
func (m *IME) PushBack(str string) *Candidates {
	return m.searchTokens(m.seg.PushBack(str))
}

// Backspace removes up to count trailing unfixed letters and re-runs the
// search.
func (m *IME) Backspace(count int) *Candidates {
	return m.searchTokens(m.seg.Backspace(count))
}

// Choose commits the candidate at flat index idx: its span's tokens become
// fixed, the selection is recorded, and the search re-runs over the
// remaining tokens. The session is unchanged on failure.
func (m *IME) Choose(idx int) (*Candidates, error) {
	q, qIdx := m.cands.resolve(idx)
	if q == nil {
		return &m.cands, ErrInvalidChoice
	}
	count := m.seg.FixCountFor(q.Tokens())
	if count == 0 {
		return &m.cands, ErrInvalidChoice
	}
	entry := q.At(qIdx)
	if err := m.seg.FixFrontTokens(count); err != nil {
		return &m.cands, ErrInvalidChoice
	}
	m.choices = append(m.choices, Choice{tokens: q.Tokens(), dict: q.Dict(), entry: entry})
	return m.searchTokens(m.seg.UnfixedTokens()), nil
}

// FinishSearch ends the session. With incFreq, every chosen entry's
// frequency is promoted; with addNewSentence and at least two choices, the
// concatenated phrase is inserted as a new entry with frequency 1. The
// session state is cleared either way.
func (m *IME) FinishSearch(incFreq, addNewSentence bool) {
	if len(m.choices) > 0 {
		if incFreq {
			byDict := make(map[*dict.Dict][]int)
			order := make([]*dict.Dict, 0, len(m.choices))
			for _, c := range m.choices {
				idx := c.dict.IndexOf(c.entry)
				if idx == dict.NoIndex {
					continue
				}
				if _, seen := byDict[c.dict]; !seen {
					order = append(order, c.dict)
				}
				byDict[c.dict] = append(byDict[c.dict], idx)
			}
			for _, d := range order {
				d.Promote(byDict[d], m.promote)
			}
		}
		chinese, pinyinStr := m.joinChoices()
		if addNewSentence && len(m.choices) >= 2 {
			m.lex.AddEntry(dict.NewEntry(chinese, pinyinStr, 1))
		}
		m.history.Record(pinyinStr, chinese)
	}
	m.ResetSearch()
}

// ResetSearch clears candidates, choices and the buffer.
func (m *IME) ResetSearch() {
	m.cands.clear()
	m.choices = m.choices[:0]
	m.seg.Clear()
}

// AddEntry registers an entry's syllables and inserts it into the lexicon.
// Duplicates are silently ignored. Any in-flight session is reset first,
// since bucket contents may shift under the candidate list.
func (m *IME) AddEntry(chinese, pinyinStr string, freq uint32) error {
	if !utils.IsPinyin(pinyinStr) {
		return fmt.Errorf("ime: pinyin %q has characters outside a-z and %q", pinyinStr, string(dict.Delim))
	}
	m.ResetSearch()
	_, err := m.lex.AddEntry(dict.NewEntry(chinese, pinyinStr, freq))
	return err
}

// Entries yields every entry in acronym-trie order, then bucket order.
func (m *IME) Entries(visit func(chinese, pinyin string, freq uint32) bool) {
	m.lex.Entries(func(e *dict.Entry) bool {
		return visit(e.Chinese(), e.Pinyin(), e.Freq())
	})
}

// AddSyllable registers a syllable with the lexicon's syllable set.
func (m *IME) AddSyllable(s string) error { return m.lex.AddSyllable(s) }

// RemoveSyllable drops a syllable from the set.
func (m *IME) RemoveSyllable(s string) { m.lex.RemoveSyllable(s) }

// SearchRegex matches pattern against every pinyin in the acronym's
// bucket. It does not touch session state.
func (m *IME) SearchRegex(acronym string, pattern *regexp.Regexp) []*dict.Entry {
	d, err := m.lex.Get(acronym)
	if err != nil {
		return nil
	}
	return d.SearchRegex(pattern)
}

// searchTokens enumerates every non-empty prefix of the unfixed tokens,
// keeps those whose acronym has a bucket, and builds one query per span,
// longest prefix first.
func (m *IME) searchTokens(tokens []pinyin.Token) *Candidates {
	var spans [][]pinyin.Token
	for i := 1; i <= len(tokens); i++ {
		span := tokens[:i]
		if m.lex.Contains(tokenAcronym(span)) {
			spans = append(spans, span)
		}
	}
	m.cands.clear()
	for i := len(spans) - 1; i >= 0; i-- {
		m.cands.push(newQuery(m.lex, spans[i]))
	}
	return &m.cands
}

// joinChoices concatenates the session's choices into one phrase.
func (m *IME) joinChoices() (chinese, pinyinStr string) {
	var cb, pb strings.Builder
	for i, c := range m.choices {
		cb.WriteString(c.entry.Chinese())
		if i > 0 {
			pb.WriteByte(dict.Delim)
		}
		pb.WriteString(c.entry.Pinyin())
	}
	return cb.String(), pb.String()
}
