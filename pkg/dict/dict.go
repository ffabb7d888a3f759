package dict

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/nspt/chinese-pinyin-ime/pkg/pinyin"
)

// ErrAcronymMismatch is returned when an entry's acronym does not match
// the bucket's.
var ErrAcronymMismatch = errors.New("dict: entry acronym does not match bucket")

// NoIndex is the sentinel IndexOf returns for entries outside the bucket.
const NoIndex = -1

// PromotePolicy maps an entry index to the frequency delta Promote applies.
// A nil policy means a constant 1.
type PromotePolicy func(idx int) uint32

// Dict is an ordered bucket of entries sharing one acronym. The acronym is
// adopted from the first entry added and fixed afterwards.
type Dict struct {
	acronym string
	items   []*Entry
}

// Acronym returns the bucket's acronym, empty until the first Add.
func (d *Dict) Acronym() string { return d.acronym }

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.items) }

// At returns the entry at index i.
func (d *Dict) At(i int) *Entry { return d.items[i] }

// Entries returns the bucket's entries in priority order. The slice is
// shared; callers must not modify it.
func (d *Dict) Entries() []*Entry { return d.items }

// Add inserts entry at its ordered position. It reports false when an
// entry with the same chinese and pinyin already exists, and fails when
// the acronym does not match the bucket's.
func (d *Dict) Add(entry *Entry) (bool, error) {
	if len(d.items) == 0 {
		d.acronym = entry.Acronym()
		d.items = append(d.items, entry)
		return true, nil
	}
	if entry.Acronym() != d.acronym {
		return false, ErrAcronymMismatch
	}
	insertAt := len(d.items)
	for i, item := range d.items {
		if item.chinese == entry.chinese && item.pinyin == entry.pinyin {
			return false, nil
		}
		if insertAt == len(d.items) && !entryLess(item, entry) {
			insertAt = i
		}
	}
	d.items = append(d.items, nil)
	copy(d.items[insertAt+1:], d.items[insertAt:])
	d.items[insertAt] = entry
	return true, nil
}

// matchClass is the per-entry outcome of a token match.
type matchClass int

const (
	matchFail matchClass = iota
	matchPartial
	matchFull
)

// Search matches the token span against every entry. Initial and
// Extendible tokens match any syllable they prefix; Complete and Invalid
// tokens must equal the syllable. Full matches win over partial ones.
func (d *Dict) Search(tokens []pinyin.Token) []*Entry {
	if len(d.items) == 0 || len(tokens) != len(d.acronym) {
		return nil
	}
	var full, partial []*Entry
	for _, item := range d.items {
		class := matchFull
		for i := 0; class != matchFail && i < len(tokens); i++ {
			syllable := item.syllables[i]
			switch tokens[i].Kind {
			case pinyin.Initial, pinyin.Extendible:
				if !strings.HasPrefix(syllable, tokens[i].Text) {
					class = matchFail
				} else if class == matchFull && len(syllable) != len(tokens[i].Text) {
					class = matchPartial
				}
			default:
				if syllable != tokens[i].Text {
					class = matchFail
				}
			}
		}
		switch class {
		case matchFull:
			full = append(full, item)
		case matchPartial:
			partial = append(partial, item)
		}
	}
	if len(full) > 0 {
		return full
	}
	return partial
}

// SearchPinyin returns the entries whose pinyin equals the argument.
func (d *Dict) SearchPinyin(pinyinStr string) []*Entry {
	var results []*Entry
	for _, item := range d.items {
		if item.pinyin == pinyinStr {
			results = append(results, item)
		}
	}
	return results
}

// SearchRegex returns the entries whose whole pinyin matches the pattern.
func (d *Dict) SearchRegex(pattern *regexp.Regexp) []*Entry {
	whole := regexp.MustCompile(`^(?:` + pattern.String() + `)$`)
	var results []*Entry
	for _, item := range d.items {
		if whole.MatchString(item.pinyin) {
			results = append(results, item)
		}
	}
	return results
}

// Promote raises the frequency of the entries at the given indices by the
// policy's delta and re-sorts. Out-of-range indices are silently ignored;
// previously obtained indices are invalid after the call.
func (d *Dict) Promote(indices []int, policy PromotePolicy) {
	for _, idx := range indices {
		if idx < 0 || idx >= len(d.items) {
			continue
		}
		delta := uint32(1)
		if policy != nil {
			delta = policy(idx)
		}
		d.items[idx].freq += delta
	}
	d.sort()
}

// IndexOf returns the entry's current index, or NoIndex if the entry does
// not belong to this bucket.
func (d *Dict) IndexOf(entry *Entry) int {
	for i, item := range d.items {
		if item == entry {
			return i
		}
	}
	return NoIndex
}

func (d *Dict) sort() {
	sort.SliceStable(d.items, func(i, j int) bool {
		return entryLess(d.items[i], d.items[j])
	})
}

// entryLess is the bucket's total order: fewer syllables first, then
// element-wise shorter syllable, then lexicographically smaller syllable,
// then higher frequency.
func entryLess(l, r *Entry) bool {
	if len(l.syllables) != len(r.syllables) {
		return len(l.syllables) < len(r.syllables)
	}
	for i := range l.syllables {
		ls, rs := l.syllables[i], r.syllables[i]
		if ls == rs {
			continue
		}
		if len(ls) != len(rs) {
			return len(ls) < len(rs)
		}
		return ls < rs
	}
	return l.freq > r.freq
}
