// Package dict holds the lexicon: dictionary entries grouped into acronym
// buckets, indexed by a 26-way trie, ranked by a stable priority order.
package dict

import "strings"

// Delim separates syllables in an entry's pinyin.
const Delim = '\''

// Entry is one lexicon record: a Chinese word or phrase, its pinyin, and a
// use frequency. Only the frequency changes after construction; the owning
// bucket re-sorts when it does.
type Entry struct {
	chinese   string
	pinyin    string
	freq      uint32
	syllables []string
}

// NewEntry derives the syllable list from pinyin by splitting on the
// delimiter and dropping empty pieces.
func NewEntry(chinese, pinyin string, freq uint32) *Entry {
	e := &Entry{chinese: chinese, pinyin: pinyin, freq: freq}
	for _, s := range strings.Split(pinyin, string(Delim)) {
		if s != "" {
			e.syllables = append(e.syllables, s)
		}
	}
	return e
}

// Chinese returns the entry's Chinese text.
func (e *Entry) Chinese() string { return e.chinese }

// Pinyin returns the entry's pinyin with delimiters.
func (e *Entry) Pinyin() string { return e.pinyin }

// Freq returns the entry's frequency.
func (e *Entry) Freq() uint32 { return e.freq }

// Syllables returns the derived syllable list.
func (e *Entry) Syllables() []string { return e.syllables }

// Acronym returns the first letter of each syllable.
func (e *Entry) Acronym() string {
	var b strings.Builder
	b.Grow(len(e.syllables))
	for _, s := range e.syllables {
		b.WriteByte(s[0])
	}
	return b.String()
}

// AcronymOf computes the acronym of a raw pinyin string without building
// an Entry.
func AcronymOf(pinyin string) string {
	var b strings.Builder
	prev := byte(Delim)
	for i := 0; i < len(pinyin); i++ {
		if prev == Delim && pinyin[i] != Delim {
			b.WriteByte(pinyin[i])
		}
		prev = pinyin[i]
	}
	return b.String()
}
