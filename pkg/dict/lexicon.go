package dict

import (
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/nspt/chinese-pinyin-ime/internal/utils"
	"github.com/nspt/chinese-pinyin-ime/pkg/trie"
)

// Lexicon owns every bucket through an acronym-keyed trie, plus the
// syllable set the segmenter consults. Keeping the syllable trie here
// rather than in process-wide state lets independent lexicons coexist.
type Lexicon struct {
	dicts     *trie.Trie[Dict]
	syllables *trie.Trie[struct{}]
}

// NewLexicon returns an empty lexicon.
func NewLexicon() *Lexicon {
	return &Lexicon{
		dicts:     trie.New[Dict](),
		syllables: trie.New[struct{}](),
	}
}

// Syllables exposes the syllable trie for the segmenter.
func (l *Lexicon) Syllables() *trie.Trie[struct{}] { return l.syllables }

// AddSyllable registers a syllable. The segmenter reflects it on the next
// re-segmentation.
func (l *Lexicon) AddSyllable(s string) error {
	if s != "" && !utils.IsASCIILower(s) {
		return fmt.Errorf("lexicon: syllable %q has characters outside a-z", s)
	}
	_, err := l.syllables.InsertIfAbsent(s, func() struct{} { return struct{}{} })
	return err
}

// RemoveSyllable drops a syllable from the set.
func (l *Lexicon) RemoveSyllable(s string) {
	l.syllables.Remove(s)
}

// HasSyllable reports whether s is a registered syllable.
func (l *Lexicon) HasSyllable(s string) bool {
	return l.syllables.Contains(s)
}

// GetOrCreate returns the bucket for acronym, creating an empty one when
// absent.
func (l *Lexicon) GetOrCreate(acronym string) (*Dict, error) {
	return l.dicts.InsertIfAbsent(acronym, func() Dict { return Dict{} })
}

// Get returns the bucket for acronym, or trie.ErrNotFound.
func (l *Lexicon) Get(acronym string) (*Dict, error) {
	return l.dicts.Get(acronym)
}

// Contains reports whether a bucket exists for acronym.
func (l *Lexicon) Contains(acronym string) bool {
	return l.dicts.Contains(acronym)
}

// AddEntry registers the entry's syllables and inserts the entry into its
// acronym bucket. It reports false for duplicates. When the bucket rejects
// the entry, syllables registered by this call are rolled back so a failed
// load leaves the set unchanged.
func (l *Lexicon) AddEntry(entry *Entry) (bool, error) {
	if len(entry.Syllables()) == 0 {
		return false, trie.ErrEmptyKey
	}
	var registered []string
	rollback := func() {
		for _, s := range registered {
			l.syllables.Remove(s)
		}
	}
	for _, s := range entry.Syllables() {
		if l.syllables.Contains(s) {
			continue
		}
		if err := l.AddSyllable(s); err != nil {
			rollback()
			return false, err
		}
		registered = append(registered, s)
	}
	d, err := l.GetOrCreate(entry.Acronym())
	if err == nil {
		var added bool
		added, err = d.Add(entry)
		if err == nil {
			return added, nil
		}
	}
	rollback()
	log.Warnf("lexicon: rejected entry %q %q: %v", entry.Chinese(), entry.Pinyin(), err)
	return false, err
}

// Walk visits every bucket in acronym order.
func (l *Lexicon) Walk(visit func(acronym string, d *Dict) bool) {
	l.dicts.Walk(func(key string, d *Dict) bool {
		return visit(key, d)
	})
}

// Entries visits every entry, buckets in acronym order and entries in
// bucket order. Callers use this to persist the lexicon in any format.
func (l *Lexicon) Entries(visit func(e *Entry) bool) {
	l.Walk(func(_ string, d *Dict) bool {
		for _, e := range d.Entries() {
			if !visit(e) {
				return false
			}
		}
		return true
	})
}

// EntryCount returns the total number of entries across buckets.
func (l *Lexicon) EntryCount() int {
	count := 0
	l.Walk(func(_ string, d *Dict) bool {
		count += d.Len()
		return true
	})
	return count
}

// BucketCount returns the number of acronym buckets, including empty ones
// created through GetOrCreate.
func (l *Lexicon) BucketCount() int {
	return l.dicts.Len()
}
