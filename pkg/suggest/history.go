// Package suggest keeps a bounded hot cache of phrases the user committed,
// keyed by their full pinyin. The 26-way lexicon trie cannot hold these
// keys (they contain the syllable delimiter), so a patricia trie backs the
// cache instead.
package suggest

import (
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Phrase is one remembered commit.
type Phrase struct {
	Pinyin  string
	Chinese string
	Hits    int
}

// History is an LRU-bounded phrase cache. Safe for concurrent readers and
// writers, unlike the core, so a server can query it while a session runs.
type History struct {
	trie        *patricia.Trie
	accessTime  map[string]int64
	accessCount int64
	maxPhrases  int
	mu          sync.RWMutex
}

// NewHistory creates a history bounded to maxPhrases entries.
func NewHistory(maxPhrases int) *History {
	if maxPhrases <= 0 {
		maxPhrases = 1024
	}
	return &History{
		trie:       patricia.NewTrie(),
		accessTime: make(map[string]int64, maxPhrases),
		maxPhrases: maxPhrases,
	}
}

// Record notes one committed phrase, bumping its hit count.
func (h *History) Record(pinyin, chinese string) {
	if pinyin == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	key := patricia.Prefix(pinyin)
	if item := h.trie.Get(key); item != nil {
		p := item.(Phrase)
		p.Hits++
		h.trie.Set(key, p)
		h.markAccessed(pinyin)
		return
	}
	if len(h.accessTime) >= h.maxPhrases {
		h.evictLRU()
	}
	h.trie.Insert(key, Phrase{Pinyin: pinyin, Chinese: chinese, Hits: 1})
	h.markAccessed(pinyin)
}

// Search returns up to limit phrases whose pinyin starts with prefix,
// most-hit first.
func (h *History) Search(prefix string, limit int) []Phrase {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var results []Phrase
	err := h.trie.VisitSubtree(patricia.Prefix(prefix), func(p patricia.Prefix, item patricia.Item) error {
		results = append(results, item.(Phrase))
		return nil
	})
	if err != nil {
		log.Errorf("Error searching phrase history: %v", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Hits > results[j].Hits
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}

// Len returns the number of cached phrases.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.accessTime)
}

// Stats reports cache counters.
func (h *History) Stats() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return map[string]int{
		"historyPhrases": len(h.accessTime),
		"maxPhrases":     h.maxPhrases,
		"historyHits":    int(h.accessCount),
	}
}

func (h *History) markAccessed(pinyin string) {
	h.accessCount++
	h.accessTime[pinyin] = h.accessCount
}

func (h *History) evictLRU() {
	var oldestKey string
	var oldestTime int64 = 9223372036854775807

	for key, accessTime := range h.accessTime {
		if accessTime < oldestTime {
			oldestTime = accessTime
			oldestKey = key
		}
	}
	if oldestKey != "" {
		h.trie.Delete(patricia.Prefix(oldestKey))
		delete(h.accessTime, oldestKey)
		log.Debugf("Evicted phrase %q from history", oldestKey)
	}
}
