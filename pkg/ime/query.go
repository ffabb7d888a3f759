package ime

import (
	"github.com/nspt/chinese-pinyin-ime/pkg/dict"
	"github.com/nspt/chinese-pinyin-ime/pkg/pinyin"
)

// Query is one search attempt: a token span, the bucket its acronym
// resolved to, and the entries that matched. It borrows from the lexicon
// and the segmenter; any mutation of either invalidates it.
type Query struct {
	tokens []pinyin.Token
	dict   *dict.Dict
	items  []*dict.Entry
}

// newQuery resolves the span's acronym in the lexicon and runs the token
// match. An unknown acronym yields an empty query.
func newQuery(lex *dict.Lexicon, tokens []pinyin.Token) Query {
	q := Query{tokens: tokens}
	d, err := lex.Get(tokenAcronym(tokens))
	if err != nil {
		return q
	}
	q.dict = d
	q.items = d.Search(tokens)
	return q
}

// Tokens returns the span this query matched against.
func (q *Query) Tokens() []pinyin.Token { return q.tokens }

// Dict returns the resolved bucket, nil for an empty query.
func (q *Query) Dict() *dict.Dict { return q.dict }

// Items returns the matched entries in bucket order.
func (q *Query) Items() []*dict.Entry { return q.items }

// Len returns the number of matched entries.
func (q *Query) Len() int { return len(q.items) }

// Empty reports whether the query matched nothing.
func (q *Query) Empty() bool { return len(q.items) == 0 }

// At returns the matched entry at index i.
func (q *Query) At(i int) *dict.Entry { return q.items[i] }

// tokenAcronym joins the first letter of each non-empty token.
func tokenAcronym(tokens []pinyin.Token) string {
	acronym := make([]byte, 0, len(tokens))
	for _, t := range tokens {
		if t.Text != "" {
			acronym = append(acronym, t.Text[0])
		}
	}
	return string(acronym)
}
