package pinyin

import (
	"errors"
	"strings"
	"testing"

	"github.com/nspt/chinese-pinyin-ime/pkg/trie"
)

func newSyllables(t *testing.T, syllables ...string) *SyllableSet {
	t.Helper()
	set := trie.New[struct{}]()
	for _, s := range syllables {
		if _, err := set.InsertIfAbsent(s, func() struct{} { return struct{}{} }); err != nil {
			t.Fatalf("register syllable %q: %v", s, err)
		}
	}
	return set
}

type wantToken struct {
	text string
	kind Kind
}

func checkTokens(t *testing.T, got []Token, want []wantToken) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d tokens %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i].Text != want[i].text || got[i].Kind != want[i].kind {
			t.Errorf("token %d = (%q, %v), want (%q, %v)",
				i, got[i].Text, got[i].Kind, want[i].text, want[i].kind)
		}
	}
}

func TestSegmentation(t *testing.T) {
	cases := []struct {
		name      string
		syllables []string
		input     string
		want      []wantToken
	}{
		{
			name:      "whole syllable beats split",
			syllables: []string{"xi", "xian", "an"},
			input:     "xian",
			want:      []wantToken{{"xian", Complete}},
		},
		{
			name:      "extendible when longer syllable exists",
			syllables: []string{"xi", "xian"},
			input:     "xi",
			want:      []wantToken{{"xi", Extendible}},
		},
		{
			name:      "delimiter splits and disappears",
			syllables: []string{"xi", "xian", "an"},
			input:     "xi'an",
			want:      []wantToken{{"xi", Extendible}, {"an", Complete}},
		},
		{
			name:      "delimiter on zhuang",
			syllables: []string{"zhu", "zhuang", "ang"},
			input:     "zhu'ang",
			want:      []wantToken{{"zhu", Extendible}, {"ang", Complete}},
		},
		{
			name:      "greedy zhuang stays whole",
			syllables: []string{"zhu", "zhuang", "ang"},
			input:     "zhuang",
			want:      []wantToken{{"zhuang", Complete}},
		},
		{
			name:      "initial prefix and invalid tail",
			syllables: []string{"shu", "ru", "fa"},
			input:     "srufai",
			want: []wantToken{
				{"s", Initial}, {"ru", Complete}, {"fa", Complete}, {"i", Invalid},
			},
		},
		{
			name:      "trailing partial is an initial",
			syllables: []string{"shu", "ru"},
			input:     "shur",
			want:      []wantToken{{"shu", Complete}, {"r", Initial}},
		},
		{
			name:      "lone invalid letter",
			syllables: []string{"shu"},
			input:     "v",
			want:      []wantToken{{"v", Invalid}},
		},
		{
			name:      "full phrase",
			syllables: []string{"shu", "ru", "fa"},
			input:     "shurufa",
			want:      []wantToken{{"shu", Complete}, {"ru", Complete}, {"fa", Complete}},
		},
		{
			name:      "split wins when greedy parse goes invalid",
			syllables: []string{"zhu", "zhuan", "ang"},
			input:     "zhuang",
			want:      []wantToken{{"zhu", Extendible}, {"ang", Complete}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seg := NewSegmenter(newSyllables(t, tc.syllables...), 0, 0)
			got := seg.PushBack(tc.input)
			checkTokens(t, got, tc.want)

			if !strings.ContainsRune(tc.input, Delim) {
				var joined strings.Builder
				for _, tok := range seg.Tokens() {
					joined.WriteString(tok.Text)
				}
				if joined.String() != tc.input {
					t.Errorf("token texts join to %q, want %q", joined.String(), tc.input)
				}
			}
		})
	}
}

func TestIncrementalEdits(t *testing.T) {
	seg := NewSegmenter(newSyllables(t, "shu", "ru", "fa"), 0, 0)

	seg.PushBack("shu")
	checkTokens(t, seg.Tokens(), []wantToken{{"shu", Complete}})

	seg.PushBack("ru")
	checkTokens(t, seg.Tokens(), []wantToken{{"shu", Complete}, {"ru", Complete}})

	seg.Backspace(2)
	checkTokens(t, seg.Tokens(), []wantToken{{"shu", Complete}})
	if seg.Letters() != "shu" {
		t.Errorf("Letters = %q, want shu", seg.Letters())
	}

	seg.Backspace(10)
	if seg.Letters() != "" || len(seg.Tokens()) != 0 {
		t.Errorf("over-long backspace left %q / %v", seg.Letters(), seg.Tokens())
	}

	// Backspace on empty input is a no-op.
	if got := seg.Backspace(1); len(got) != 0 {
		t.Errorf("backspace on empty returned %v", got)
	}
}

func TestCapacityOverflowIsNoop(t *testing.T) {
	seg := NewSegmenter(newSyllables(t, "shu"), 4, 0)

	seg.PushBack("shu")
	before := seg.Letters()

	if got := seg.PushBack("ru"); seg.Letters() != before {
		t.Errorf("overflowing PushBack changed buffer to %q, tokens %v", seg.Letters(), got)
	}
	if _, err := seg.Insert(3, "ru"); err != nil {
		t.Errorf("overflowing Insert returned error %v", err)
	}
	if seg.Letters() != before {
		t.Errorf("overflowing Insert changed buffer to %q", seg.Letters())
	}
}

func TestFixedRegion(t *testing.T) {
	seg := NewSegmenter(newSyllables(t, "shu", "ru", "fa"), 0, 0)
	seg.PushBack("shuru")

	if err := seg.FixFrontTokens(1); err != nil {
		t.Fatal(err)
	}
	if seg.FixedLetterCount() != 3 || seg.FixedTokenCount() != 1 {
		t.Fatalf("fixed %d letters / %d tokens, want 3 / 1",
			seg.FixedLetterCount(), seg.FixedTokenCount())
	}
	checkTokens(t, seg.UnfixedTokens(), []wantToken{{"ru", Complete}})

	if _, err := seg.Insert(1, "a"); !errors.Is(err, ErrFixedRegion) {
		t.Errorf("Insert into fixed region: got %v, want ErrFixedRegion", err)
	}

	// Edits only re-segment the unfixed tail; fixed tokens survive.
	seg.PushBack("fa")
	checkTokens(t, seg.FixedTokens(), []wantToken{{"shu", Complete}})
	checkTokens(t, seg.UnfixedTokens(), []wantToken{{"ru", Complete}, {"fa", Complete}})

	// Backspace is capped by the unfixed letter count.
	seg.Backspace(100)
	if seg.Letters() != "shu" {
		t.Errorf("Letters = %q, want shu", seg.Letters())
	}
	if len(seg.UnfixedTokens()) != 0 {
		t.Errorf("unfixed tokens remain: %v", seg.UnfixedTokens())
	}

	seg.Clear()
	if seg.Letters() != "" || seg.FixedLetterCount() != 0 || seg.FixedTokenCount() != 0 {
		t.Error("Clear did not reset fixed counters")
	}
}

func TestFixFrontTokensBounds(t *testing.T) {
	seg := NewSegmenter(newSyllables(t, "shu", "ru"), 0, 0)
	seg.PushBack("shuru")

	if err := seg.FixFrontTokens(3); err == nil {
		t.Error("FixFrontTokens past token count succeeded")
	}
	if err := seg.FixFrontTokens(2); err != nil {
		t.Fatal(err)
	}
	if seg.FixedLetterCount() != len("shuru") {
		t.Errorf("fixing all tokens fixed %d letters", seg.FixedLetterCount())
	}
	if err := seg.FixFrontTokens(0); err != nil {
		t.Fatal(err)
	}
	if seg.FixedLetterCount() != 0 {
		t.Errorf("unfixing left %d letters fixed", seg.FixedLetterCount())
	}
}

func TestFixCountFor(t *testing.T) {
	seg := NewSegmenter(newSyllables(t, "shu", "ru", "fa"), 0, 0)
	seg.PushBack("shurufa")
	tokens := seg.Tokens()

	if got := seg.FixCountFor(tokens[:2]); got != 2 {
		t.Errorf("FixCountFor(first two) = %d, want 2", got)
	}
	if got := seg.FixCountFor(tokens[1:2]); got != 2 {
		t.Errorf("FixCountFor(middle token) = %d, want 2", got)
	}
	if got := seg.FixCountFor(nil); got != 0 {
		t.Errorf("FixCountFor(empty) = %d, want 0", got)
	}
	foreign := []Token{{Offset: 0, Kind: Complete, Text: "zhu"}}
	if got := seg.FixCountFor(foreign); got != 0 {
		t.Errorf("FixCountFor(foreign span) = %d, want 0", got)
	}

	if err := seg.FixFrontTokens(2); err != nil {
		t.Fatal(err)
	}
	// Spans inside the fixed region no longer resolve.
	if got := seg.FixCountFor(tokens[:1]); got != 0 {
		t.Errorf("FixCountFor(fixed span) = %d, want 0", got)
	}
}

func TestSyllableSetChangesApplyOnNextEdit(t *testing.T) {
	set := newSyllables(t, "shu", "ru")
	seg := NewSegmenter(set, 0, 0)
	seg.PushBack("shuru")
	checkTokens(t, seg.Tokens(), []wantToken{{"shu", Complete}, {"ru", Complete}})

	set.Remove("ru")
	seg.PushBack("shu")
	checkTokens(t, seg.Tokens(), []wantToken{
		{"shu", Complete}, {"r", Invalid}, {"u", Invalid}, {"shu", Complete},
	})
}

func TestForkLimitFallsBackToGreedy(t *testing.T) {
	// Every prefix of "aaaaaaaa" is a syllable, so segmentation is maximally
	// ambiguous; with a single fork allowed the greedy whole-string parse
	// must still come out.
	set := trie.New[struct{}]()
	word := strings.Repeat("a", 8)
	for i := 1; i <= len(word); i++ {
		set.InsertIfAbsent(word[:i], func() struct{} { return struct{}{} })
	}
	seg := NewSegmenter(set, 0, 1)
	got := seg.PushBack(word)
	checkTokens(t, got, []wantToken{{word, Complete}})
}
