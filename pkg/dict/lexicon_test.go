package dict

import (
	"testing"

	"github.com/nspt/chinese-pinyin-ime/pkg/trie"
)

func TestLexiconAddEntry(t *testing.T) {
	lex := NewLexicon()

	added, err := lex.AddEntry(NewEntry("输入", "shu'ru", 10))
	if err != nil || !added {
		t.Fatalf("AddEntry = (%v, %v)", added, err)
	}

	for _, s := range []string{"shu", "ru"} {
		if !lex.HasSyllable(s) {
			t.Errorf("syllable %q not registered", s)
		}
	}
	if !lex.Contains("sr") {
		t.Fatal("bucket sr missing")
	}

	// Duplicates are reported but change nothing.
	added, err = lex.AddEntry(NewEntry("输入", "shu'ru", 3))
	if err != nil || added {
		t.Errorf("duplicate AddEntry = (%v, %v), want (false, nil)", added, err)
	}
	d, err := lex.Get("sr")
	if err != nil || d.Len() != 1 {
		t.Fatalf("bucket sr: %v, %v", d, err)
	}

	if lex.EntryCount() != 1 || lex.BucketCount() != 1 {
		t.Errorf("counts = %d entries / %d buckets", lex.EntryCount(), lex.BucketCount())
	}
}

func TestLexiconEntryWithoutSyllables(t *testing.T) {
	lex := NewLexicon()
	if _, err := lex.AddEntry(NewEntry("空", "''", 1)); err == nil {
		t.Error("entry without syllables accepted")
	}
	if lex.BucketCount() != 0 {
		t.Error("empty entry created a bucket")
	}
}

func TestLexiconGet(t *testing.T) {
	lex := NewLexicon()
	if _, err := lex.Get("zz"); err != trie.ErrNotFound {
		t.Errorf("Get absent = %v, want ErrNotFound", err)
	}
	d, err := lex.GetOrCreate("zz")
	if err != nil || d == nil {
		t.Fatalf("GetOrCreate = %v, %v", d, err)
	}
	again, err := lex.GetOrCreate("zz")
	if err != nil || again != d {
		t.Error("GetOrCreate did not return the same bucket")
	}
}

func TestLexiconEntriesOrder(t *testing.T) {
	lex := NewLexicon()
	lex.AddEntry(NewEntry("中", "zhong", 1))
	lex.AddEntry(NewEntry("安", "an", 1))
	lex.AddEntry(NewEntry("输入", "shu'ru", 1))

	var got []string
	lex.Entries(func(e *Entry) bool {
		got = append(got, e.Chinese())
		return true
	})
	want := []string{"安", "输入", "中"} // acronyms a, sr, z
	if len(got) != len(want) {
		t.Fatalf("Entries yielded %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Entries order %v, want %v", got, want)
		}
	}
}

func TestLexiconSyllableAdmin(t *testing.T) {
	lex := NewLexicon()
	if err := lex.AddSyllable("xi"); err != nil {
		t.Fatal(err)
	}
	if err := lex.AddSyllable("xi"); err != nil {
		t.Errorf("re-adding a syllable failed: %v", err)
	}
	if !lex.HasSyllable("xi") {
		t.Error("syllable missing after add")
	}
	lex.RemoveSyllable("xi")
	if lex.HasSyllable("xi") {
		t.Error("syllable present after remove")
	}
}
