package dict

import (
	"errors"
	"regexp"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/nspt/chinese-pinyin-ime/pkg/pinyin"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func TestEntryDerivation(t *testing.T) {
	cases := []struct {
		pinyin    string
		syllables []string
		acronym   string
	}{
		{"shu'ru'fa", []string{"shu", "ru", "fa"}, "srf"},
		{"zhong", []string{"zhong"}, "z"},
		{"''xi''an'", []string{"xi", "an"}, "xa"},
	}
	for _, tc := range cases {
		e := NewEntry("词", tc.pinyin, 1)
		if len(e.Syllables()) != len(tc.syllables) {
			t.Fatalf("%q: syllables %v, want %v", tc.pinyin, e.Syllables(), tc.syllables)
		}
		for i, s := range tc.syllables {
			if e.Syllables()[i] != s {
				t.Errorf("%q: syllable %d = %q, want %q", tc.pinyin, i, e.Syllables()[i], s)
			}
		}
		if e.Acronym() != tc.acronym {
			t.Errorf("%q: acronym %q, want %q", tc.pinyin, e.Acronym(), tc.acronym)
		}
		if AcronymOf(tc.pinyin) != tc.acronym {
			t.Errorf("AcronymOf(%q) = %q, want %q", tc.pinyin, AcronymOf(tc.pinyin), tc.acronym)
		}
	}
}

func TestAddKeepsOrder(t *testing.T) {
	var d Dict

	// Same acronym "f"; order is shorter syllable first, then
	// lexicographic, then higher frequency.
	entries := []*Entry{
		NewEntry("方", "fang", 3),
		NewEntry("发", "fa", 1),
		NewEntry("法", "fa", 9),
		NewEntry("分", "fen", 5),
	}
	for _, e := range entries {
		added, err := d.Add(e)
		if err != nil || !added {
			t.Fatalf("Add(%s): %v %v", e.Chinese(), added, err)
		}
	}

	want := []string{"法", "发", "分", "方"}
	for i, chinese := range want {
		if d.At(i).Chinese() != chinese {
			t.Fatalf("order %v, want %v", chineseOf(&d), want)
		}
	}
	if d.Acronym() != "f" {
		t.Errorf("Acronym = %q, want f", d.Acronym())
	}
}

func chineseOf(d *Dict) []string {
	out := make([]string, 0, d.Len())
	for _, e := range d.Entries() {
		out = append(out, e.Chinese())
	}
	return out
}

func TestAddRejections(t *testing.T) {
	var d Dict
	if _, err := d.Add(NewEntry("输入", "shu'ru", 10)); err != nil {
		t.Fatal(err)
	}

	added, err := d.Add(NewEntry("输入", "shu'ru", 99))
	if err != nil || added {
		t.Errorf("duplicate Add = (%v, %v), want (false, nil)", added, err)
	}
	if d.Len() != 1 || d.At(0).Freq() != 10 {
		t.Errorf("duplicate Add mutated bucket: len %d freq %d", d.Len(), d.At(0).Freq())
	}

	if _, err := d.Add(NewEntry("法", "fa", 1)); !errors.Is(err, ErrAcronymMismatch) {
		t.Errorf("mismatched Add: got %v, want ErrAcronymMismatch", err)
	}
}

func tok(text string, kind pinyin.Kind) pinyin.Token {
	return pinyin.Token{Kind: kind, Text: text}
}

func TestSearchTokens(t *testing.T) {
	var d Dict
	d.Add(NewEntry("输入", "shu'ru", 10))
	d.Add(NewEntry("水乳", "shui'ru", 2))
	d.Add(NewEntry("山人", "shan'ren", 4))

	cases := []struct {
		name   string
		tokens []pinyin.Token
		want   []string
	}{
		{
			name:   "complete tokens match exactly",
			tokens: []pinyin.Token{tok("shu", pinyin.Complete), tok("ru", pinyin.Complete)},
			want:   []string{"输入"},
		},
		{
			name:   "initial token prefixes every syllable",
			tokens: []pinyin.Token{tok("sh", pinyin.Initial), tok("r", pinyin.Initial)},
			want:   []string{"输入", "山人", "水乳"},
		},
		{
			name:   "full match beats partial",
			tokens: []pinyin.Token{tok("shu", pinyin.Extendible), tok("ru", pinyin.Complete)},
			want:   []string{"输入"},
		},
		{
			name:   "wrong arity matches nothing",
			tokens: []pinyin.Token{tok("shu", pinyin.Complete)},
			want:   nil,
		},
		{
			name:   "invalid token needs equality",
			tokens: []pinyin.Token{tok("shu", pinyin.Invalid), tok("r", pinyin.Invalid)},
			want:   nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := d.Search(tc.tokens)
			if len(got) != len(tc.want) {
				t.Fatalf("got %d results, want %v", len(got), tc.want)
			}
			for i, chinese := range tc.want {
				if got[i].Chinese() != chinese {
					t.Errorf("result %d = %s, want %s", i, got[i].Chinese(), chinese)
				}
			}
		})
	}
}

func TestSearchPinyinAndRegex(t *testing.T) {
	var d Dict
	d.Add(NewEntry("输入", "shu'ru", 10))
	d.Add(NewEntry("树人", "shu'ren", 2))

	got := d.SearchPinyin("shu'ru")
	if len(got) != 1 || got[0].Chinese() != "输入" {
		t.Errorf("SearchPinyin = %v", got)
	}
	if got := d.SearchPinyin("shu"); got != nil {
		t.Errorf("SearchPinyin partial matched %v", got)
	}

	re := regexp.MustCompile(`shu'.*`)
	if got := d.SearchRegex(re); len(got) != 2 {
		t.Errorf("SearchRegex matched %d entries, want 2", len(got))
	}
	// The whole pinyin must match, not a substring.
	re = regexp.MustCompile(`shu`)
	if got := d.SearchRegex(re); got != nil {
		t.Errorf("substring regex matched %v", got)
	}
}

func TestPromote(t *testing.T) {
	var d Dict
	d.Add(NewEntry("发", "fa", 5))
	d.Add(NewEntry("法", "fa", 4))

	// 发 sorts first on frequency; promoting 法 twice flips the order.
	if d.At(0).Chinese() != "发" {
		t.Fatalf("precondition failed: %v", chineseOf(&d))
	}
	idx := d.IndexOf(d.At(1))
	d.Promote([]int{idx}, nil)
	d.Promote([]int{d.IndexOf(d.SearchPinyin("fa")[1])}, nil)

	if d.At(0).Chinese() != "法" || d.At(0).Freq() != 6 {
		t.Errorf("after promote: %v, top freq %d", chineseOf(&d), d.At(0).Freq())
	}

	// Out-of-range indices are silently ignored.
	d.Promote([]int{-1, 99}, nil)
	if d.At(0).Freq() != 6 {
		t.Error("out-of-range promote changed frequencies")
	}

	// A policy controls the delta.
	d.Promote([]int{0}, func(int) uint32 { return 10 })
	if d.At(0).Freq() != 16 {
		t.Errorf("policy promote: freq %d, want 16", d.At(0).Freq())
	}
}

func TestIndexOf(t *testing.T) {
	var d Dict
	d.Add(NewEntry("发", "fa", 5))
	outsider := NewEntry("法", "fa", 4)

	if got := d.IndexOf(d.At(0)); got != 0 {
		t.Errorf("IndexOf(member) = %d, want 0", got)
	}
	if got := d.IndexOf(outsider); got != NoIndex {
		t.Errorf("IndexOf(outsider) = %d, want NoIndex", got)
	}
}
