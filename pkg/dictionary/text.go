// Package dictionary loads and saves lexicon entries. The core has no
// opinion on storage; this package implements the reference text line
// format and a binary snapshot, feeding parsed entries to whatever
// ingestion callback the caller supplies.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nspt/chinese-pinyin-ime/internal/utils"
)

// AddFunc ingests one parsed entry, typically IME.AddEntry.
type AddFunc func(chinese, pinyin string, freq uint32) error

// EntrySource walks every entry to persist, typically IME.Entries.
type EntrySource func(visit func(chinese, pinyin string, freq uint32) bool)

const bom = "\xef\xbb\xbf"

// ParseLine splits one dictionary line: `<chinese> <freq> <pinyin>`
// separated by runs of space or tab, tolerating a trailing '\r'.
func ParseLine(line string) (chinese, pinyin string, freq uint32, err error) {
	line = strings.TrimSuffix(line, "\r")
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t'
	})
	if len(fields) != 3 {
		return "", "", 0, fmt.Errorf("dictionary: want 3 fields, got %d", len(fields))
	}
	chinese = fields[0]
	f, err := strconv.ParseUint(fields[1], 10, 32)
	if err != nil {
		return "", "", 0, fmt.Errorf("dictionary: bad frequency %q: %w", fields[1], err)
	}
	pinyin = fields[2]
	if !utils.IsPinyin(pinyin) {
		return "", "", 0, fmt.Errorf("dictionary: bad pinyin %q", pinyin)
	}
	return chinese, pinyin, uint32(f), nil
}

// LoadText reads one entry per line, skipping malformed lines with a
// warning, and returns the number of entries ingested. A leading UTF-8
// BOM is tolerated.
func LoadText(r io.Reader, add AddFunc) (int, error) {
	scanner := bufio.NewScanner(r)
	count := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if lineNo == 1 {
			line = strings.TrimPrefix(line, bom)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		chinese, pinyin, freq, err := ParseLine(line)
		if err != nil {
			log.Warnf("Skipping line %d: %v", lineNo, err)
			continue
		}
		if err := add(chinese, pinyin, freq); err != nil {
			log.Warnf("Skipping line %d: %v", lineNo, err)
			continue
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("dictionary: read failed: %w", err)
	}
	return count, nil
}

// SaveText writes one `<chinese> <freq> <pinyin>` line per entry.
func SaveText(w io.Writer, entries EntrySource) error {
	bw := bufio.NewWriter(w)
	var writeErr error
	entries(func(chinese, pinyin string, freq uint32) bool {
		if _, err := fmt.Fprintf(bw, "%s %d %s\n", chinese, freq, pinyin); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	if writeErr != nil {
		return fmt.Errorf("dictionary: write failed: %w", writeErr)
	}
	return bw.Flush()
}
