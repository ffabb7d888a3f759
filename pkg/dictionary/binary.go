package dictionary

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

// snapshotVersion guards the binary layout; bump on incompatible change.
const snapshotVersion = 1

type snapshotEntry struct {
	Chinese string `msgpack:"c"`
	Pinyin  string `msgpack:"p"`
	Freq    uint32 `msgpack:"f"`
}

type snapshot struct {
	Version int             `msgpack:"v"`
	Count   int             `msgpack:"n"`
	Entries []snapshotEntry `msgpack:"e"`
}

// SaveBinary writes every entry as one msgpack snapshot.
func SaveBinary(w io.Writer, entries EntrySource) error {
	snap := snapshot{Version: snapshotVersion}
	entries(func(chinese, pinyin string, freq uint32) bool {
		snap.Entries = append(snap.Entries, snapshotEntry{
			Chinese: chinese,
			Pinyin:  pinyin,
			Freq:    freq,
		})
		return true
	})
	snap.Count = len(snap.Entries)

	if err := msgpack.NewEncoder(w).Encode(&snap); err != nil {
		return fmt.Errorf("dictionary: encode snapshot: %w", err)
	}
	log.Debugf("Saved binary snapshot with %d entries", snap.Count)
	return nil
}

// LoadBinary reads a msgpack snapshot and feeds every entry to add,
// returning the number ingested. Entries the callback rejects are skipped
// with a warning.
func LoadBinary(r io.Reader, add AddFunc) (int, error) {
	var snap snapshot
	if err := msgpack.NewDecoder(r).Decode(&snap); err != nil {
		return 0, fmt.Errorf("dictionary: decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return 0, fmt.Errorf("dictionary: snapshot version %d, want %d", snap.Version, snapshotVersion)
	}
	if snap.Count != len(snap.Entries) {
		log.Warnf("Snapshot header says %d entries, found %d", snap.Count, len(snap.Entries))
	}
	count := 0
	for _, e := range snap.Entries {
		if err := add(e.Chinese, e.Pinyin, e.Freq); err != nil {
			log.Warnf("Skipping snapshot entry %q %q: %v", e.Chinese, e.Pinyin, err)
			continue
		}
		count++
	}
	return count, nil
}
