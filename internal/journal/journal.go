// Package journal implements the append-only, hash-chained event log that
// is the source of truth for a gotn workspace's graph. Every mutation is
// appended as one canonical-JSON line before the in-memory graph snapshot
// is updated; recovery replays the journal from scratch to rebuild the
// snapshot, so the snapshot is always a pure function of the journal.
package journal

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/gotn-ai/gotn/internal/atomicfile"
	"github.com/gotn-ai/gotn/internal/canonical"
	"github.com/gotn-ai/gotn/internal/gotnerr"
	"github.com/gotn-ai/gotn/internal/model"
)

// Journal is an append-only, crash-safe log of model.JournalEntry lines
// backed by a single file on disk.
type Journal struct {
	path string
	mu   sync.Mutex

	sequence uint64
	lastHash string
}

// Open loads an existing journal file (if any) and returns a Journal ready
// to append further entries. It does not replay entries into a graph;
// callers use Replay for that.
func Open(path string) (*Journal, error) {
	j := &Journal{path: path}
	entries, _, err := j.readAll()
	if err != nil {
		return nil, err
	}
	if n := len(entries); n > 0 {
		j.sequence = entries[n-1].Sequence
		j.lastHash = entries[n-1].Hash
	}
	return j, nil
}

// Append canonicalizes data, computes the next hash in the chain, and
// durably appends one entry. It returns the written entry.
func (j *Journal) Append(kind model.JournalEntryKind, data interface{}) (*model.JournalEntry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	canonData, err := canonical.JSON(data)
	if err != nil {
		return nil, gotnerr.Wrap(gotnerr.KindInternal, "canonicalize journal payload", err)
	}

	entry := &model.JournalEntry{
		ID:       uuid.New().String(),
		Sequence: j.sequence + 1,
		Kind:     kind,
		Data:     json.RawMessage(canonData),
		PrevHash: j.lastHash,
	}
	entry.Timestamp = nowUTC()
	entry.Hash = j.computeHash(entry)

	// HTML escaping stays off so Data is written byte-for-byte as hashed;
	// otherwise <, > and & would be re-escaped and Replay would see a
	// hash mismatch.
	var line bytes.Buffer
	enc := json.NewEncoder(&line)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(entry); err != nil {
		return nil, gotnerr.Wrap(gotnerr.KindInternal, "marshal journal entry", err)
	}
	if err := atomicfile.AppendLine(j.path, line.Bytes()); err != nil {
		return nil, gotnerr.Wrap(gotnerr.KindInternal, "append journal entry", err)
	}

	j.sequence = entry.Sequence
	j.lastHash = entry.Hash
	return entry, nil
}

// computeHash chains {id, sequence, data-hash, prev_hash} the way
// kernel/event_log.go chains EventEnvelope fields.
func (j *Journal) computeHash(e *model.JournalEntry) string {
	dataHash := canonical.HashBytes(e.Data)
	chainInput := fmt.Sprintf("%s|%d|%s|%s", e.ID, e.Sequence, dataHash, e.PrevHash)
	return canonical.HashBytes([]byte(chainInput))
}

// ReplayResult summarizes a journal replay, in the style of
// replay/replay.go's ReplayResult.
type ReplayResult struct {
	TotalEntries   int
	ValidEntries   []*model.JournalEntry
	CorruptLines   int
	ChainBreaks    []string
	Summary        map[string]int
}

// Replay reads every line of the journal, validating the hash chain, and
// returns the valid entries in order. Corrupt or out-of-chain lines are
// skipped and counted rather than aborting the whole replay, so a
// partially-corrupt journal still recovers everything before the damage.
func (j *Journal) Replay() (*ReplayResult, error) {
	entries, corrupt, err := j.readAll()
	if err != nil {
		return nil, err
	}

	res := &ReplayResult{
		Summary: make(map[string]int),
	}
	res.CorruptLines = corrupt
	res.TotalEntries = len(entries) + corrupt

	prevHash := ""
	for _, e := range entries {
		if e.PrevHash != prevHash {
			res.ChainBreaks = append(res.ChainBreaks, e.ID)
			continue
		}
		wantHash := j.computeHash(e)
		if wantHash != e.Hash {
			res.ChainBreaks = append(res.ChainBreaks, e.ID)
			continue
		}
		res.ValidEntries = append(res.ValidEntries, e)
		res.Summary[string(e.Kind)]++
		prevHash = e.Hash
	}
	return res, nil
}

// readAll parses every line of the journal file, returning well-formed
// entries and a count of lines that failed to parse as JSON.
func (j *Journal) readAll() ([]*model.JournalEntry, int, error) {
	f, err := os.Open(j.path)
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, gotnerr.Wrap(gotnerr.KindInternal, "open journal", err)
	}
	defer f.Close()

	var entries []*model.JournalEntry
	corrupt := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e model.JournalEntry
		if err := json.Unmarshal(line, &e); err != nil {
			corrupt++
			continue
		}
		cp := e
		entries = append(entries, &cp)
	}
	if err := scanner.Err(); err != nil {
		return nil, corrupt, gotnerr.Wrap(gotnerr.KindCorruptJournal, "scan journal", err)
	}
	return entries, corrupt, nil
}

// LastSequence returns the sequence number of the most recently appended
// entry, or 0 if the journal is empty.
func (j *Journal) LastSequence() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.sequence
}
