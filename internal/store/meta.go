package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// WriteMeta writes rows to meta.jsonl, one JSON object per line in the
// order given (callers must pass rows in ascending id order), via
// tmp-file + rename.
func WriteMeta(path string, rows []MetaRow) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create %s: %w", tmp, err)
	}

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			_ = f.Close()
			_ = os.Remove(tmp)
			return fmt.Errorf("encode meta row %d: %w", row.ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// ReadMeta parses meta.jsonl into an ordered slice of rows.
func ReadMeta(path string) ([]MetaRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows []MetaRow
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var row MetaRow
		if err := json.Unmarshal(line, &row); err != nil {
			return nil, fmt.Errorf("parse meta row: %w", err)
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// MetaByID indexes rows by id for query-time joins.
func MetaByID(rows []MetaRow) map[uint64]MetaRow {
	out := make(map[uint64]MetaRow, len(rows))
	for _, r := range rows {
		out[r.ID] = r
	}
	return out
}
