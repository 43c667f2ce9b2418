package catalog

import (
	"bufio"
	"fmt"
	"io"
)

// SaveSnapshot writes every resource of cat as archive records, workspaces
// first, then stores, then layers. Identifiers are preserved.
func SaveSnapshot(w io.Writer, cat Catalog) error {
	p := NewPersister(cat)
	bw := bufio.NewWriter(w)

	var infos []Info
	for _, ws := range cat.Workspaces() {
		infos = append(infos, ws)
	}
	for _, st := range cat.Stores() {
		infos = append(infos, st)
	}
	for _, l := range cat.Layers() {
		infos = append(infos, l)
	}

	for _, info := range infos {
		line, err := p.Marshal(info)
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", info, err)
		}
		if _, err := bw.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadSnapshot reads archive records into a new in-memory catalog. Records are
// added in file order, so referenced resources must precede the resources using them.
func LoadSnapshot(r io.Reader) (*MemoryCatalog, error) {
	cat := NewMemoryCatalog()
	p := NewPersister(cat)

	err := ReadRecords(r, func(lineNo int, line []byte) error {
		info, err := p.Unmarshal(line)
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if err := cat.Add(info); err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cat, nil
}

// ReadRecords calls fn for every non-empty line of r.
func ReadRecords(r io.Reader, fn func(lineNo int, line []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		if err := fn(lineNo, append([]byte(nil), line...)); err != nil {
			return err
		}
	}
	return sc.Err()
}
