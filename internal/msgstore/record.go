package msgstore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Record is one persisted message.
type Record struct {
	ID       uint64
	TypeTag  string
	Category string
	Data     []byte
}

// Marshal renders the on-disk form of r.
func (r Record) Marshal() []byte {
	var buf bytes.Buffer
	buf.Grow(len(r.Data) + 32)
	fmt.Fprintf(&buf, "%d\n%s\n%s\n", r.ID, r.TypeTag, r.Category)
	buf.Write(r.Data)
	return buf.Bytes()
}

// ParseRecord decodes the on-disk form produced by Marshal.
func ParseRecord(r io.Reader) (Record, error) {
	br := bufio.NewReader(r)
	fields := make([]string, 3)
	for i := range fields {
		line, err := br.ReadString('\n')
		if err != nil {
			return Record{}, fmt.Errorf("read record header: %w", err)
		}
		fields[i] = line[:len(line)-1]
	}
	id, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parse record id: %w", err)
	}
	data, err := io.ReadAll(br)
	if err != nil {
		return Record{}, fmt.Errorf("read record data: %w", err)
	}
	return Record{ID: id, TypeTag: fields[1], Category: fields[2], Data: data}, nil
}

// ReadRecord loads the record file at path.
func ReadRecord(path string) (Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, fmt.Errorf("record %s: %w", path, err)
		}
		return Record{}, fmt.Errorf("open record: %w", err)
	}
	defer f.Close()
	return ParseRecord(f)
}
