package pack

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Writer builds a JPK archive. Entries are written as they are added;
// the entry table and final header are emitted by Close.
type Writer struct {
	file    *os.File
	entries []Entry
	offset  uint32
}

// NewWriter creates a JPK archive at path, truncating any existing file.
func NewWriter(path string) (*Writer, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating pack: %w", err)
	}

	// Placeholder header, rewritten on Close.
	if err := binary.Write(file, binary.LittleEndian, Header{}); err != nil {
		file.Close()
		return nil, err
	}

	return &Writer{file: file, offset: 16}, nil
}

// Add stores one entry. Data is zlib-compressed unless compression
// does not shrink it, in which case it is stored raw.
func (w *Writer) Add(name string, data []byte) error {
	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	blob := compressed.Bytes()
	var flags uint8 = flagCompressed
	if len(blob) >= len(data) {
		blob = data
		flags = 0
	}

	if _, err := w.file.Write(blob); err != nil {
		return fmt.Errorf("writing entry %s: %w", name, err)
	}

	w.entries = append(w.entries, Entry{
		Name:             NormalizePath(name),
		Offset:           w.offset,
		CompressedSize:   uint32(len(blob)),
		UncompressedSize: uint32(len(data)),
		Flags:            flags,
	})
	w.offset += uint32(len(blob))
	return nil
}

// Close writes the entry table and header, then closes the file.
func (w *Writer) Close() error {
	tableOffset := w.offset

	var table bytes.Buffer
	for _, e := range w.entries {
		table.WriteString(e.Name)
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, e.Offset)
		binary.Write(&table, binary.LittleEndian, e.CompressedSize)
		binary.Write(&table, binary.LittleEndian, e.UncompressedSize)
		table.WriteByte(e.Flags)
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(table.Bytes()); err != nil {
		w.file.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		w.file.Close()
		return err
	}

	if err := binary.Write(w.file, binary.LittleEndian, uint32(compressed.Len())); err != nil {
		w.file.Close()
		return err
	}
	if err := binary.Write(w.file, binary.LittleEndian, uint32(table.Len())); err != nil {
		w.file.Close()
		return err
	}
	if _, err := w.file.Write(compressed.Bytes()); err != nil {
		w.file.Close()
		return err
	}

	header := Header{
		Version:     jpkVersion,
		FileCount:   uint32(len(w.entries)),
		TableOffset: tableOffset,
	}
	copy(header.Magic[:], jpkMagic)

	if _, err := w.file.Seek(0, io.SeekStart); err != nil {
		w.file.Close()
		return err
	}
	if err := binary.Write(w.file, binary.LittleEndian, header); err != nil {
		w.file.Close()
		return err
	}

	return w.file.Close()
}
