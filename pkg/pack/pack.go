// Package pack provides reading and writing of JPK packed asset archives.
//
// A JPK file is a flat container of named entries, each optionally
// zlib-compressed. All integers are little-endian. Layout: a 16-byte
// header (magic, version, file count, table offset), the entry blobs,
// and a zlib-compressed entry table at the table offset.
package pack

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	jpkMagic   = "JPAK"
	jpkVersion = 1

	flagCompressed = 0x01
)

// Pack format errors.
var (
	ErrInvalidPackMagic       = errors.New("invalid JPK magic: expected 'JPAK'")
	ErrUnsupportedPackVersion = errors.New("unsupported JPK version")
	ErrTruncatedPackTable     = errors.New("truncated JPK entry table")
	ErrEntryNotFound          = errors.New("entry not found in pack")
)

// Header contains the JPK file header.
type Header struct {
	Magic       [4]byte
	Version     uint32
	FileCount   uint32
	TableOffset uint32
}

// Entry describes one file stored in the pack.
type Entry struct {
	Name             string
	Offset           uint32
	CompressedSize   uint32
	UncompressedSize uint32
	Flags            uint8
}

// Archive is an opened JPK pack.
type Archive struct {
	path    string
	file    *os.File
	header  Header
	entries map[string]*Entry
}

// Open opens a JPK archive for reading.
func Open(path string) (*Archive, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pack: %w", err)
	}

	archive := &Archive{
		path:    path,
		file:    file,
		entries: make(map[string]*Entry),
	}

	if err := archive.readHeader(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading pack header: %w", err)
	}

	if err := archive.readEntryTable(); err != nil {
		file.Close()
		return nil, fmt.Errorf("reading pack entry table: %w", err)
	}

	return archive, nil
}

// Close closes the archive.
func (a *Archive) Close() error {
	if a.file != nil {
		return a.file.Close()
	}
	return nil
}

// Path returns the filesystem path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

func (a *Archive) readHeader() error {
	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return err
	}

	if err := binary.Read(a.file, binary.LittleEndian, &a.header); err != nil {
		return err
	}

	if string(a.header.Magic[:]) != jpkMagic {
		return ErrInvalidPackMagic
	}

	if a.header.Version != jpkVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedPackVersion, a.header.Version)
	}

	return nil
}

func (a *Archive) readEntryTable() error {
	if _, err := a.file.Seek(int64(a.header.TableOffset), io.SeekStart); err != nil {
		return err
	}

	var compressedSize, uncompressedSize uint32
	if err := binary.Read(a.file, binary.LittleEndian, &compressedSize); err != nil {
		return ErrTruncatedPackTable
	}
	if err := binary.Read(a.file, binary.LittleEndian, &uncompressedSize); err != nil {
		return ErrTruncatedPackTable
	}

	compressed := make([]byte, compressedSize)
	if _, err := io.ReadFull(a.file, compressed); err != nil {
		return ErrTruncatedPackTable
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return fmt.Errorf("decompressing entry table: %w", err)
	}
	defer zr.Close()

	table := make([]byte, uncompressedSize)
	if _, err := io.ReadFull(zr, table); err != nil {
		return ErrTruncatedPackTable
	}

	offset := 0
	for i := uint32(0); i < a.header.FileCount; i++ {
		nameEnd := bytes.IndexByte(table[offset:], 0)
		if nameEnd < 0 {
			return ErrTruncatedPackTable
		}
		name := string(table[offset : offset+nameEnd])
		offset += nameEnd + 1

		if offset+13 > len(table) {
			return ErrTruncatedPackTable
		}

		entry := &Entry{
			Name:             NormalizePath(name),
			Offset:           binary.LittleEndian.Uint32(table[offset:]),
			CompressedSize:   binary.LittleEndian.Uint32(table[offset+4:]),
			UncompressedSize: binary.LittleEndian.Uint32(table[offset+8:]),
			Flags:            table[offset+12],
		}
		offset += 13

		a.entries[entry.Name] = entry
	}

	return nil
}

// List returns all entry names in the pack.
func (a *Archive) List() []string {
	result := make([]string, 0, len(a.entries))
	for name := range a.entries {
		result = append(result, name)
	}
	return result
}

// Contains checks whether an entry exists.
func (a *Archive) Contains(name string) bool {
	_, ok := a.entries[NormalizePath(name)]
	return ok
}

// Read reads and decompresses one entry.
func (a *Archive) Read(name string) ([]byte, error) {
	entry, ok := a.entries[NormalizePath(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, name)
	}

	if _, err := a.file.Seek(int64(entry.Offset), io.SeekStart); err != nil {
		return nil, err
	}

	data := make([]byte, entry.CompressedSize)
	if _, err := io.ReadFull(a.file, data); err != nil {
		return nil, fmt.Errorf("reading entry %s: %w", name, err)
	}

	if entry.Flags&flagCompressed == 0 {
		return data, nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decompressing entry %s: %w", name, err)
	}
	defer zr.Close()

	result := make([]byte, entry.UncompressedSize)
	if _, err := io.ReadFull(zr, result); err != nil {
		return nil, fmt.Errorf("decompressing entry %s: %w", name, err)
	}
	return result, nil
}

// NormalizePath converts backslashes to slashes and lowercases the
// path, so lookups are insensitive to authoring platform conventions.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	return strings.ToLower(path)
}
