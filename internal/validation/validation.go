// Package validation checks user-supplied paths and verifies that
// input files actually contain what their extension claims.
package validation

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const (
	// MaxPathLength is the maximum allowed path length.
	MaxPathLength = 4096
)

// Common validation errors.
var (
	ErrEmptyPath        = errors.New("path cannot be empty")
	ErrPathTooLong      = errors.New("path too long")
	ErrInvalidCharacter = errors.New("invalid character in path")
)

// ValidatePath performs basic path validation: length limits, null
// bytes and control characters.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	if len(path) > MaxPathLength {
		return ErrPathTooLong
	}
	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: null byte not allowed", ErrInvalidCharacter)
	}
	for _, r := range path {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character not allowed", ErrInvalidCharacter)
		}
	}
	return nil
}

// FileType represents a validated file type.
type FileType string

const (
	FileTypeEAF     FileType = "eaf"
	FileTypeWAV     FileType = "wav"
	FileTypeSQLite  FileType = "sqlite"
	FileTypeZip     FileType = "zip"
	FileTypeXZ      FileType = "xz"
	FileTypeUnknown FileType = "unknown"
)

// magicBytes defines magic byte signatures for file type detection.
var magicBytes = []struct {
	fileType FileType
	magic    []byte
	offset   int
}{
	{FileTypeWAV, []byte("RIFF"), 0},
	{FileTypeZip, []byte{0x50, 0x4b, 0x03, 0x04}, 0},
	{FileTypeXZ, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}, 0},
	{FileTypeSQLite, []byte("SQLite format 3"), 0},
}

// CheckFile opens the file and verifies its content matches its
// extension. Unknown extensions pass unchecked.
func CheckFile(path string) (FileType, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileTypeUnknown, err
	}
	defer f.Close()

	t, err := ValidateFileType(f, path)
	if err != nil {
		return t, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// ValidateFileType reads the file header and checks it against the
// type the filename extension claims.
func ValidateFileType(reader io.Reader, filename string) (FileType, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(reader, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileTypeUnknown, fmt.Errorf("failed to read file header: %w", err)
	}
	buf = buf[:n]

	detected := detectFileTypeFromMagic(buf)
	expected := detectFileTypeFromExtension(filename)

	// ELAN files are XML text; there is no single magic, so check the
	// document prologue instead.
	if expected == FileTypeEAF {
		if detected != FileTypeUnknown {
			return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is %s", expected, detected)
		}
		if !looksLikeXML(buf) {
			return FileTypeUnknown, fmt.Errorf("file type mismatch: %s does not contain XML", filename)
		}
		return FileTypeEAF, nil
	}

	if detected == expected {
		return detected, nil
	}
	// Binary formats all carry a signature, so a mismatch there is
	// always a mislabeled file.
	if expected != FileTypeUnknown {
		return FileTypeUnknown, fmt.Errorf("file type mismatch: extension suggests %s but content is %s", expected, detected)
	}
	return FileTypeUnknown, nil
}

func detectFileTypeFromMagic(buf []byte) FileType {
	for _, sig := range magicBytes {
		if sig.offset+len(sig.magic) <= len(buf) {
			if bytes.Equal(buf[sig.offset:sig.offset+len(sig.magic)], sig.magic) {
				return sig.fileType
			}
		}
	}
	return FileTypeUnknown
}

func detectFileTypeFromExtension(filename string) FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".eaf":
		return FileTypeEAF
	case ".wav":
		return FileTypeWAV
	case ".db", ".sqlite", ".sqlite3":
		return FileTypeSQLite
	case ".zip":
		return FileTypeZip
	case ".xz":
		return FileTypeXZ
	default:
		return FileTypeUnknown
	}
}

// looksLikeXML reports whether the buffer starts with an XML prologue
// or element, ignoring a BOM and leading whitespace.
func looksLikeXML(buf []byte) bool {
	buf = bytes.TrimPrefix(buf, []byte{0xef, 0xbb, 0xbf})
	buf = bytes.TrimLeft(buf, " \t\r\n")
	return len(buf) > 0 && buf[0] == '<'
}
