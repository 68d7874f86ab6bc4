// Package audio reads and slices RIFF/WAVE PCM files so sentence-level
// clips can be cut from a session recording by millisecond range.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// ErrFormat reports a file that is not linear-PCM RIFF/WAVE.
var ErrFormat = errors.New("audio: unsupported format")

// File is a decoded PCM WAV file held in memory.
type File struct {
	Channels      int
	SampleRate    int
	BitsPerSample int

	data []byte // raw sample frames
}

const headerLen = 44

// Open reads and decodes a WAV file.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode parses RIFF/WAVE bytes. Only uncompressed linear PCM
// (format tag 1) is accepted; chunks other than fmt and data are
// skipped.
func Decode(data []byte) (*File, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrFormat)
	}

	f := &File{}
	sawFmt := false
	pos := 12
	for pos+8 <= len(data) {
		id := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if body+size > len(data) {
			return nil, fmt.Errorf("%w: truncated %q chunk", ErrFormat, id)
		}

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("%w: short fmt chunk", ErrFormat)
			}
			tag := binary.LittleEndian.Uint16(data[body : body+2])
			if tag != 1 {
				return nil, fmt.Errorf("%w: format tag %d, want PCM", ErrFormat, tag)
			}
			f.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			sawFmt = true
		case "data":
			f.data = data[body : body+size]
		}

		// chunks are word-aligned
		pos = body + size
		if size%2 == 1 {
			pos++
		}
	}

	if !sawFmt || f.data == nil {
		return nil, fmt.Errorf("%w: missing fmt or data chunk", ErrFormat)
	}
	if f.Channels == 0 || f.SampleRate == 0 || f.BitsPerSample%8 != 0 || f.BitsPerSample == 0 {
		return nil, fmt.Errorf("%w: bad fmt parameters", ErrFormat)
	}
	return f, nil
}

// frameSize returns bytes per sample frame across all channels.
func (f *File) frameSize() int {
	return f.Channels * f.BitsPerSample / 8
}

// DurationMs returns the total duration in milliseconds, rounded down.
func (f *File) DurationMs() int64 {
	frames := int64(len(f.data) / f.frameSize())
	return frames * 1000 / int64(f.SampleRate)
}

// Slice cuts the [startMs, endMs) range, widened by padMs on both
// sides, and returns it as a complete WAV file. The padded range is
// clamped to the bounds of the recording. endMs at or before startMs
// is an error.
func (f *File) Slice(startMs, endMs, padMs int64) ([]byte, error) {
	if endMs <= startMs {
		return nil, fmt.Errorf("audio: empty range [%d,%d)", startMs, endMs)
	}

	startMs -= padMs
	endMs += padMs
	if startMs < 0 {
		startMs = 0
	}
	if max := f.DurationMs(); endMs > max {
		endMs = max
	}

	fs := int64(f.frameSize())
	lo := startMs * int64(f.SampleRate) / 1000 * fs
	hi := endMs * int64(f.SampleRate) / 1000 * fs
	if hi > int64(len(f.data)) {
		hi = int64(len(f.data))
	}
	if lo >= hi {
		return nil, fmt.Errorf("audio: range [%d,%d) outside recording", startMs, endMs)
	}

	return f.encode(f.data[lo:hi]), nil
}

// encode wraps raw sample frames in a canonical 44-byte WAV header.
func (f *File) encode(frames []byte) []byte {
	out := make([]byte, headerLen+len(frames))
	le := binary.LittleEndian

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(headerLen-8+len(frames)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], 1)
	le.PutUint16(out[22:24], uint16(f.Channels))
	le.PutUint32(out[24:28], uint32(f.SampleRate))
	le.PutUint32(out[28:32], uint32(f.SampleRate*f.frameSize()))
	le.PutUint16(out[32:34], uint16(f.frameSize()))
	le.PutUint16(out[34:36], uint16(f.BitsPerSample))

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(len(frames)))
	copy(out[44:], frames)
	return out
}
