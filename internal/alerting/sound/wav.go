package sound

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// pcmFormatTag is the WAVE format code of uncompressed PCM.
const pcmFormatTag = 1

var (
	// ErrNotWAV indicates the file is not a RIFF/WAVE file.
	ErrNotWAV = errors.New("not a WAV file")
	// ErrUnsupportedFormat indicates a WAV encoding other than 16-bit PCM.
	ErrUnsupportedFormat = errors.New("unsupported WAV format")
)

// wavFormat holds the playback parameters of a WAV file.
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// riffHeader is the header of a RIFF file.
type riffHeader struct {
	ID   [4]byte
	Size uint32
	Kind [4]byte
}

// chunkHeader precedes every RIFF chunk.
type chunkHeader struct {
	ID   [4]byte
	Size uint32
}

// fmtChunk is the fixed part of the "fmt " chunk.
type fmtChunk struct {
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// parseWAV returns the format and the samples of a 16-bit PCM WAV file.
func parseWAV(data []byte) (wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	var header riffHeader
	if err := binary.Read(reader, binary.LittleEndian, &header); err != nil {
		return wavFormat{}, nil, fmt.Errorf("read RIFF header: %w", ErrNotWAV)
	}

	if string(header.ID[:]) != "RIFF" || string(header.Kind[:]) != "WAVE" {
		return wavFormat{}, nil, ErrNotWAV
	}

	var (
		format    wavFormat
		hasFormat bool
	)

	for {
		var chunk chunkHeader
		if err := binary.Read(reader, binary.LittleEndian, &chunk); err != nil {
			return wavFormat{}, nil, fmt.Errorf("no data chunk: %w", ErrNotWAV)
		}

		switch string(chunk.ID[:]) {
		case "fmt ":
			var f fmtChunk
			if err := binary.Read(reader, binary.LittleEndian, &f); err != nil {
				return wavFormat{}, nil, fmt.Errorf("read fmt chunk: %w", err)
			}

			if f.AudioFormat != pcmFormatTag || f.BitsPerSample != 16 || f.Channels == 0 || f.SampleRate == 0 {
				return wavFormat{}, nil, fmt.Errorf("%w: format %d, %d bits, %d channels",
					ErrUnsupportedFormat, f.AudioFormat, f.BitsPerSample, f.Channels)
			}

			format = wavFormat{
				SampleRate: int(f.SampleRate),
				Channels:   int(f.Channels),
				BitDepth:   int(f.BitsPerSample),
			}
			hasFormat = true

			if err := skip(reader, int64(chunk.Size)-int64(binary.Size(f))); err != nil {
				return wavFormat{}, nil, err
			}
		case "data":
			if !hasFormat {
				return wavFormat{}, nil, fmt.Errorf("data before fmt chunk: %w", ErrNotWAV)
			}

			size := min(int(chunk.Size), reader.Len())
			samples := make([]byte, size)

			if _, err := io.ReadFull(reader, samples); err != nil {
				return wavFormat{}, nil, fmt.Errorf("read samples: %w", err)
			}

			return format, samples, nil
		default:
			if err := skip(reader, int64(chunk.Size)); err != nil {
				return wavFormat{}, nil, err
			}
		}

		// Chunks are word aligned.
		if chunk.Size%2 == 1 {
			if err := skip(reader, 1); err != nil {
				return wavFormat{}, nil, err
			}
		}
	}
}

func skip(reader *bytes.Reader, n int64) error {
	if n <= 0 {
		return nil
	}

	if _, err := reader.Seek(n, io.SeekCurrent); err != nil {
		return fmt.Errorf("skip chunk: %w", err)
	}

	return nil
}
