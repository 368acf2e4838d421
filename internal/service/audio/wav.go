package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// WAVFormat describes the PCM layout of a WAV container.
type WAVFormat struct {
	AudioFormat   uint16 // 1 = linear PCM
	Channels      uint16
	SampleRate    uint32
	BitsPerSample uint16
	DataSize      uint32
}

// IsNormalized reports whether the format matches what Normalize produces.
func (f WAVFormat) IsNormalized(sampleRate int) bool {
	return f.AudioFormat == 1 && f.Channels == 1 && f.BitsPerSample == 16 && int(f.SampleRate) == sampleRate
}

// Duration returns the playback length in seconds.
func (f WAVFormat) Duration() float64 {
	bytesPerSecond := float64(f.SampleRate) * float64(f.Channels) * float64(f.BitsPerSample) / 8
	if bytesPerSecond == 0 {
		return 0
	}
	return float64(f.DataSize) / bytesPerSecond
}

// InspectWAV walks the RIFF chunks of data and returns its fmt/data description.
// ffmpeg writes a LIST chunk between fmt and data, so a fixed 44 byte header is not assumed.
func InspectWAV(data []byte) (WAVFormat, error) {
	var format WAVFormat
	if len(data) < 12 {
		return format, fmt.Errorf("WAV data too short: %d bytes", len(data))
	}
	if string(data[0:4]) != "RIFF" {
		return format, fmt.Errorf("invalid WAV file: missing RIFF header")
	}
	if string(data[8:12]) != "WAVE" {
		return format, fmt.Errorf("invalid WAV file: missing WAVE format")
	}

	var haveFmt, haveData bool
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		switch id {
		case "fmt ":
			if size < 16 || body+16 > len(data) {
				return format, fmt.Errorf("invalid WAV file: truncated fmt chunk")
			}
			format.AudioFormat = binary.LittleEndian.Uint16(data[body : body+2])
			format.Channels = binary.LittleEndian.Uint16(data[body+2 : body+4])
			format.SampleRate = binary.LittleEndian.Uint32(data[body+4 : body+8])
			format.BitsPerSample = binary.LittleEndian.Uint16(data[body+14 : body+16])
			haveFmt = true
		case "data":
			format.DataSize = size
			haveData = true
		}

		if haveFmt && haveData {
			return format, nil
		}

		next := body + int(size)
		if size%2 == 1 {
			next++
		}
		if next <= offset {
			break
		}
		offset = next
	}

	if !haveFmt {
		return format, fmt.Errorf("invalid WAV file: missing fmt chunk")
	}
	return format, fmt.Errorf("invalid WAV file: missing data chunk")
}

// EncodePCM16WAV wraps little-endian 16-bit PCM samples in a canonical 44 byte WAV header.
func EncodePCM16WAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("channel count must be positive, got %d", channels)
	}
	if len(pcm)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}

	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8

	buf := bytes.NewBuffer(make([]byte, 0, 44+len(pcm)))
	buf.WriteString("RIFF")
	_ = binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(buf, binary.LittleEndian, uint16(channels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(sampleRate*blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	_ = binary.Write(buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// SilentWAV returns seconds of mono 16-bit silence at sampleRate.
func SilentWAV(sampleRate int, seconds float64) ([]byte, error) {
	samples := int(float64(sampleRate) * seconds)
	return EncodePCM16WAV(make([]byte, samples*2), sampleRate, 1)
}
