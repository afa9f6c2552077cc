// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_audio

import (
	"bytes"
	"encoding/binary"
)

// WrapWAV wraps raw linear16 PCM in a minimal RIFF/WAV container. Some
// batch transcription vendors only accept containerized audio.
func WrapWAV(pcm []byte, sampleRate, channels int) []byte {
	var buf bytes.Buffer
	bitsPerSample := 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes()
}
