// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_audio

import (
	"time"

	"github.com/zaf/g711"
)

// AudioFormat is the wire encoding of raw audio bytes.
type AudioFormat string

const (
	Linear16 AudioFormat = "linear16"
	MuLaw8   AudioFormat = "mulaw"
)

// AudioConfig describes a raw audio stream. Immutable once constructed.
type AudioConfig struct {
	Format     AudioFormat
	SampleRate int
	Channels   int
}

// NewLinear16khzMonoAudioConfig is the internal pipeline format. Every
// provider adapter receives and produces this shape; telephony-native
// formats are converted at the channel edge.
func NewLinear16khzMonoAudioConfig() *AudioConfig {
	return &AudioConfig{Format: Linear16, SampleRate: 16000, Channels: 1}
}

// NewMulaw8khzMonoAudioConfig is the µ-law 8kHz format used by most
// PSTN telephony providers (Twilio media streams, SIP trunks).
func NewMulaw8khzMonoAudioConfig() *AudioConfig {
	return &AudioConfig{Format: MuLaw8, SampleRate: 8000, Channels: 1}
}

func (ac *AudioConfig) GetSampleRate() int {
	return ac.SampleRate
}

// BytesPerMillisecond returns the stream byte rate, used to derive frame
// and buffer sizes.
func (ac *AudioConfig) BytesPerMillisecond() int {
	bytesPerSample := 2
	if ac.Format == MuLaw8 {
		bytesPerSample = 1
	}
	return ac.SampleRate * bytesPerSample * ac.Channels / 1000
}

// Silence returns a buffer of silence of the given duration in this
// config's encoding. µ-law silence is 0xFF, linear16 silence is zeroes.
func (ac *AudioConfig) Silence(d time.Duration) []byte {
	n := ac.BytesPerMillisecond() * int(d.Milliseconds())
	buf := make([]byte, n)
	if ac.Format == MuLaw8 {
		for i := range buf {
			buf[i] = 0xFF
		}
	}
	return buf
}

// MuLawToLinear16 decodes µ-law samples to 16-bit linear PCM.
func MuLawToLinear16(in []byte) []byte {
	return g711.DecodeUlaw(in)
}

// Linear16ToMuLaw encodes 16-bit linear PCM to µ-law.
func Linear16ToMuLaw(in []byte) []byte {
	return g711.EncodeUlaw(in)
}
