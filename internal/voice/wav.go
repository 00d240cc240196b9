package voice

import (
	"errors"
	"io"

	"github.com/go-audio/wav"
)

// Audio loading parameters matching the feature extraction the model was trained with:
// 22050 Hz mono, skip the first 0.5s of the recording, analyze at most 5s.
const (
	targetSampleRate = 22050
	loadOffsetSec    = 0.5
	loadDurationSec  = 5.0
)

var (
	// ErrInvalidAudio is returned when the upload is not a decodable WAV file
	ErrInvalidAudio = errors.New("invalid or unsupported audio file")

	// ErrAudioTooShort is returned when the recording is too short to analyze
	ErrAudioTooShort = errors.New("audio recording too short")
)

// LoadWAV decodes a WAV stream into mono float64 samples at the target sample
// rate, with the configured offset and duration window applied.
func LoadWAV(r io.ReadSeeker) ([]float64, error) {
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidAudio
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, ErrInvalidAudio
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, ErrAudioTooShort
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, ErrInvalidAudio
	}

	bitDepth := int(decoder.BitDepth)
	if bitDepth == 0 {
		bitDepth = buf.SourceBitDepth
	}
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	// Mix down to mono
	frames := len(buf.Data) / channels
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(buf.Data[i*channels+ch]) / scale
		}
		samples[i] = sum / float64(channels)
	}

	samples = resample(samples, buf.Format.SampleRate, targetSampleRate)

	offset := int(loadOffsetSec * targetSampleRate)
	if offset >= len(samples) {
		return nil, ErrAudioTooShort
	}
	samples = samples[offset:]

	if maxLen := int(loadDurationSec * targetSampleRate); len(samples) > maxLen {
		samples = samples[:maxLen]
	}

	return samples, nil
}

// resample converts samples from one rate to another with linear interpolation
func resample(samples []float64, from, to int) []float64 {
	if from == to || from <= 0 || len(samples) == 0 {
		return samples
	}

	ratio := float64(from) / float64(to)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		return nil
	}

	out := make([]float64, outLen)
	for i := range out {
		pos := float64(i) * ratio
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(j)
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}
