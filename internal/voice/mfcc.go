package voice

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// STFT and mel parameters matching the training-time extraction
// (n_fft 2048, hop 512, 128 mel bands, 40 cepstral coefficients).
const (
	nFFT      = 2048
	hopLength = 512
	nMels     = 128
	numMFCC   = 40

	dbFloor = 1e-10
	topDB   = 80.0
)

// MFCC computes the mean of the first 40 mel-frequency cepstral coefficients
// over all frames of the signal, assumed to be mono at the target sample rate.
func MFCC(samples []float64) ([]float64, error) {
	if len(samples) < nFFT {
		return nil, ErrAudioTooShort
	}

	power := powerSpectrogram(samples)
	melSpec := applyMelFilterbank(power)
	logMel := powerToDB(melSpec)

	// DCT-II (orthonormal) along the mel axis, then mean over frames
	frames := len(logMel[0])
	mean := make([]float64, numMFCC)
	coeffs := make([]float64, numMFCC)
	frame := make([]float64, nMels)
	for t := 0; t < frames; t++ {
		for m := 0; m < nMels; m++ {
			frame[m] = logMel[m][t]
		}
		dctII(frame, coeffs)
		for k := 0; k < numMFCC; k++ {
			mean[k] += coeffs[k]
		}
	}
	for k := range mean {
		mean[k] /= float64(frames)
	}

	return mean, nil
}

// powerSpectrogram computes |STFT|^2 with centered frames, reflect padding
// and a periodic Hann window. Result is indexed [bin][frame].
func powerSpectrogram(samples []float64) [][]float64 {
	padded := reflectPad(samples, nFFT/2)
	numFrames := 1 + (len(padded)-nFFT)/hopLength
	numBins := nFFT/2 + 1

	window := hannWindow(nFFT)
	fft := fourier.NewFFT(nFFT)

	power := make([][]float64, numBins)
	for k := range power {
		power[k] = make([]float64, numFrames)
	}

	windowed := make([]float64, nFFT)
	for t := 0; t < numFrames; t++ {
		start := t * hopLength
		for i := 0; i < nFFT; i++ {
			windowed[i] = padded[start+i] * window[i]
		}
		spectrum := fft.Coefficients(nil, windowed)
		for k := 0; k < numBins; k++ {
			re := real(spectrum[k])
			im := imag(spectrum[k])
			power[k][t] = re*re + im*im
		}
	}

	return power
}

// hannWindow returns the periodic Hann window of length n
func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(n)))
	}
	return w
}

// reflectPad pads the signal on both sides by mirroring it around the edges
func reflectPad(samples []float64, pad int) []float64 {
	n := len(samples)
	out := make([]float64, n+2*pad)
	copy(out[pad:], samples)
	// callers guarantee len(samples) > pad
	for i := 0; i < pad; i++ {
		out[pad-1-i] = samples[i+1]
		out[pad+n+i] = samples[n-2-i]
	}
	return out
}

// applyMelFilterbank projects a power spectrogram onto the mel bands
func applyMelFilterbank(power [][]float64) [][]float64 {
	fb := melFilterbank()
	numBins := len(power)
	frames := len(power[0])

	melSpec := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		melSpec[m] = make([]float64, frames)
		for k := 0; k < numBins; k++ {
			w := fb[m][k]
			if w == 0 {
				continue
			}
			for t := 0; t < frames; t++ {
				melSpec[m][t] += w * power[k][t]
			}
		}
	}
	return melSpec
}

// melFilterbank builds triangular filters on the Slaney mel scale with
// Slaney-style area normalization, matching the training extraction.
func melFilterbank() [][]float64 {
	numBins := nFFT/2 + 1
	fMax := float64(targetSampleRate) / 2

	melPoints := make([]float64, nMels+2)
	melMin := hzToMel(0)
	melMax := hzToMel(fMax)
	for i := range melPoints {
		melPoints[i] = melToHz(melMin + (melMax-melMin)*float64(i)/float64(nMels+1))
	}

	fftFreqs := make([]float64, numBins)
	for k := range fftFreqs {
		fftFreqs[k] = float64(k) * float64(targetSampleRate) / nFFT
	}

	fb := make([][]float64, nMels)
	for m := 0; m < nMels; m++ {
		fb[m] = make([]float64, numBins)
		lower, center, upper := melPoints[m], melPoints[m+1], melPoints[m+2]
		enorm := 2.0 / (upper - lower)
		for k, f := range fftFreqs {
			var w float64
			switch {
			case f <= lower || f >= upper:
				w = 0
			case f <= center:
				w = (f - lower) / (center - lower)
			default:
				w = (upper - f) / (upper - center)
			}
			fb[m][k] = w * enorm
		}
	}
	return fb
}

// Slaney mel scale: linear below 1 kHz, logarithmic above
func hzToMel(hz float64) float64 {
	const fSP = 200.0 / 3.0
	const minLogHz = 1000.0
	const minLogMel = minLogHz / fSP
	logStep := math.Log(6.4) / 27.0

	if hz < minLogHz {
		return hz / fSP
	}
	return minLogMel + math.Log(hz/minLogHz)/logStep
}

func melToHz(mel float64) float64 {
	const fSP = 200.0 / 3.0
	const minLogHz = 1000.0
	const minLogMel = minLogHz / fSP
	logStep := math.Log(6.4) / 27.0

	if mel < minLogMel {
		return mel * fSP
	}
	return minLogHz * math.Exp(logStep*(mel-minLogMel))
}

// powerToDB converts a power spectrogram to decibels relative to 1.0,
// clamped to topDB below the peak.
func powerToDB(spec [][]float64) [][]float64 {
	out := make([][]float64, len(spec))
	maxDB := math.Inf(-1)
	for m, row := range spec {
		out[m] = make([]float64, len(row))
		for t, v := range row {
			db := 10 * math.Log10(math.Max(v, dbFloor))
			out[m][t] = db
			if db > maxDB {
				maxDB = db
			}
		}
	}
	floor := maxDB - topDB
	for _, row := range out {
		for t, v := range row {
			if v < floor {
				row[t] = floor
			}
		}
	}
	return out
}

// dctII computes the orthonormal DCT-II of src, writing the first len(dst)
// coefficients into dst.
func dctII(src, dst []float64) {
	n := float64(len(src))
	for k := range dst {
		var sum float64
		for i, v := range src {
			sum += v * math.Cos(math.Pi*float64(k)*(2*float64(i)+1)/(2*n))
		}
		scale := math.Sqrt(2 / n)
		if k == 0 {
			scale = math.Sqrt(1 / n)
		}
		dst[k] = sum * scale
	}
}
