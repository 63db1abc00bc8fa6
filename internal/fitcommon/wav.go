// Package fitcommon holds the WAV and numeric helpers shared by the offline
// render and fit commands.
package fitcommon

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadWAVMono reads a WAV file, folds multi-channel content down to mono and
// returns samples normalized to [-1, 1] plus the file's sample rate.
func ReadWAVMono(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}

	bits := buf.SourceBitDepth
	if bits <= 0 {
		bits = 16
	}
	scale := float64(int64(1) << (bits - 1))

	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < ch; c++ {
			sum += float64(buf.Data[i*ch+c])
		}
		out[i] = sum / (float64(ch) * scale)
	}
	return out, buf.Format.SampleRate, nil
}

// ResampleIfNeeded converts between rates with the best-quality resampler,
// or returns the input unchanged when the rates already match.
func ResampleIfNeeded(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// WriteMonoWAV writes [-1, 1] float samples as a 16-bit mono WAV file,
// creating parent directories as needed.
func WriteMonoWAV(path string, data []float32, sampleRate int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

// WriteMonoWAVInt16 writes raw 16-bit samples, the engine's native output
// format, as a mono WAV file.
func WriteMonoWAVInt16(path string, data []int16, sampleRate int) error {
	samples := make([]float32, len(data))
	for i, s := range data {
		samples[i] = float32(s) / 32768.0
	}
	return WriteMonoWAV(path, samples, sampleRate)
}

// Int16ToFloat64 converts native engine output to [-1, 1] floats for the
// analysis metrics.
func Int16ToFloat64(data []int16) []float64 {
	out := make([]float64, len(data))
	for i, s := range data {
		out[i] = float64(s) / 32768.0
	}
	return out
}

// MonoRMS returns the RMS level of a sample block.
func MonoRMS(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s) / 32768.0
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}
