// Package sound renders the game's sound effects as short WAV clips built
// from simple oscillator tones.
package sound

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"sync"
	"time"

	"genna-quiz-service/internal/domain"
)

const (
	SampleRate = 44100

	startGain = 0.1
	endGain   = 0.01
)

// Waveform is an oscillator shape.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Sawtooth
	Triangle
)

// Tone is one oscillator note with an exponential fade from 0.1 to 0.01 gain.
type Tone struct {
	Freq     float64
	Wave     Waveform
	Duration time.Duration
	Start    time.Duration
}

// Tones returns the notes that make up a cue.
func Tones(cue domain.SoundCue) []Tone {
	ms := time.Millisecond
	switch cue {
	case domain.CueClick:
		return []Tone{{Freq: 800, Wave: Sine, Duration: 50 * ms}}
	case domain.CueCorrect:
		return []Tone{
			{Freq: 600, Wave: Sine, Duration: 100 * ms},
			{Freq: 1200, Wave: Sine, Duration: 200 * ms, Start: 100 * ms},
		}
	case domain.CueWrong:
		return []Tone{{Freq: 150, Wave: Sawtooth, Duration: 300 * ms}}
	case domain.CueTick:
		return []Tone{{Freq: 1000, Wave: Square, Duration: 30 * ms}}
	case domain.CueWin:
		tones := make([]Tone, 0, 3)
		for i := 0; i < 3; i++ {
			tones = append(tones, Tone{
				Freq:     440 + float64(i*100),
				Wave:     Triangle,
				Duration: 300 * ms,
				Start:    time.Duration(i) * 200 * ms,
			})
		}
		return tones
	}
	return nil
}

// Render mixes tones into mono samples in [-1, 1].
func Render(tones []Tone) []float64 {
	var end time.Duration
	for _, t := range tones {
		if e := t.Start + t.Duration; e > end {
			end = e
		}
	}
	out := make([]float64, samplesIn(end))
	for _, t := range tones {
		first := samplesIn(t.Start)
		n := samplesIn(t.Duration)
		for i := 0; i < n && first+i < len(out); i++ {
			sec := float64(i) / SampleRate
			progress := float64(i) / float64(n)
			gain := startGain * math.Pow(endGain/startGain, progress)
			out[first+i] += gain * oscillate(t.Wave, t.Freq*sec)
		}
	}
	for i, v := range out {
		out[i] = math.Max(-1, math.Min(1, v))
	}
	return out
}

func samplesIn(d time.Duration) int {
	return int(math.Round(d.Seconds() * SampleRate))
}

// oscillate returns the waveform value at the given phase, in cycles.
func oscillate(w Waveform, cycles float64) float64 {
	frac := cycles - math.Floor(cycles)
	switch w {
	case Square:
		if frac < 0.5 {
			return 1
		}
		return -1
	case Sawtooth:
		return 2*frac - 1
	case Triangle:
		return 1 - 4*math.Abs(frac-0.5)
	default:
		return math.Sin(2 * math.Pi * cycles)
	}
}

// WriteWAV encodes samples as 16-bit PCM mono.
func WriteWAV(w io.Writer, samples []float64) error {
	dataLen := uint32(len(samples) * 2)
	header := struct {
		RIFF          [4]byte
		ChunkSize     uint32
		WAVE          [4]byte
		Fmt           [4]byte
		FmtSize       uint32
		AudioFormat   uint16
		Channels      uint16
		SampleRate    uint32
		ByteRate      uint32
		BlockAlign    uint16
		BitsPerSample uint16
		Data          [4]byte
		DataSize      uint32
	}{
		RIFF:          [4]byte{'R', 'I', 'F', 'F'},
		ChunkSize:     36 + dataLen,
		WAVE:          [4]byte{'W', 'A', 'V', 'E'},
		Fmt:           [4]byte{'f', 'm', 't', ' '},
		FmtSize:       16,
		AudioFormat:   1,
		Channels:      1,
		SampleRate:    SampleRate,
		ByteRate:      SampleRate * 2,
		BlockAlign:    2,
		BitsPerSample: 16,
		Data:          [4]byte{'d', 'a', 't', 'a'},
		DataSize:      dataLen,
	}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}
	pcm := make([]int16, len(samples))
	for i, v := range samples {
		pcm[i] = int16(math.Round(v * math.MaxInt16))
	}
	return binary.Write(w, binary.LittleEndian, pcm)
}

var (
	cacheMu sync.Mutex
	cache   = map[domain.SoundCue][]byte{}
)

// WAV returns the encoded clip for cue, or ok=false for an unknown cue.
// Clips are rendered once and shared.
func WAV(cue domain.SoundCue) ([]byte, bool) {
	tones := Tones(cue)
	if len(tones) == 0 {
		return nil, false
	}
	cacheMu.Lock()
	defer cacheMu.Unlock()
	if b, ok := cache[cue]; ok {
		return b, true
	}
	var buf bytes.Buffer
	if err := WriteWAV(&buf, Render(tones)); err != nil {
		return nil, false
	}
	cache[cue] = buf.Bytes()
	return cache[cue], true
}
