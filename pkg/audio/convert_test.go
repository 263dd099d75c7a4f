package audio_test

import (
	"encoding/binary"
	"testing"

	"github.com/MrWong99/voicetutor/pkg/audio"
)

// samplesToBytes converts a slice of int16 samples to little-endian byte representation.
func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

// bytesToSamples converts a little-endian byte slice to int16 samples.
func bytesToSamples(b []byte) []int16 {
	samples := make([]int16, len(b)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return samples
}

func TestMonoToStereo(t *testing.T) {
	mono := samplesToBytes([]int16{100, 200, 300})
	stereo := audio.MonoToStereo(mono)
	got := bytesToSamples(stereo)
	want := []int16{100, 100, 200, 200, 300, 300}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStereoToMono(t *testing.T) {
	// Two stereo frames: L=100,R=200 and L=-100,R=-200
	stereo := samplesToBytes([]int16{100, 200, -100, -200})
	mono := audio.StereoToMono(stereo)
	got := bytesToSamples(mono)
	want := []int16{150, -150}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestStereoToMono_Clamping(t *testing.T) {
	// Two max-positive samples should clamp to 32767 (not overflow).
	stereo := samplesToBytes([]int16{32767, 32767})
	mono := audio.StereoToMono(stereo)
	got := bytesToSamples(mono)
	if len(got) != 1 {
		t.Fatalf("length mismatch: got %d, want 1", len(got))
	}
	if got[0] != 32767 {
		t.Errorf("got %d, want 32767", got[0])
	}
}

func TestResampleMono16_SameRate(t *testing.T) {
	pcm := samplesToBytes([]int16{100, 200, 300})
	out := audio.ResampleMono16(pcm, 48000, 48000)
	if len(out) != len(pcm) {
		t.Fatalf("length mismatch: got %d, want %d", len(out), len(pcm))
	}
}

func TestResampleMono16_Downsample(t *testing.T) {
	// 48 kHz to 16 kHz yields one third of the samples.
	src := make([]int16, 48)
	for i := range src {
		src[i] = int16(i * 100)
	}
	out := audio.ResampleMono16(samplesToBytes(src), 48000, 16000)
	got := bytesToSamples(out)
	if len(got) != 16 {
		t.Fatalf("sample count = %d, want 16", len(got))
	}
	// The first output sample maps exactly onto the first input sample.
	if got[0] != src[0] {
		t.Errorf("first sample = %d, want %d", got[0], src[0])
	}
}

func TestConform_MonoToStereoDevice(t *testing.T) {
	// A 16 kHz mono clip rendered for a 48 kHz stereo device triples the
	// sample count and duplicates each sample per channel.
	clip := &audio.Clip{
		PCM:        samplesToBytes([]int16{0, 1000, 2000, 3000}),
		SampleRate: 16000,
		Channels:   1,
	}
	out := audio.Conform(clip, 48000, 2)
	got := bytesToSamples(out)
	if len(got) != 4*3*2 {
		t.Fatalf("sample count = %d, want %d", len(got), 4*3*2)
	}
	for i := 0; i < len(got); i += 2 {
		if got[i] != got[i+1] {
			t.Fatalf("stereo pair %d differs: %d vs %d", i/2, got[i], got[i+1])
		}
	}
}

func TestConform_StereoClipDownmixed(t *testing.T) {
	clip := &audio.Clip{
		PCM:        samplesToBytes([]int16{100, 200, -100, -200}),
		SampleRate: 16000,
		Channels:   2,
	}
	out := audio.Conform(clip, 16000, 1)
	got := bytesToSamples(out)
	want := []int16{150, -150}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestConform_MatchingFormatPassesThrough(t *testing.T) {
	pcm := samplesToBytes([]int16{1, 2, 3})
	clip := &audio.Clip{PCM: pcm, SampleRate: 16000, Channels: 1}
	out := audio.Conform(clip, 16000, 1)
	if len(out) != len(pcm) {
		t.Fatalf("length changed: got %d, want %d", len(out), len(pcm))
	}
}

func TestResampleMono16_Upsample(t *testing.T) {
	src := []int16{0, 1000}
	out := audio.ResampleMono16(samplesToBytes(src), 16000, 48000)
	got := bytesToSamples(out)
	if len(got) != 6 {
		t.Fatalf("sample count = %d, want 6", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i] < got[i-1] {
			t.Fatalf("interpolated output not monotonic at %d: %v", i, got)
		}
	}
}
