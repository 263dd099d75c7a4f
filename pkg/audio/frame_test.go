package audio_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/MrWong99/voicetutor/pkg/audio"
)

func TestFrameConfig_Validate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     audio.FrameConfig
		wantErr bool
	}{
		{"default", audio.DefaultFrameConfig(), false},
		{"8khz 10ms", audio.FrameConfig{SampleRate: 8000, FrameMs: 10}, false},
		{"48khz 20ms", audio.FrameConfig{SampleRate: 48000, FrameMs: 20}, false},
		{"bad rate", audio.FrameConfig{SampleRate: 44100, FrameMs: 30}, true},
		{"bad frame", audio.FrameConfig{SampleRate: 16000, FrameMs: 25}, true},
		{"both bad", audio.FrameConfig{SampleRate: 11025, FrameMs: 5}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestFrameConfig_FrameBytes(t *testing.T) {
	cfg := audio.FrameConfig{SampleRate: 16000, FrameMs: 30}
	// 16000 Hz * 0.030 s * 2 bytes = 960 bytes.
	if got := cfg.FrameBytes(); got != 960 {
		t.Errorf("FrameBytes() = %d, want 960", got)
	}
}

func TestFrames_PartitionsAndDropsTrailingPartial(t *testing.T) {
	cfg := audio.FrameConfig{SampleRate: 8000, FrameMs: 10} // 160-byte frames
	size := cfg.FrameBytes()

	// Three full frames plus a half frame of trailing audio.
	pcm := make([]byte, 3*size+size/2)
	for i := range pcm {
		pcm[i] = byte(i)
	}

	var frames []audio.Frame
	for f := range audio.Frames(cfg, pcm) {
		frames = append(frames, f)
	}

	if len(frames) != 3 {
		t.Fatalf("frame count = %d, want 3", len(frames))
	}
	for i, f := range frames {
		if len(f.Data) != size {
			t.Errorf("frame %d length = %d, want %d", i, len(f.Data), size)
		}
		wantTS := time.Duration(i) * cfg.FrameDuration()
		if f.Timestamp != wantTS {
			t.Errorf("frame %d timestamp = %v, want %v", i, f.Timestamp, wantTS)
		}
		if !bytes.Equal(f.Data, pcm[i*size:(i+1)*size]) {
			t.Errorf("frame %d data does not match source slice", i)
		}
	}
}

func TestFrames_ConcatenationIsPrefix(t *testing.T) {
	cfg := audio.DefaultFrameConfig()
	size := cfg.FrameBytes()
	pcm := make([]byte, 5*size+17)
	for i := range pcm {
		pcm[i] = byte(i * 7)
	}

	var joined []byte
	for f := range audio.Frames(cfg, pcm) {
		joined = append(joined, f.Data...)
	}

	if !bytes.Equal(joined, pcm[:5*size]) {
		t.Error("concatenated frames are not a prefix of the source PCM")
	}
}

func TestFrames_ShortInputYieldsNothing(t *testing.T) {
	cfg := audio.DefaultFrameConfig()
	pcm := make([]byte, cfg.FrameBytes()-1)

	count := 0
	for range audio.Frames(cfg, pcm) {
		count++
	}
	if count != 0 {
		t.Errorf("frame count = %d, want 0", count)
	}
}

func TestFrames_EarlyBreak(t *testing.T) {
	cfg := audio.DefaultFrameConfig()
	pcm := make([]byte, 10*cfg.FrameBytes())

	count := 0
	for range audio.Frames(cfg, pcm) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("consumed %d frames, want 2", count)
	}
}
