package audio

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func TestEncodeWAVHeader(t *testing.T) {
	samples := []int16{0, 100, -100, 32767}
	got := EncodeWAV(samples, 16000)

	if len(got) != wavHeaderSize+len(samples)*2 {
		t.Fatalf("len = %d, want %d", len(got), wavHeaderSize+len(samples)*2)
	}
	if !bytes.Equal(got[0:4], []byte("RIFF")) || !bytes.Equal(got[8:12], []byte("WAVE")) {
		t.Error("missing RIFF/WAVE magic")
	}

	sampleRate := binary.LittleEndian.Uint32(got[24:28])
	if sampleRate != 16000 {
		t.Errorf("sample rate = %d, want 16000", sampleRate)
	}

	bits := binary.LittleEndian.Uint16(got[34:36])
	if bits != 16 {
		t.Errorf("bits per sample = %d, want 16", bits)
	}

	dataSize := binary.LittleEndian.Uint32(got[40:44])
	if dataSize != uint32(len(samples)*2) {
		t.Errorf("data size = %d, want %d", dataSize, len(samples)*2)
	}
}

func TestEncodeWAVSamples(t *testing.T) {
	got := EncodeWAV([]int16{258}, 8000)

	// 258 = 0x0102 little-endian.
	if got[44] != 0x02 || got[45] != 0x01 {
		t.Errorf("sample bytes = %x %x, want little-endian encoding", got[44], got[45])
	}
}

func TestEncodeWAVEmpty(t *testing.T) {
	got := EncodeWAV(nil, 16000)
	if len(got) != wavHeaderSize {
		t.Errorf("len = %d, want header only", len(got))
	}
}

func TestCapturerFlush(t *testing.T) {
	c := NewCapturer(16000)
	c.callback([]int16{1, 2, 3})
	c.callback([]int16{4})

	if got := c.Buffered(); got != 4 {
		t.Errorf("Buffered() = %d, want 4", got)
	}

	flushed := c.Flush()
	if len(flushed) != 4 || flushed[3] != 4 {
		t.Errorf("Flush() = %v", flushed)
	}
	if got := c.Buffered(); got != 0 {
		t.Errorf("Buffered() after flush = %d, want 0", got)
	}
}
