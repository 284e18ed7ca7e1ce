package wavio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestEncodeDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	in := []int16{0, 1000, -1000, 32767, -32768, 42}
	if err := Encode(f, in, 16000, 1); err != nil {
		t.Fatal(err)
	}
	f.Close()

	f, err = os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	out, rate, ch, err := Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 16000 || ch != 1 {
		t.Errorf("rate=%d ch=%d", rate, ch)
	}
	if !slices.Equal(out, in) {
		t.Errorf("samples=%v", out)
	}
}

func TestDecodeInvalid(t *testing.T) {
	_, _, _, err := Decode(bytes.NewReader([]byte("definitely not RIFF data")))
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("err=%v", err)
	}
}

func TestTo16(t *testing.T) {
	tests := []struct {
		v, depth int
		want     int16
	}{
		{128, 8, 0},
		{255, 8, 127 << 8},
		{1 << 23 >> 1, 24, 1 << 14},
		{-5, 16, -5},
	}
	for _, tt := range tests {
		if got := to16(tt.v, tt.depth); got != tt.want {
			t.Errorf("to16(%d, %d) = %d, want %d", tt.v, tt.depth, got, tt.want)
		}
	}
}
