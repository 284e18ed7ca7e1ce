package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	s, err := NewLocal(filepath.Join(t.TempDir(), "archive"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLocalPutOpen(t *testing.T) {
	ctx := context.Background()
	s := newTestLocal(t)

	if err := s.Put(ctx, "2024/05/03/chat-7.wav", strings.NewReader("first"), "audio/wav"); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, "2024/05/03/chat-7.wav", strings.NewReader("second"), "audio/wav"); err != nil {
		t.Fatal(err)
	}
	r, err := s.Open(ctx, "2024/05/03/chat-7.wav")
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	got, _ := io.ReadAll(r)
	if string(got) != "second" {
		t.Errorf("got %q", got)
	}

	leftovers, _ := filepath.Glob(filepath.Join(s.Root(), "2024", "05", "03", ".put-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left: %v", leftovers)
	}
}

func TestLocalMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestLocal(t)

	if _, err := s.Open(ctx, "nope"); !os.IsNotExist(err) {
		t.Errorf("Open err = %v", err)
	}
	ok, err := s.Exists(ctx, "nope")
	if err != nil || ok {
		t.Errorf("Exists = %v, %v", ok, err)
	}
	if err := s.Delete(ctx, "nope"); err != nil {
		t.Errorf("Delete err = %v", err)
	}
}

func TestLocalDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestLocal(t)
	s.Put(ctx, "x", strings.NewReader("x"), "")
	if ok, _ := s.Exists(ctx, "x"); !ok {
		t.Fatal("expected object")
	}
	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "x"); ok {
		t.Fatal("object survived delete")
	}
}

func TestLocalRejectsEscape(t *testing.T) {
	s := newTestLocal(t)
	if err := s.Put(context.Background(), "../outside", strings.NewReader("x"), ""); err == nil {
		t.Error("expected error for path outside root")
	}
}
