package blob

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing error = %v", err)
	}
	info, err := s.Put(ctx, "k1", strings.NewReader("payload"), 7, "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != 7 || info.ContentType != "image/png" {
		t.Errorf("info = %+v", info)
	}

	got, r, err := s.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer r.Close()
	b, _ := io.ReadAll(r)
	if string(b) != "payload" || got.Key != "k1" {
		t.Errorf("Get = %+v %q", got, b)
	}

	if err := s.Delete(ctx, "k1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete(ctx, "k1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Len = %d", s.Len())
	}
}

func TestNewKey(t *testing.T) {
	k := NewKey("sess-1", "Photo.JPG")
	if !strings.HasPrefix(k, "sessions/sess-1/images/") || !strings.HasSuffix(k, ".jpg") {
		t.Errorf("key = %q", k)
	}
	if NewKey("s", "a.png") == NewKey("s", "a.png") {
		t.Error("keys should be unique")
	}
}

func encoded(t *testing.T, enc func(io.Writer, image.Image) error) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := enc(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestSniffImage(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"png", encoded(t, png.Encode), "image/png"},
		{"jpeg", encoded(t, func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) }), "image/jpeg"},
		{"gif", encoded(t, func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) }), "image/gif"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SniffImage(tt.data)
			if err != nil {
				t.Fatalf("SniffImage: %v", err)
			}
			if got != tt.want {
				t.Errorf("SniffImage = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSniffImageRejects(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"text":      []byte("hello, world"),
		"pdf":       []byte("%PDF-1.4\n"),
		"truncated": encoded(t, png.Encode)[:12],
	} {
		if _, err := SniffImage(data); !errors.Is(err, ErrUnsupportedImage) {
			t.Errorf("%s: error = %v, want ErrUnsupportedImage", name, err)
		}
	}
}
