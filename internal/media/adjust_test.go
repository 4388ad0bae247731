package media

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/retroframe/retroframe/internal/storage"
)

// makePNG кодирует одноцветное изображение заданных размеров
func makePNG(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func decodeDims(t *testing.T, data []byte) (int, int) {
	t.Helper()

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("результат не PNG: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestAdjustFitsWithinBounds(t *testing.T) {
	src := makePNG(t, 200, 100)

	out, err := Adjust("/photos/a.png", src, 50, 50, nil)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}

	// Пропорции сохраняются: 200x100 в рамке 50x50 дает 50x25
	w, h := decodeDims(t, out)
	if w != 50 || h != 25 {
		t.Errorf("размер = %dx%d, ожидалось 50x25", w, h)
	}
}

func TestAdjustZeroDimensionsSkipResize(t *testing.T) {
	src := makePNG(t, 40, 30)

	out, err := Adjust("/photos/a.png", src, 0, 0, nil)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}

	w, h := decodeDims(t, out)
	if w != 40 || h != 30 {
		t.Errorf("размер = %dx%d, ожидалось 40x30 без ресайза", w, h)
	}
}

func TestAdjustRotationSwapsDimensions(t *testing.T) {
	src := makePNG(t, 10, 20)

	for _, rotation := range []int{90, 270} {
		out, err := Adjust("/photos/a.png", src, 0, 0, &storage.Orientation{Rotation: rotation})
		if err != nil {
			t.Fatalf("Adjust(rotation=%d): %v", rotation, err)
		}

		w, h := decodeDims(t, out)
		if w != 20 || h != 10 {
			t.Errorf("rotation=%d: размер = %dx%d, ожидалось 20x10", rotation, w, h)
		}
	}

	// Поворот на 180 размеры не меняет
	out, err := Adjust("/photos/a.png", src, 0, 0, &storage.Orientation{Rotation: 180})
	if err != nil {
		t.Fatalf("Adjust(rotation=180): %v", err)
	}
	if w, h := decodeDims(t, out); w != 10 || h != 20 {
		t.Errorf("rotation=180: размер = %dx%d, ожидалось 10x20", w, h)
	}
}

func TestAdjustMirror(t *testing.T) {
	src := makePNG(t, 10, 20)

	out, err := Adjust("/photos/a.png", src, 0, 0,
		&storage.Orientation{Rotation: 0, MirrorVertically: true})
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}
	if w, h := decodeDims(t, out); w != 10 || h != 20 {
		t.Errorf("размер после отражения = %dx%d, ожидалось 10x20", w, h)
	}
}

func TestAdjustOutputIsAlwaysPNG(t *testing.T) {
	src := makePNG(t, 8, 8)

	out, err := Adjust("/photos/a.png", src, 4, 4, nil)
	if err != nil {
		t.Fatalf("Adjust: %v", err)
	}

	pngMagic := []byte{0x89, 0x50, 0x4e, 0x47}
	if !bytes.HasPrefix(out, pngMagic) {
		t.Error("результат не начинается с PNG сигнатуры")
	}
}

func TestAdjustDecodeError(t *testing.T) {
	_, err := Adjust("/photos/broken.jpg", []byte("this is not an image"), 100, 100, nil)
	if err == nil {
		t.Fatal("ожидалась ошибка декодирования")
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("ожидался DecodeError, получено %T", err)
	}
	if decodeErr.Path != "/photos/broken.jpg" {
		t.Errorf("Path = %q", decodeErr.Path)
	}
}
