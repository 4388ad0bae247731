package media

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/retroframe/retroframe/internal/storage"
)

// DecodeError означает, что байты ресурса не удалось распознать
// как изображение. Путь нужен для диагностики в логах
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Adjust декодирует изображение, применяет ориентацию и вписывает
// в рамку width x height с сохранением пропорций. Нулевые размеры
// отключают ресайз. Результат всегда кодируется в PNG,
// чтобы избежать повторных потерь качества на кэшированных рендерах
func Adjust(path string, data []byte, width, height int, orientation *storage.Orientation) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	if orientation != nil {
		img = applyOrientation(img, orientation)
	}

	if width > 0 && height > 0 {
		img = imaging.Fit(img, width, height, imaging.Linear)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// applyOrientation поворачивает и отражает изображение.
// Rotation задан по часовой стрелке, imaging вращает против,
// поэтому углы 90 и 270 меняются местами. Отражение применяется
// после поворота
func applyOrientation(img image.Image, orientation *storage.Orientation) image.Image {
	switch orientation.Rotation {
	case 90:
		img = imaging.Rotate270(img)
	case 180:
		img = imaging.Rotate180(img)
	case 270:
		img = imaging.Rotate90(img)
	}

	if orientation.MirrorVertically {
		img = imaging.FlipV(img)
	}
	return img
}
