package scanner

import (
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
)

// mimeTypes отображает расширения файлов в MIME типы
var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".svg":  "image/svg+xml",
}

// Декодируемые форматы изображений. Остальные image/* типы
// логируются и пропускаются при индексации
var supportedImages = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
}

// MimeTypeByName определяет MIME тип по расширению имени файла.
// Возвращает пустую строку для неизвестных расширений
func MimeTypeByName(name string) string {
	return mimeTypes[strings.ToLower(filepath.Ext(name))]
}

// IsImage проверяет, относится ли MIME тип к изображениям
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// IsSupportedImage проверяет, можем ли мы декодировать этот тип
func IsSupportedImage(mimeType string) bool {
	return supportedImages[mimeType]
}

// headerMatchesClaim сверяет magic bytes заголовка с заявленным MIME типом.
// Несовпадение не повод отбрасывать ресурс, только для предупреждения в логе
func headerMatchesClaim(head []byte, claimedMIME string) bool {
	kind, err := filetype.Match(head)
	if err != nil || kind == filetype.Unknown {
		return false
	}
	return kind.MIME.Value == claimedMIME
}
