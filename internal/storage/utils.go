package storage

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// GenerateID генерирует стабильный ID на основе имени файла.
// Один и тот же файл получает один и тот же ID при каждой переиндексации
func GenerateID(name string) string {
	hash := md5.Sum([]byte(name))
	return hex.EncodeToString(hash[:])
}

// RenderKey строит ключ кэша отрендеренных изображений
func RenderKey(resourceID string, width, height int) string {
	return fmt.Sprintf("%s_%d_%d", resourceID, width, height)
}
