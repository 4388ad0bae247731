package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

var (
	ErrorLog  *log.Logger
	errorFile *os.File
	appFile   *os.File
)

// Init направляет стандартный логгер в app.log и на stdout,
// ошибки дополнительно собираются в error.log
func Init(logsPath string) error {
	if err := os.MkdirAll(logsPath, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	var err error
	appFile, err = os.OpenFile(filepath.Join(logsPath, "app.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open app.log: %w", err)
	}

	errorFile, err = os.OpenFile(filepath.Join(logsPath, "error.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		appFile.Close()
		return fmt.Errorf("failed to open error.log: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stdout, appFile))
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	ErrorLog = log.New(io.MultiWriter(os.Stderr, errorFile), "ERROR ", log.LstdFlags|log.Lshortfile)

	return nil
}

// Cleanup закрывает файлы логов
func Cleanup() {
	if appFile != nil {
		appFile.Sync()
		appFile.Close()
	}
	if errorFile != nil {
		errorFile.Sync()
		errorFile.Close()
	}
}
