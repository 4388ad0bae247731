package source

import (
	"fmt"
	"net"
	"strings"

	"github.com/hirochachacha/go-smb2"

	"github.com/retroframe/retroframe/internal/config"
	"github.com/retroframe/retroframe/internal/storage"
)

// Samba читает файлы с SMB шары
type Samba struct {
	conn    net.Conn
	session *smb2.Session
	share   *smb2.Share
	root    string
}

// NewSamba подключается к SMB шаре и монтирует её.
// Недоступная шара — ошибка конфигурации, падаем сразу
func NewSamba(cfg config.SourceConfig) (*Samba, error) {
	address := cfg.Address
	if !strings.Contains(address, ":") {
		address += ":445"
	}

	conn, err := net.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	dialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     cfg.Username,
			Password: cfg.Password,
			Domain:   cfg.Domain,
		},
	}

	session, err := dialer.Dial(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smb session to %s failed: %w", address, err)
	}

	share, err := session.Mount(cfg.Share)
	if err != nil {
		session.Logoff()
		conn.Close()
		return nil, fmt.Errorf("failed to mount share %s: %w", cfg.Share, err)
	}

	root := cfg.Path
	if root == "" {
		root = "."
	}

	return &Samba{conn: conn, session: session, share: share, root: root}, nil
}

func (s *Samba) Type() storage.SourceType {
	return storage.SourceSamba
}

func (s *Samba) Root() string {
	return s.root
}

func (s *Samba) List(path string) ([]Entry, error) {
	infos, err := s.share.ReadDir(toSmbPath(path))
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, Entry{
			Name:    info.Name(),
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return entries, nil
}

func (s *Samba) Read(path string) ([]byte, error) {
	return s.share.ReadFile(toSmbPath(path))
}

func (s *Samba) Close() error {
	err := s.share.Umount()
	s.session.Logoff()
	s.conn.Close()
	return err
}

// toSmbPath переводит слэши в обратные, как того требует протокол
func toSmbPath(path string) string {
	return strings.ReplaceAll(strings.TrimPrefix(path, "/"), "/", `\`)
}
