package fs

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// AuthFSStore — файловое хранилище токена и UID для CLI. Path задаёт файл
// токена; пусто — <UserConfigDir>/KinkLink/auth_token. UID хранится рядом.
type AuthFSStore struct {
	Path string
}

func (s AuthFSStore) tokenPath() (string, error) {
	if s.Path != "" {
		if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
			return "", err
		}
		return s.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, "KinkLink")
	if err := os.MkdirAll(p, 0o700); err != nil {
		return "", err
	}
	return filepath.Join(p, "auth_token"), nil
}

func (s AuthFSStore) uidPath() (string, error) {
	p, err := s.tokenPath()
	if err != nil {
		return "", err
	}
	return p + ".uid", nil
}

// Save сохраняет auth‑токен в файл.
func (s AuthFSStore) Save(token string) error {
	p, err := s.tokenPath()
	if err != nil {
		return err
	}
	return os.WriteFile(p, []byte(token), 0o600)
}

// Load читает auth‑токен из файла.
func (s AuthFSStore) Load() (string, error) {
	p, err := s.tokenPath()
	if err != nil {
		return "", err
	}
	return readTrimmed(p, "empty token file")
}

// Clear удаляет токен и UID (logout).
func (s AuthFSStore) Clear() error {
	for _, path := range []func() (string, error){s.tokenPath, s.uidPath} {
		p, err := path()
		if err != nil {
			return err
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SaveUID сохраняет UID текущего пользователя.
func (s AuthFSStore) SaveUID(uid string) error {
	if uid == "" {
		return errors.New("empty uid")
	}
	p, err := s.uidPath()
	if err != nil {
		return err
	}
	return os.WriteFile(p, []byte(uid), 0o600)
}

// LoadUID читает UID текущего пользователя.
func (s AuthFSStore) LoadUID() (string, error) {
	p, err := s.uidPath()
	if err != nil {
		return "", err
	}
	return readTrimmed(p, "no stored uid")
}

// readTrimmed читает файл и обрезает завершающие переводы строки/пробелы.
func readTrimmed(p, emptyMsg string) (string, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	v := strings.TrimRight(string(b), " \t\r\n")
	if v == "" {
		return "", errors.New(emptyMsg)
	}
	return v, nil
}
