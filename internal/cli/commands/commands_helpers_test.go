package commands

import (
	"path/filepath"
	"testing"

	"KinkLink/internal/config"
)

// withTempConfig возвращает конфиг, у которого файл токена лежит в temp,
// а запросы уходят на serverURL.
func withTempConfig(t *testing.T, serverURL string) *config.Config {
	t.Helper()
	return &config.Config{
		ServerURL: serverURL,
		TokenFile: filepath.Join(t.TempDir(), "token"),
	}
}
