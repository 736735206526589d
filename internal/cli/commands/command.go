package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	fsrepo "KinkLink/internal/cli/repo/fs"
	"KinkLink/internal/config"
)

// ErrUsage возвращается командой при неверных аргументах, когда нужно показать usage.
var ErrUsage = errors.New("usage")

// Command — подкоманда CLI.
type Command interface {
	// Name — имя команды, как его набирает пользователь, например "login".
	Name() string
	// Description — короткое описание для справки.
	Description() string
	// Usage — строка использования, например "login <uid> <secret>".
	Usage() string
	// Run выполняет команду с аргументами (без имени команды).
	Run(ctx context.Context, cfg *config.Config, args []string) error
}

// registry хранит доступные команды по имени.
var registry = map[string]Command{}

// Out — общий writer для вывода CLI. По умолчанию os.Stdout, но в тестах может переназначаться.
var Out io.Writer = os.Stdout

// RegisterCmd добавляет команду в реестр. Вызывается из init() каждой команды.
func RegisterCmd(cmd Command) {
	registry[cmd.Name()] = cmd
}

// Get возвращает команду по имени.
func Get(name string) (Command, bool) {
	c, ok := registry[name]
	return c, ok
}

// List возвращает все команды, отсортированные по имени.
func List() []Command {
	list := make([]Command, 0, len(registry))
	for _, c := range registry {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// FormatGlobalUsage собирает справку по всем командам.
func FormatGlobalUsage() string {
	lines := []string{
		"KinkLink CLI",
		"",
		"Usage:",
		"  kinkctl [--base-url <host:port>] [--https] [--token-file <path>] <command> [args]",
		"",
		"Commands:",
	}
	for _, c := range List() {
		lines = append(lines, fmt.Sprintf("  %-44s %s", c.Usage(), c.Description()))
	}
	return strings.Join(lines, "\n") + "\n"
}

// storeFor возвращает файловое хранилище токена из конфигурации.
func storeFor(cfg *config.Config) fsrepo.AuthFSStore {
	return fsrepo.AuthFSStore{Path: cfg.TokenFile}
}

// endpoint склеивает адрес сервера и путь API.
func endpoint(cfg *config.Config, path string) string {
	return strings.TrimRight(cfg.ServerURL, "/") + path
}

// serverError превращает неуспешный ответ в ошибку с телом ответа.
func serverError(status int, body []byte) error {
	return fmt.Errorf("server status %d: %s", status, strings.TrimSpace(string(body)))
}
