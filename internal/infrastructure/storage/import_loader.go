package storage

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/marcogbarcellos/pgstudio/internal/model"
)

// PasswordSource says where an imported connection's password comes from.
type PasswordSource struct {
	Type string `yaml:"type"`
	Key  string `yaml:"key"`
}

const (
	PasswordPlainText = "plain_text"
	PasswordShell     = "shell"
	PasswordKeychain  = "keychain"
	PasswordEnv       = "env"
)

// ImportedConnection is one entry of a connections import file.
type ImportedConnection struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	Database string          `yaml:"database"`
	User     string          `yaml:"user"`
	SSLMode  string          `yaml:"ssl_mode"`
	Color    *string         `yaml:"color"`
	Password *PasswordSource `yaml:"password"`
}

// Descriptor returns the connection without its password.
func (c ImportedConnection) Descriptor() model.ConnectionDescriptor {
	port := c.Port
	if port == 0 {
		port = model.DefaultPort
	}
	mode, _ := model.ParseSSLMode(c.SSLMode)
	return model.ConnectionDescriptor{
		ID:       c.ID,
		Name:     c.Name,
		Host:     c.Host,
		Port:     port,
		Database: c.Database,
		User:     c.User,
		SSLMode:  mode,
		Color:    c.Color,
	}
}

type ImportFile struct {
	Connections []ImportedConnection `yaml:"connections"`
}

// ImportLoader reads a YAML file describing connections to import.
type ImportLoader struct {
	path string
}

func NewImportLoader(path string) *ImportLoader {
	return &ImportLoader{path: path}
}

func (l *ImportLoader) Path() string { return l.path }

// Load reads and validates the file. Entries without an id get one derived
// from their name.
func (l *ImportLoader) Load() (*ImportFile, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read import file: %w", err)
	}

	var file ImportFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse import file: %w", err)
	}

	for i := range file.Connections {
		if strings.TrimSpace(file.Connections[i].ID) == "" {
			file.Connections[i].ID = slug(file.Connections[i].Name)
		}
	}

	if err := validateImport(&file); err != nil {
		return nil, fmt.Errorf("invalid import file: %w", err)
	}
	return &file, nil
}

func validateImport(file *ImportFile) error {
	seen := make(map[string]struct{}, len(file.Connections))
	for i, conn := range file.Connections {
		if conn.Name == "" {
			return fmt.Errorf("connection at index %d: name is required", i)
		}
		if _, dup := seen[conn.ID]; dup {
			return fmt.Errorf("connection '%s': duplicate id", conn.ID)
		}
		seen[conn.ID] = struct{}{}

		if err := conn.Descriptor().Validate(); err != nil {
			return err
		}
		if _, err := model.ParseSSLMode(conn.SSLMode); err != nil {
			return fmt.Errorf("connection '%s': %w", conn.ID, err)
		}
		if err := validatePasswordSource(conn.ID, conn.Password); err != nil {
			return err
		}
	}
	return nil
}

func validatePasswordSource(id string, src *PasswordSource) error {
	if src == nil {
		return nil
	}
	switch src.Type {
	case "":
		return fmt.Errorf("connection '%s': password.type is required", id)
	case PasswordPlainText, PasswordShell, PasswordKeychain, PasswordEnv:
		if src.Key == "" {
			return fmt.Errorf("connection '%s': password.key is required", id)
		}
		return nil
	default:
		return fmt.Errorf("connection '%s': password.type '%s' is not supported", id, src.Type)
	}
}

func slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
