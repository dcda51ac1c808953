package model

import (
	"fmt"
	"strings"
	"time"
)

// SSLMode is the transport-security policy of a connection.
type SSLMode string

const (
	SSLModePrefer  SSLMode = "prefer"
	SSLModeRequire SSLMode = "require"
	SSLModeDisable SSLMode = "disable"
)

const DefaultPort = 5432

// ParseSSLMode normalizes s; an empty value means prefer.
func ParseSSLMode(s string) (SSLMode, error) {
	switch mode := SSLMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return SSLModePrefer, nil
	case SSLModePrefer, SSLModeRequire, SSLModeDisable:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported ssl mode %q (want prefer, require or disable)", s)
	}
}

// ConnectionDescriptor is everything needed to open a session.
// Password is never serialized.
type ConnectionDescriptor struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Host     string  `json:"host" yaml:"host"`
	Port     int     `json:"port" yaml:"port"`
	Database string  `json:"database" yaml:"database"`
	User     string  `json:"user" yaml:"user"`
	Password string  `json:"-" yaml:"-"`
	SSLMode  SSLMode `json:"sslMode" yaml:"ssl_mode"`
	Color    *string `json:"color,omitempty" yaml:"color,omitempty"`
}

// Validate checks the fields required to reach a server.
func (d ConnectionDescriptor) Validate() error {
	if strings.TrimSpace(d.ID) == "" {
		return fmt.Errorf("connection id is required")
	}
	if strings.TrimSpace(d.Host) == "" {
		return fmt.Errorf("connection '%s': host is required", d.ID)
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("connection '%s': port must be between 1 and 65535", d.ID)
	}
	if strings.TrimSpace(d.Database) == "" {
		return fmt.Errorf("connection '%s': database is required", d.ID)
	}
	if strings.TrimSpace(d.User) == "" {
		return fmt.Errorf("connection '%s': user is required", d.ID)
	}
	if _, err := ParseSSLMode(string(d.SSLMode)); err != nil {
		return fmt.Errorf("connection '%s': %w", d.ID, err)
	}
	return nil
}

// WithDatabase returns a copy pointing at another database on the same server.
func (d ConnectionDescriptor) WithDatabase(database string) ConnectionDescriptor {
	d.Database = database
	return d
}

// ConnectionRecord is a stored connection. It never holds a credential.
type ConnectionRecord struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Host      string    `json:"host" db:"host"`
	Port      int       `json:"port" db:"port"`
	Database  string    `json:"database" db:"database"`
	User      string    `json:"user" db:"user"`
	SSLMode   SSLMode   `json:"sslMode" db:"ssl_mode"`
	Color     *string   `json:"color,omitempty" db:"color"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Descriptor turns a stored record into a descriptor carrying password.
func (r ConnectionRecord) Descriptor(password string) ConnectionDescriptor {
	return ConnectionDescriptor{
		ID:       r.ID,
		Name:     r.Name,
		Host:     r.Host,
		Port:     r.Port,
		Database: r.Database,
		User:     r.User,
		Password: password,
		SSLMode:  r.SSLMode,
		Color:    r.Color,
	}
}

// RecordFromDescriptor drops the credential from d.
func RecordFromDescriptor(d ConnectionDescriptor) ConnectionRecord {
	mode, err := ParseSSLMode(string(d.SSLMode))
	if err != nil {
		mode = SSLModePrefer
	}
	return ConnectionRecord{
		ID:       d.ID,
		Name:     d.Name,
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		User:     d.User,
		SSLMode:  mode,
		Color:    d.Color,
	}
}
