package service

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/marcogbarcellos/pgstudio/internal/infrastructure/storage"
)

const shellPasswordTimeout = 10 * time.Second

// PasswordService resolves the password sources allowed in import files.
type PasswordService struct {
	secrets SecretStore
	lookup  func(string) (string, bool)
}

func NewPasswordService(secrets SecretStore) *PasswordService {
	return &PasswordService{secrets: secrets, lookup: os.LookupEnv}
}

// Resolve returns the secret described by src.
func (ps *PasswordService) Resolve(ctx context.Context, src *storage.PasswordSource) (string, error) {
	if src == nil {
		return "", fmt.Errorf("password source is nil")
	}

	switch src.Type {
	case storage.PasswordPlainText:
		if src.Key == "" {
			return "", fmt.Errorf("password key cannot be empty")
		}
		return src.Key, nil
	case storage.PasswordShell:
		return ps.resolveShell(ctx, src.Key)
	case storage.PasswordKeychain:
		return ps.resolveKeychain(src.Key)
	case storage.PasswordEnv:
		return ps.resolveEnv(src.Key)
	default:
		return "", fmt.Errorf("unsupported password provider type: %s", src.Type)
	}
}

func (ps *PasswordService) resolveShell(ctx context.Context, command string) (string, error) {
	if strings.TrimSpace(command) == "" {
		return "", fmt.Errorf("shell password command cannot be empty")
	}

	ctx, cancel := context.WithTimeout(ctx, shellPasswordTimeout)
	defer cancel()
	output, err := exec.CommandContext(ctx, "/bin/sh", "-c", command).Output()
	if err != nil {
		return "", fmt.Errorf("shell password command failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

func (ps *PasswordService) resolveKeychain(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("keychain key cannot be empty")
	}
	if ps.secrets == nil {
		return "", fmt.Errorf("keychain lookup failed: no credential store")
	}
	secret, err := ps.secrets.Secret(key)
	if err != nil {
		return "", fmt.Errorf("keychain lookup failed: %w", err)
	}
	if secret == "" {
		return "", fmt.Errorf("keychain entry '%s' not found", key)
	}
	return strings.TrimSpace(secret), nil
}

func (ps *PasswordService) resolveEnv(name string) (string, error) {
	value, ok := ps.lookup(name)
	if !ok {
		return "", fmt.Errorf("environment variable %s is not set", name)
	}
	return value, nil
}
