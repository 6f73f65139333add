// Package secrets decrypts SOPS-encrypted values files so they can be layered
// into declaration values.
package secrets

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/getsops/sops/v3/decrypt"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/argonaut/internal/declaration"
)

// Decryptor decrypts SOPS files in-process using the key sources SOPS itself
// honors (age, PGP, cloud KMS).
type Decryptor struct {
	decrypt func(path, format string) ([]byte, error)
	logger  *slog.Logger
}

// NewDecryptor creates a Decryptor. A nil logger discards output.
func NewDecryptor(logger *slog.Logger) *Decryptor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Decryptor{
		decrypt: decrypt.File,
		logger:  logger.With("component", "secrets"),
	}
}

// Format returns the SOPS store format for a file, chosen by extension.
func Format(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".env":
		return "dotenv"
	case ".ini":
		return "ini"
	default:
		return "yaml"
	}
}

// Decrypt decrypts a SOPS-encrypted file and returns the plaintext bytes in
// the file's own format.
func (d *Decryptor) Decrypt(ctx context.Context, file string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := d.decrypt(file, Format(file))
	if err != nil {
		return nil, fmt.Errorf("sops decrypt failed for %s: %w", file, err)
	}
	d.logger.Debug("decrypted secrets", "file", file)
	return data, nil
}

// DecryptToMap decrypts a YAML or JSON secrets file and returns its data.
func (d *Decryptor) DecryptToMap(ctx context.Context, file string) (map[string]any, error) {
	switch format := Format(file); format {
	case "yaml", "json":
	default:
		return nil, fmt.Errorf("secrets file %s: %s format cannot hold structured values", file, format)
	}

	data, err := d.Decrypt(ctx, file)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := yaml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse decrypted data from %s: %w", file, err)
	}
	if result == nil {
		result = make(map[string]any)
	}
	return result, nil
}

// DecryptFiles decrypts several files and merges them in order. Later files
// override earlier ones; nested maps merge recursively.
func (d *Decryptor) DecryptFiles(ctx context.Context, files []string) (map[string]any, error) {
	merged := make(map[string]any)

	for _, file := range files {
		data, err := d.DecryptToMap(ctx, file)
		if err != nil {
			return nil, err
		}
		merged = declaration.DeepMerge(merged, data)
	}

	return merged, nil
}

// LoadValues reads a values overlay, decrypting it first when it carries SOPS
// metadata.
func (d *Decryptor) LoadValues(ctx context.Context, file string) (map[string]any, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read values file: %w", err)
	}
	if IsEncrypted(data) {
		return d.DecryptToMap(ctx, file)
	}
	return declaration.LoadValues(file)
}

// IsEncrypted reports whether a YAML or JSON document carries a top-level
// sops metadata block with a MAC.
func IsEncrypted(data []byte) bool {
	var doc struct {
		SOPS map[string]any `yaml:"sops"`
	}
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return false
	}
	_, ok := doc.SOPS["mac"]
	return ok
}
