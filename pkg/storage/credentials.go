package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/retry"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"
)

const CarwashDir = ".carwash"
const CredentialsFile = "credentials.yaml"
const ConfigFile = "config.yaml"

// TokenKey is the key the admin bearer token is persisted under.
const TokenKey = "adminToken"

// ErrNoCredential is returned by Token when nothing is persisted.
var ErrNoCredential = errors.New("no stored credential")

// DefaultDir returns ~/.carwash, or .carwash when the home directory is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return CarwashDir
	}
	return filepath.Join(home, CarwashDir)
}

// DefaultCredentialsPath returns the default credentials file location.
func DefaultCredentialsPath() string {
	return filepath.Join(DefaultDir(), CredentialsFile)
}

// CredentialFile persists the admin token in a YAML file readable only by
// its owner. Keys other than TokenKey are preserved on write.
type CredentialFile struct {
	path        string
	retryConfig retry.Config

	mu sync.Mutex
}

func NewCredentialFile(path string) *CredentialFile {
	if path == "" {
		path = DefaultCredentialsPath()
	}
	return &CredentialFile{
		path: path,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Path returns the file location.
func (f *CredentialFile) Path() string {
	return f.path
}

// Load returns the persisted token, or "" when none is stored.
func (f *CredentialFile) Load() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		return "", err
	}
	return values[TokenKey], nil
}

// Save persists token, creating the directory if needed.
func (f *CredentialFile) Save(token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		return err
	}
	values[TokenKey] = token
	return f.write(values)
}

// Clear removes the token. The file is deleted once it holds nothing else.
func (f *CredentialFile) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	values, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := values[TokenKey]; !ok {
		return nil
	}
	delete(values, TokenKey)
	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove credentials file: %w", err)
		}
		return nil
	}
	return f.write(values)
}

// Token implements oauth2.TokenSource.
func (f *CredentialFile) Token() (*oauth2.Token, error) {
	token, err := f.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, ErrNoCredential
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

func (f *CredentialFile) read() (map[string]string, error) {
	retryer := retry.New[map[string]string](f.retryConfig)
	return retryer.Do(context.Background(), func(ctx context.Context) (map[string]string, error) {
		// #nosec G304 -- path is chosen by the operator
		data, err := os.ReadFile(f.path)
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		values := map[string]string{}
		if err := yaml.Unmarshal(data, &values); err != nil {
			return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
		}
		return values, nil
	})
}

func (f *CredentialFile) write(values map[string]string) error {
	dir := filepath.Dir(f.path)
	// G301: Use 0700 for directories
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create credentials directory: %w", err)
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write credentials: %w", err)
	}
	// G306: Use 0600 for files
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("failed to set credentials permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace credentials file: %w", err)
	}
	return nil
}
