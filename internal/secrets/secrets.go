// Package secrets resolves credential references in configuration values.
//
// A value of the form "env:NAME" reads an environment variable,
// "file:/path" reads a mounted secret file and "vault:path#key" reads a key
// from a HashiCorp Vault KV v2 secret. Any other value is returned as is.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Reference schemes.
const (
	SchemeEnv   = "env:"
	SchemeFile  = "file:"
	SchemeVault = "vault:"
)

// ErrNotFound is returned when a referenced secret does not exist.
var ErrNotFound = errors.New("secret not found")

// Provider reads one kind of secret reference.
type Provider interface {
	Get(ctx context.Context, ref string) (string, error)
	Name() string
}

// Resolver dispatches references to providers and caches the results for
// the life of the process.
type Resolver struct {
	env   Provider
	file  Provider
	vault Provider

	mu    sync.RWMutex
	cache map[string]string
}

// NewResolver creates a Resolver. A nil vault leaves "vault:" references
// unresolvable.
func NewResolver(vault *VaultProvider) *Resolver {
	r := &Resolver{
		env:   EnvProvider{},
		file:  FileProvider{},
		cache: make(map[string]string),
	}
	if vault != nil {
		r.vault = vault
	}
	return r
}

// IsReference reports whether value names a secret instead of holding one.
func IsReference(value string) bool {
	return strings.HasPrefix(value, SchemeEnv) ||
		strings.HasPrefix(value, SchemeFile) ||
		strings.HasPrefix(value, SchemeVault)
}

// Resolve returns the secret value is referring to, or value itself when
// it is not a reference.
func (r *Resolver) Resolve(ctx context.Context, value string) (string, error) {
	if !IsReference(value) {
		return value, nil
	}

	r.mu.RLock()
	cached, ok := r.cache[value]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	var (
		p   Provider
		ref string
	)
	switch {
	case strings.HasPrefix(value, SchemeEnv):
		p, ref = r.env, strings.TrimPrefix(value, SchemeEnv)
	case strings.HasPrefix(value, SchemeFile):
		p, ref = r.file, strings.TrimPrefix(value, SchemeFile)
	default:
		if r.vault == nil {
			return "", fmt.Errorf("resolve %q: vault is not configured", value)
		}
		p, ref = r.vault, strings.TrimPrefix(value, SchemeVault)
	}

	secret, err := p.Get(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("%s secret: %w", p.Name(), err)
	}

	r.mu.Lock()
	r.cache[value] = secret
	r.mu.Unlock()
	return secret, nil
}

// ResolveAll resolves each pointer in place, stopping at the first error.
func (r *Resolver) ResolveAll(ctx context.Context, values ...*string) error {
	for _, v := range values {
		resolved, err := r.Resolve(ctx, *v)
		if err != nil {
			return err
		}
		*v = resolved
	}
	return nil
}

// EnvProvider reads environment variables.
type EnvProvider struct{}

func (EnvProvider) Name() string { return "env" }

func (EnvProvider) Get(_ context.Context, name string) (string, error) {
	val, ok := os.LookupEnv(name)
	if !ok || val == "" {
		return "", fmt.Errorf("%w: $%s", ErrNotFound, name)
	}
	return val, nil
}

// FileProvider reads secret files such as Docker or Kubernetes mounted
// secrets. Surrounding whitespace is trimmed.
type FileProvider struct{}

func (FileProvider) Name() string { return "file" }

func (FileProvider) Get(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
