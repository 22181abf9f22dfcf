package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/efebarandurmaz/ontometer/internal/httpx"
)

// VaultConfig configures the HashiCorp Vault provider.
type VaultConfig struct {
	// Address is the Vault server address (e.g., "http://localhost:8200")
	Address string
	// Token is the Vault authentication token
	Token string
	// MountPath is the KV v2 engine mount path (default: "secret")
	MountPath string
	// Timeout for Vault API requests
	Timeout time.Duration
}

// VaultProvider reads keys of KV v2 secrets. References have the form
// "path#key", e.g. "ontometer/neo4j#password".
type VaultProvider struct {
	config VaultConfig
	client *httpx.Client
}

// NewVaultProvider creates a Vault secrets provider.
func NewVaultProvider(config VaultConfig) (*VaultProvider, error) {
	if config.Address == "" {
		return nil, fmt.Errorf("vault address required")
	}
	if config.Token == "" {
		return nil, fmt.Errorf("vault token required")
	}
	if config.MountPath == "" {
		config.MountPath = "secret"
	}
	retry := httpx.DefaultRetryConfig()
	if config.Timeout > 0 {
		retry.Timeout = config.Timeout
	}
	return &VaultProvider{config: config, client: httpx.NewClient(retry, "ontometer")}, nil
}

func (p *VaultProvider) Name() string { return "vault" }

func (p *VaultProvider) Get(ctx context.Context, ref string) (string, error) {
	path, key, ok := strings.Cut(ref, "#")
	if !ok || path == "" || key == "" {
		return "", fmt.Errorf("vault reference %q must have the form path#key", ref)
	}

	url := fmt.Sprintf("%s/v1/%s/data/%s",
		strings.TrimSuffix(p.config.Address, "/"),
		strings.Trim(p.config.MountPath, "/"),
		strings.Trim(path, "/"),
	)
	resp, err := p.client.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("X-Vault-Token", p.config.Token)
		return req, nil
	})
	if err != nil {
		var statusErr *httpx.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("vault request: %w", err)
	}

	var result struct {
		Data struct {
			Data map[string]any `json:"data"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	val, ok := result.Data.Data[key]
	if !ok {
		return "", fmt.Errorf("%w: %s#%s", ErrNotFound, path, key)
	}
	if s, ok := val.(string); ok {
		return s, nil
	}
	return fmt.Sprintf("%v", val), nil
}
