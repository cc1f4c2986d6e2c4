// Package secrets resolves backend credentials that are kept in Vault instead
// of the process environment.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	vaultapi "github.com/hashicorp/vault/api"
)

const defaultTimeout = 15 * time.Second

type Options struct {
	Address   string
	Namespace string
	Token     string
	Timeout   time.Duration
}

// Ref points at one field of a KV v2 secret, written as "mount/path#field".
type Ref struct {
	Mount string
	Path  string
	Field string
}

func (r Ref) String() string {
	return r.Mount + "/" + r.Path + "#" + r.Field
}

// ParseRef parses "mount/path#field". The field defaults to "value".
func ParseRef(raw string) (Ref, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Ref{}, errors.New("vault secret path is empty")
	}
	location, field, _ := strings.Cut(raw, "#")
	field = strings.TrimSpace(field)
	if field == "" {
		field = "value"
	}
	location = normalizeMountPath(location)
	mount, path, ok := strings.Cut(location, "/")
	mount = normalizeMountPath(mount)
	path = normalizeMountPath(path)
	if !ok || mount == "" || path == "" {
		return Ref{}, fmt.Errorf("vault secret path %q must look like mount/path#field", raw)
	}
	return Ref{Mount: mount, Path: path, Field: field}, nil
}

type Client struct {
	client      *vaultapi.Client
	namespace   string
	addressHost string
}

func New(opts Options) (*Client, error) {
	address := strings.TrimSpace(opts.Address)
	if address == "" {
		return nil, errors.New("vault address is required")
	}
	token := strings.TrimSpace(opts.Token)
	if token == "" {
		return nil, errors.New("vault token is required")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	cfg := vaultapi.DefaultConfig()
	cfg.Address = address
	cfg.HttpClient = &http.Client{Timeout: timeout}
	addressHost := ""
	if parsed, err := neturl.Parse(address); err == nil {
		addressHost = strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	}

	client, err := vaultapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault client setup: %w", err)
	}
	namespace := strings.TrimSpace(opts.Namespace)
	if namespace != "" {
		client.SetNamespace(namespace)
	}
	client.SetToken(token)

	return &Client{
		client:      client,
		namespace:   namespace,
		addressHost: addressHost,
	}, nil
}

// ReadField returns one string field of a KV v2 secret.
func (c *Client) ReadField(ctx context.Context, ref Ref) (string, error) {
	secret, err := c.client.Logical().ReadWithContext(ctx, ref.Mount+"/data/"+ref.Path)
	if err != nil {
		return "", fmt.Errorf("vault read %s: %w", ref, c.withNamespaceHint(err))
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("vault read %s: secret not found", ref)
	}
	data, _ := secret.Data["data"].(map[string]any)
	value, _ := data[ref.Field].(string)
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("vault read %s: field is missing or empty", ref)
	}
	return value, nil
}

// ResolveAPIKey returns the static key when set, otherwise reads it from Vault.
func ResolveAPIKey(ctx context.Context, static string, opts Options, rawRef string) (string, error) {
	if key := strings.TrimSpace(static); key != "" {
		return key, nil
	}
	ref, err := ParseRef(rawRef)
	if err != nil {
		return "", err
	}
	client, err := New(opts)
	if err != nil {
		return "", err
	}
	return client.ReadField(ctx, ref)
}

func normalizeMountPath(path string) string {
	return strings.Trim(strings.TrimSpace(path), "/")
}

func (c *Client) withNamespaceHint(err error) error {
	if err == nil {
		return nil
	}
	if strings.TrimSpace(c.namespace) != "" {
		return err
	}
	if !strings.HasSuffix(c.addressHost, ".hashicorp.cloud") {
		return err
	}
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "permission denied") && !strings.Contains(msg, "403") {
		return err
	}
	return fmt.Errorf("%w (tip: set VAULT_NAMESPACE to \"admin\" for HCP Vault Dedicated)", err)
}
