package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fuzzyvid/storyreel-api/internal/sigv4"
)

// Compile-time check that LocalGateway implements Gateway.
var _ Gateway = (*LocalGateway)(nil)

// LocalGateway stores artifacts on local disk. Intended for development
// runs without object-store credentials; the presign contract is kept by
// signing URLs under the service's own /local/ route with throwaway
// credentials, so callers exercise the same retrieval protocol.
type LocalGateway struct {
	dir        string
	baseURL    string
	signer     *sigv4.Signer
	presignTTL time.Duration
}

// NewLocalGateway creates a disk-backed gateway rooted at dir. baseURL is
// the externally reachable prefix the service serves stored objects from.
func NewLocalGateway(dir, baseURL string, opts ...sigv4.Option) (*LocalGateway, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "storyreel")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	signer, err := sigv4.NewSigner(sigv4.Credentials{
		AccessKeyID:     "local",
		SecretAccessKey: "local-dev-secret",
	}, "local", "s3", opts...)
	if err != nil {
		return nil, err
	}

	return &LocalGateway{
		dir:        dir,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		signer:     signer,
		presignTTL: DefaultPresignTTL,
	}, nil
}

// Dir returns the root directory of the gateway.
func (g *LocalGateway) Dir() string {
	return g.dir
}

// Put stores the bytes under the key, creating parent directories as needed.
// The content type is kept in a sidecar file so Get can report it.
func (g *LocalGateway) Put(_ context.Context, key string, data []byte, contentType string) error {
	path, err := g.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0640); err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}

	meta, err := json.Marshal(objectMeta{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	if err := os.WriteFile(path+".meta", meta, 0640); err != nil {
		return fmt.Errorf("storage: put %s: %w", key, err)
	}
	return nil
}

// Get fetches the bytes and content type stored under the key.
func (g *LocalGateway) Get(_ context.Context, key string) ([]byte, string, error) {
	path, err := g.path(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, "", fmt.Errorf("storage: get %s: %w", key, err)
	}

	contentType := "application/octet-stream"
	if metaBytes, err := os.ReadFile(path + ".meta"); err == nil {
		var meta objectMeta
		if json.Unmarshal(metaBytes, &meta) == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}
	return data, contentType, nil
}

// Presign mints a signed URL under the local /local/ route.
func (g *LocalGateway) Presign(_ context.Context, key string) (string, error) {
	signed, err := g.signer.Presign(http.MethodGet, g.baseURL+"/local/"+key, g.presignTTL)
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return signed, nil
}

// path resolves a key inside the root directory, rejecting traversal.
func (g *LocalGateway) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) || filepath.IsAbs(clean) {
		return "", fmt.Errorf("storage: invalid key %q", key)
	}
	return filepath.Join(g.dir, clean), nil
}

type objectMeta struct {
	ContentType string `json:"content_type"`
}
