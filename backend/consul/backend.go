package consul

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/hashicorp/consul/api"
	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/data"
)

// ConsulBackend reads archives stored as values in Consul KV.
//
// Limitations:
// - Consul KV has a 512KB limit per value, so this suits small overlay
//   sources (mods shipped as a handful of tiny catalogs), not a full install
// - A range read fetches the whole value and slices it locally
type ConsulBackend struct {
	mu     sync.RWMutex
	client *api.Client
	kv     *api.KV

	config *ConsulBackendConfig
}

// ConsulBackendConfig contains configuration options for the Consul backend
type ConsulBackendConfig struct {
	// Address of the Consul server (default: "127.0.0.1:8500")
	Address string

	// Token for Consul ACL authentication (optional)
	Token string

	// Datacenter to use (optional)
	Datacenter string

	// Prefix for all keys in Consul KV (default: no prefix)
	Prefix string
}

// NewConsulBackend creates a new Consul-backed archive storage
func NewConsulBackend(config *ConsulBackendConfig) (*ConsulBackend, error) {
	if config == nil {
		config = &ConsulBackendConfig{}
	}

	if config.Address == "" {
		config.Address = "127.0.0.1:8500"
	}
	config.Prefix = data.NormalizePath(config.Prefix)

	clientConfig := api.DefaultConfig()
	clientConfig.Address = config.Address
	if config.Token != "" {
		clientConfig.Token = config.Token
	}
	if config.Datacenter != "" {
		clientConfig.Datacenter = config.Datacenter
	}

	client, err := api.NewClient(clientConfig)
	if err != nil {
		return nil, err
	}

	return &ConsulBackend{
		client: client,
		kv:     client.KV(),
		config: config,
	}, nil
}

// Name returns the identifier name defined for this backend
func (*ConsulBackend) Name() string {
	return "consul"
}

// Open is part of the lifecycle behaviour and gets called when opening this backend
func (cb *ConsulBackend) Open(ctx context.Context) error {
	// Nothing to initialize - Consul handles connections
	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend
func (cb *ConsulBackend) Close(ctx context.Context) error {
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend
func (cb *ConsulBackend) GetCapabilities() *backend.BackendCapabilities {
	return &backend.BackendCapabilities{
		Capabilities: []backend.BackendCapability{
			backend.CapabilityListing,
			backend.CapabilityPersistence,
		},
		MaxObjectSize: 512 * 1024,
	}
}

func (cb *ConsulBackend) ListObjects(ctx context.Context, dir string) ([]*data.ObjectStat, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	dir = data.NormalizePath(dir)
	prefix := cb.buildKey(dir)
	if prefix != "" {
		prefix += "/"
	}

	keys, _, err := cb.kv.Keys(prefix, "/", (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 && dir != "" {
		return nil, data.ErrNotExist
	}

	stats := make([]*data.ObjectStat, 0, len(keys))
	for _, key := range keys {
		name := strings.TrimSuffix(strings.TrimPrefix(key, prefix), "/")
		if name == "" {
			continue
		}

		stat := &data.ObjectStat{
			Key:   data.JoinPath(dir, name),
			Name:  name,
			IsDir: strings.HasSuffix(key, "/"),
		}
		stats = append(stats, stat)
	}

	return stats, nil
}

func (cb *ConsulBackend) OpenObject(ctx context.Context, key string) (io.ReadCloser, error) {
	value, err := cb.get(ctx, key)
	if err != nil {
		return nil, err
	}

	return io.NopCloser(bytes.NewReader(value)), nil
}

func (cb *ConsulBackend) ReadObject(ctx context.Context, key string, offset int64, buf []byte) (int, error) {
	value, err := cb.get(ctx, key)
	if err != nil {
		return 0, err
	}

	return bytes.NewReader(value).ReadAt(buf, offset)
}

func (cb *ConsulBackend) get(ctx context.Context, key string) ([]byte, error) {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	pair, _, err := cb.kv.Get(cb.buildKey(key), (&api.QueryOptions{}).WithContext(ctx))
	if err != nil {
		return nil, err
	}

	if pair == nil {
		return nil, data.ErrNotExist
	}

	return pair.Value, nil
}

// buildKey constructs the full Consul KV key from the object key
func (cb *ConsulBackend) buildKey(key string) string {
	return data.JoinPath(cb.config.Prefix, key)
}
