package favorites

import (
	"context"
	"fmt"

	"github.com/valkey-io/valkey-go"

	"daily-joke/internal/config"
)

// ValkeyBackend stores values under prefixed keys in Valkey (or Redis).
type ValkeyBackend struct {
	client valkey.Client
	prefix string
}

func NewValkeyBackend(client valkey.Client, prefix string) *ValkeyBackend {
	if prefix == "" {
		prefix = "dailyjoke"
	}
	return &ValkeyBackend{client: client, prefix: prefix}
}

// DialValkey connects using the configured address and wraps the client.
func DialValkey(cfg config.ValkeyConfig) (*ValkeyBackend, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress: []string{cfg.Addr},
		Password:    cfg.Password,
		SelectDB:    cfg.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", cfg.Addr, err)
	}
	return NewValkeyBackend(client, cfg.Prefix), nil
}

func (v *ValkeyBackend) Close() error {
	v.client.Close()
	return nil
}

func (v *ValkeyBackend) Get(ctx context.Context, key string) ([]byte, error) {
	resp := v.client.Do(ctx, v.client.B().Get().Key(v.key(key)).Build())
	payload, err := resp.AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return payload, nil
}

func (v *ValkeyBackend) Put(ctx context.Context, key string, value []byte) error {
	cmd := v.client.B().Set().Key(v.key(key)).Value(valkey.BinaryString(value)).Build()
	return v.client.Do(ctx, cmd).Error()
}

func (v *ValkeyBackend) key(k string) string {
	return fmt.Sprintf("%s:%s", v.prefix, k)
}

var _ Backend = (*ValkeyBackend)(nil)
