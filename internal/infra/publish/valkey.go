package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/stop-survey/internal/domain/survey"
)

const defaultValkeyKey = "stop-survey:latest"

// ValkeyPublisher mirrors the latest payload into a Valkey key for other readers.
type ValkeyPublisher struct {
	client valkey.Client
	key    string
}

// NewValkeyPublisher constructs a publisher backed by Valkey.
func NewValkeyPublisher(client valkey.Client, key string) *ValkeyPublisher {
	if strings.TrimSpace(key) == "" {
		key = defaultValkeyKey
	}
	return &ValkeyPublisher{client: client, key: key}
}

// Publish stores the payload and its completion time.
func (p *ValkeyPublisher) Publish(ctx context.Context, result survey.RunResult) error {
	cmds := p.commands(result)
	for i, resp := range p.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("valkey publish command %d: %w", i, err)
		}
	}
	return nil
}

func (p *ValkeyPublisher) commands(result survey.RunResult) valkey.Commands {
	return valkey.Commands{
		p.client.B().Set().Key(p.key).Value(string(result.Payload)).Build(),
		p.client.B().Set().Key(p.updatedAtKey()).Value(result.CompletedAt.UTC().Format(time.RFC3339)).Build(),
	}
}

func (p *ValkeyPublisher) updatedAtKey() string {
	return p.key + ":updated_at"
}

// ValkeyOptions accepts either a bare host:port or a redis:// style URL.
func ValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	if strings.TrimSpace(addr) == "" {
		return valkey.ClientOption{}, fmt.Errorf("valkey addr is required")
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

var _ survey.Publisher = (*ValkeyPublisher)(nil)
