package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yanqian/stop-survey/internal/domain/survey"
)

const defaultSubject = "stop-survey.run.completed"

// Conn is the subset of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

// RunCompleted is the notification body sent after each run.
type RunCompleted struct {
	RunID       string    `json:"runId"`
	OutputPath  string    `json:"outputPath"`
	Stops       int       `json:"stops"`
	Surveyed    int       `json:"surveyed"`
	CompletedAt time.Time `json:"completedAt"`
}

// NATSPublisher announces finished runs on a subject.
type NATSPublisher struct {
	conn    Conn
	subject string
}

// NewNATSPublisher constructs a publisher on an existing connection.
func NewNATSPublisher(conn Conn, subject string) *NATSPublisher {
	if strings.TrimSpace(subject) == "" {
		subject = defaultSubject
	}
	return &NATSPublisher{conn: conn, subject: subject}
}

// ConnectNATS dials the server with bounded reconnects.
func ConnectNATS(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("stop-survey"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return nc, nil
}

// Publish sends a RunCompleted message. The full payload is not included.
func (p *NATSPublisher) Publish(ctx context.Context, result survey.RunResult) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(RunCompleted{
		RunID:       result.RunID,
		OutputPath:  result.OutputPath,
		Stops:       result.Stops,
		Surveyed:    result.Surveyed,
		CompletedAt: result.CompletedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal run notification: %w", err)
	}
	return p.conn.Publish(p.subject, data)
}

var _ survey.Publisher = (*NATSPublisher)(nil)
