// Package events publishes per-document build events so downstream
// consumers (site renderers, search indexers) can react without polling the
// output directory.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/mystbuilder/internal/config"
)

// DocBuilt describes one freshly written document artifact.
type DocBuilt struct {
	Docname  string        `json:"docname"`
	Slug     string        `json:"slug"`
	SHA256   string        `json:"sha256"`
	BuildID  string        `json:"build_id"`
	Duration time.Duration `json:"duration_ns"`
}

// Publisher emits build events. A nil *NATSPublisher is a valid no-op.
type Publisher interface {
	PublishDocBuilt(ev DocBuilt) error
	Close()
}

// NATSPublisher publishes events on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the configured NATS server.
func NewNATSPublisher(cfg *config.EventsConfig) (*NATSPublisher, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, fmt.Errorf("event publishing is disabled")
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("mystbuilder"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{conn: conn, subject: cfg.Subject}, nil
}

// PublishDocBuilt emits one document-built event.
func (p *NATSPublisher) PublishDocBuilt(ev DocBuilt) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal doc-built event: %w", err)
	}
	if err := p.conn.Publish(p.subject, payload); err != nil {
		return fmt.Errorf("publish doc-built event: %w", err)
	}
	return nil
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	if p == nil || p.conn == nil {
		return
	}
	_ = p.conn.Drain()
}
