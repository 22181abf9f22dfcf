// Package publish announces finished assessments on a message bus.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/efebarandurmaz/ontometer/internal/evaluation"
)

// DefaultSubject is the subject assessments are published on.
const DefaultSubject = "ontometer.assessments"

// Message headers set on every published assessment.
const (
	HeaderAssessmentID = "Ontometer-Assessment-Id"
	HeaderSource       = "Ontometer-Source"
)

// Publisher publishes assessments.
type Publisher interface {
	evaluation.Publisher
	Close() error
}

// NATS publishes assessment JSON to a NATS subject.
type NATS struct {
	conn     *nats.Conn
	subject  string
	ownsConn bool
}

// Connect dials url and returns a publisher that owns the connection.
func Connect(url, subject string) (*NATS, error) {
	conn, err := nats.Connect(url, nats.Name("ontometer"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	p := NewNATS(conn, subject)
	p.ownsConn = true
	return p, nil
}

// NewNATS wraps an existing connection. Close leaves conn open.
func NewNATS(conn *nats.Conn, subject string) *NATS {
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATS{conn: conn, subject: subject}
}

// Publish sends a and waits until the server has received it.
func (n *NATS) Publish(ctx context.Context, a *evaluation.Assessment) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}
	msg := nats.NewMsg(n.subject)
	msg.Header.Set(HeaderAssessmentID, a.ID)
	msg.Header.Set(HeaderSource, a.Source)
	msg.Data = data
	if err := n.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish assessment %s: %w", a.ID, err)
	}

	if _, ok := ctx.Deadline(); ok {
		err = n.conn.FlushWithContext(ctx)
	} else {
		err = n.conn.FlushTimeout(5 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("flush assessment %s: %w", a.ID, err)
	}
	return nil
}

// Connected reports whether the connection is currently up.
func (n *NATS) Connected() bool {
	return n.conn.IsConnected()
}

// Close drains the connection if the publisher owns it.
func (n *NATS) Close() error {
	if !n.ownsConn {
		return nil
	}
	return n.conn.Drain()
}

// Nop discards assessments. It is used when publishing is disabled.
type Nop struct{}

func (Nop) Publish(context.Context, *evaluation.Assessment) error { return nil }
func (Nop) Close() error                                          { return nil }
