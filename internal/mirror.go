package internal

import (
	"fmt"

	"github.com/kwkoo/go-birdr/internal/common"
	"github.com/kwkoo/go-birdr/internal/logger"
	"github.com/nats-io/nats.go"
)

const defaultMirrorSubject = "birdr.session"

type natsPublisher interface {
	Publish(subject string, data []byte) error
}

// NATSMirror publishes every session state as JSON on
// <subject>.<game token>, or <subject>.idle between games.
type NATSMirror struct {
	nc      *nats.Conn
	pub     natsPublisher
	subject string
}

func ConnectNATSMirror(url, subject string) (*NATSMirror, error) {
	log := logger.For("nats")
	log.Info().Str("url", url).Msg("connecting to NATS")
	nc, err := nats.Connect(url, nats.Name("birdr-client"))
	if err != nil {
		return nil, fmt.Errorf("error connecting to NATS at %s: %w", url, err)
	}
	log.Info().Msg("successfully connected to NATS")
	m := newNATSMirror(nc, subject)
	m.nc = nc
	return m, nil
}

func newNATSMirror(pub natsPublisher, subject string) *NATSMirror {
	if subject == "" {
		subject = defaultMirrorSubject
	}
	return &NATSMirror{pub: pub, subject: subject}
}

func (m *NATSMirror) subjectFor(state common.SessionState) string {
	if state.GameToken == "" {
		return m.subject + ".idle"
	}
	return m.subject + "." + state.GameToken
}

func (m *NATSMirror) Publish(state common.SessionState) error {
	data, err := state.Marshal()
	if err != nil {
		return fmt.Errorf("could not marshal session state: %w", err)
	}
	subject := m.subjectFor(state)
	if err := m.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("could not publish to %s: %w", subject, err)
	}
	return nil
}

// Close flushes pending messages and closes the NATS connection.
func (m *NATSMirror) Close() {
	if m == nil || m.nc == nil {
		return
	}
	if err := m.nc.Drain(); err != nil {
		log := logger.For("nats")
		log.Warn().Err(err).Msg("error draining NATS connection")
	}
}
