package messaging

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Config holds NATS connection settings
type Config struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

// NewNATSConn connects to NATS with reconnect handlers wired to the
// global logger
func NewNATSConn(cfg Config) (*nats.Conn, error) {
	if cfg.MaxReconnects == 0 {
		cfg.MaxReconnects = -1
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}

	opts := []nats.Option{
		nats.Name("stock-alerts"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().Str("server", nc.ConnectedUrl()).Msg("Connected to NATS")
	return nc, nil
}

// NewJetStream creates a JetStream context on an existing connection
func NewJetStream(nc *nats.Conn) (nats.JetStreamContext, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return js, nil
}

// EnsureStream creates a JetStream stream if it does not already exist
func EnsureStream(js nats.JetStreamContext, name string, subjects []string, maxAge time.Duration) error {
	if _, err := js.StreamInfo(name); err == nil {
		return nil
	}

	_, err := js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Retention: nats.LimitsPolicy,
		MaxAge:    maxAge,
		Storage:   nats.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", name, err)
	}

	log.Info().
		Str("stream", name).
		Strs("subjects", subjects).
		Dur("max_age", maxAge).
		Msg("Created JetStream stream")

	return nil
}

// Close gracefully closes the NATS connection
func Close(nc *nats.Conn) {
	if nc != nil && !nc.IsClosed() {
		nc.Close()
		log.Info().Msg("NATS connection closed")
	}
}
