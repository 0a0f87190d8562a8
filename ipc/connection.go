package ipc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
)

var ErrUnsupported = errors.New("unsupported message type")

// Handler answers one envelope. A nil envelope means no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection is one client of the decision socket. A client plays a single
// empire, known once its hello has been accepted.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler
	Empire   string
	handled  int
	failed   int
}

func NewConnection(conn net.Conn, handlers map[string]Handler) *Connection {
	c := &Connection{conn: conn, handlers: make(map[string]Handler, len(handlers))}
	for t, h := range handlers {
		c.handlers[t] = h
	}
	return c
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// dispatch routes env to its handler. Failures come back as error envelopes.
func (c *Connection) dispatch(env Envelope) (*Envelope, error) {
	h, ok := c.handlers[env.Type]
	if !ok {
		return c.fail(env, fmt.Errorf("%w %s", ErrUnsupported, env.Type))
	}
	resp, err := h(env)
	if err != nil {
		return c.fail(env, err)
	}
	c.handled++
	return resp, nil
}

func (c *Connection) fail(env Envelope, cause error) (*Envelope, error) {
	c.failed++
	slog.Warn("request failed", "type", env.Type, "empire", c.Empire, "error", cause)
	reply, err := NewEnvelope(TypeError, ErrorMessage{Message: cause.Error()})
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// ReadLoop serves requests until the client hangs up or a write fails, then
// closes the connection.
func (c *Connection) ReadLoop() {
	defer c.conn.Close()

	for {
		env, err := ReadEnvelope(c.conn)
		if errors.Is(err, io.EOF) {
			slog.Info("connection closed", "empire", c.Empire, "handled", c.handled, "failed", c.failed)
			return
		}
		if err != nil {
			slog.Warn("dropping connection", "empire", c.Empire, "error", err)
			return
		}

		resp, err := c.dispatch(env)
		if err != nil {
			slog.Error("failed to build reply", "type", env.Type, "error", err)
			return
		}
		if resp == nil {
			continue
		}
		if err := WriteEnvelope(c.conn, *resp); err != nil {
			slog.Error("failed to send response", "type", resp.Type, "error", err)
			return
		}
		slog.Debug("sent response", "type", resp.Type, "empire", c.Empire)
	}
}
