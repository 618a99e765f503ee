// Package inetd controls the inetd service unit over the systemd D-Bus API.
// The generator itself never touches the running daemon; reloads belong to
// the service-management side, which these helpers implement for operators.
package inetd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/ixops/inetd-gen/internal/log"
)

// Connection is the subset of the systemd D-Bus API the client needs.
// *dbus.Conn satisfies it.
type Connection interface {
	GetUnitPropertyContext(ctx context.Context, unit, propertyName string) (*dbus.Property, error)
	RestartUnitContext(ctx context.Context, name, mode string, ch chan<- string) (int, error)
	Close()
}

// Client wraps a systemd D-Bus connection for inetd unit operations.
type Client struct {
	conn   Connection
	logger log.Logger
}

// New connects to the system bus and returns a client.
func New(ctx context.Context, logger log.Logger) (*Client, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connecting to systemd: %w", err)
	}
	return &Client{conn: conn, logger: logger}, nil
}

// NewWithConnection creates a client around an existing connection.
func NewWithConnection(conn Connection, logger log.Logger) *Client {
	return &Client{conn: conn, logger: logger}
}

// Close releases the D-Bus connection.
func (c *Client) Close() {
	c.conn.Close()
}

// ActiveState returns the ActiveState property of the given unit.
func (c *Client) ActiveState(ctx context.Context, unit string) (string, error) {
	prop, err := c.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", fmt.Errorf("getting ActiveState for %s: %w", unit, err)
	}

	state, ok := prop.Value.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected ActiveState type for %s", unit)
	}
	return state, nil
}

// Restart restarts the given unit and waits for the job to finish.
func (c *Client) Restart(ctx context.Context, unit string) error {
	ch := make(chan string, 1)
	if _, err := c.conn.RestartUnitContext(ctx, unit, "replace", ch); err != nil {
		return fmt.Errorf("restarting %s: %w", unit, err)
	}

	select {
	case result := <-ch:
		if result != "done" {
			return fmt.Errorf("restart of %s finished with result %q", unit, result)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	c.logger.Debug("Unit restarted", "unit", unit)

	return nil
}
