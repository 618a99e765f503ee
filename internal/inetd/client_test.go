package inetd

import (
	"context"
	"errors"
	"testing"

	"github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"
	"github.com/ixops/inetd-gen/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConnection struct {
	activeState   string
	propertyErr   error
	restartErr    error
	restartResult string
	restarted     []string
	closed        bool
}

func (f *fakeConnection) GetUnitPropertyContext(_ context.Context, unit, _ string) (*dbus.Property, error) {
	if f.propertyErr != nil {
		return nil, f.propertyErr
	}
	return &dbus.Property{Name: "ActiveState", Value: godbus.MakeVariant(f.activeState)}, nil
}

func (f *fakeConnection) RestartUnitContext(_ context.Context, name, _ string, ch chan<- string) (int, error) {
	if f.restartErr != nil {
		return 0, f.restartErr
	}
	f.restarted = append(f.restarted, name)
	ch <- f.restartResult
	return 1, nil
}

func (f *fakeConnection) Close() {
	f.closed = true
}

func TestActiveState(t *testing.T) {
	conn := &fakeConnection{activeState: "active"}
	client := NewWithConnection(conn, log.Nop())

	state, err := client.ActiveState(context.Background(), "inetd.service")
	require.NoError(t, err)
	assert.Equal(t, "active", state)
}

func TestActiveStateError(t *testing.T) {
	conn := &fakeConnection{propertyErr: errors.New("no such unit")}
	client := NewWithConnection(conn, log.Nop())

	_, err := client.ActiveState(context.Background(), "inetd.service")
	assert.ErrorContains(t, err, "no such unit")
}

func TestRestart(t *testing.T) {
	conn := &fakeConnection{restartResult: "done"}
	client := NewWithConnection(conn, log.Nop())

	err := client.Restart(context.Background(), "inetd.service")
	require.NoError(t, err)
	assert.Equal(t, []string{"inetd.service"}, conn.restarted)
}

func TestRestartFailedJob(t *testing.T) {
	conn := &fakeConnection{restartResult: "failed"}
	client := NewWithConnection(conn, log.Nop())

	err := client.Restart(context.Background(), "inetd.service")
	assert.ErrorContains(t, err, "failed")
}

func TestClose(t *testing.T) {
	conn := &fakeConnection{}
	client := NewWithConnection(conn, log.Nop())
	client.Close()
	assert.True(t, conn.closed)
}
