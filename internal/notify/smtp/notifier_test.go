package smtp

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	t.Parallel()

	_, err := New(Config{From: "a@x.com", To: []string{"b@x.com"}})
	assert.Error(t, err)

	_, err = New(Config{Host: "smtp.x.com", To: []string{"b@x.com"}})
	assert.Error(t, err)

	_, err = New(Config{Host: "smtp.x.com", From: "a@x.com"})
	assert.Error(t, err)

	n, err := New(Config{Host: "smtp.x.com", From: "a@x.com", To: []string{"b@x.com"}})
	require.NoError(t, err)
	assert.Equal(t, 587, n.cfg.Port)
}

func TestNotifySendsMessage(t *testing.T) {
	t.Parallel()

	n, err := New(Config{
		Host: "smtp.x.com",
		Port: 2525,
		From: "agent@x.com",
		To:   []string{"me@x.com", "omar@x.com"},
	})
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	n.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotMsg = msg
		return nil
	}

	err = n.Notify(context.Background(), "Run Report", "2 new leads stored.")
	require.NoError(t, err)

	assert.Equal(t, "smtp.x.com:2525", gotAddr)
	assert.Equal(t, "agent@x.com", gotFrom)
	assert.Equal(t, []string{"me@x.com", "omar@x.com"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: Run Report\r\n")
	assert.Contains(t, msg, "To: me@x.com, omar@x.com\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n2 new leads stored."))
}

func TestNotifyRespectsCancelledContext(t *testing.T) {
	t.Parallel()

	n, err := New(Config{Host: "smtp.x.com", From: "a@x.com", To: []string{"b@x.com"}})
	require.NoError(t, err)
	n.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send should not be called with a cancelled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = n.Notify(ctx, "s", "b")
	assert.Error(t, err)
}
