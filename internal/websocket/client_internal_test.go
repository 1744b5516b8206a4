package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shadowtalk/internal/config"
)

func TestNewClientAppliesConfiguredTunables(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{
		WriteWait:      3 * time.Second,
		PongWait:       20 * time.Second,
		PingPeriod:     15 * time.Second,
		MaxMessageSize: 4096,
	})

	c := NewClient(nil, hub, "user-1")

	assert.Equal(t, 3*time.Second, c.writeWait)
	assert.Equal(t, 20*time.Second, c.pongWait)
	assert.Equal(t, 15*time.Second, c.pingPeriod)
	assert.Equal(t, int64(4096), c.maxMessageSize)
}

func TestNewClientFallsBackToDefaults(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{})

	c := NewClient(nil, hub, "user-1")

	assert.Equal(t, defaultWriteWait, c.writeWait)
	assert.Equal(t, defaultPongWait, c.pongWait)
	assert.Equal(t, (defaultPongWait*9)/10, c.pingPeriod)
	assert.Equal(t, int64(defaultMaxMessageSize), c.maxMessageSize)
}

func TestNewClientRejectsPingPeriodAbovePongWait(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{
		PongWait:   10 * time.Second,
		PingPeriod: 30 * time.Second,
	})

	c := NewClient(nil, hub, "user-1")

	// A ping period at or beyond the pong wait would time every read out;
	// derive the usual fraction of the configured wait instead.
	assert.Equal(t, 9*time.Second, c.pingPeriod)
}
