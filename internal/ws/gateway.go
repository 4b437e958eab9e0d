// Package ws streams domain events to websocket clients. Clients subscribe
// by aggregate id (or to everything with an empty id) and receive event
// envelopes as they are published.
package ws

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/praxisworks/simforge/internal/domain/event"
)

const writeTimeout = 5 * time.Second

// Gateway is the fan-out hub. It implements event.Sink so it can be attached
// directly to the bus.
type Gateway struct {
	mu    sync.RWMutex
	conns map[string]map[*websocket.Conn]struct{}
}

// NewGateway creates an empty gateway.
func NewGateway() *Gateway {
	return &Gateway{conns: make(map[string]map[*websocket.Conn]struct{})}
}

// Handler accepts websocket subscriptions at /ws/simulations/{id}. An empty
// id subscribes to all events.
func (g *Gateway) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/ws/simulations/")
		topic := strings.Trim(path, "/")
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}

		g.add(topic, conn)
		defer g.remove(topic, conn)

		ctx := r.Context()
		for {
			var v any
			if err := wsjson.Read(ctx, conn, &v); err != nil {
				return
			}
		}
	}
}

// Publish implements event.Sink: the envelope goes to subscribers of its
// aggregate id and to the catch-all topic.
func (g *Gateway) Publish(env event.Envelope) error {
	g.Broadcast(env.AggregateID, env)
	if env.AggregateID != "" {
		g.Broadcast("", env)
	}
	return nil
}

// Broadcast writes v to every connection on a topic, dropping connections
// whose writes fail.
func (g *Gateway) Broadcast(topic string, v any) {
	conns := g.snapshot(topic)
	for _, conn := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := wsjson.Write(ctx, conn, v)
		cancel()
		if err != nil {
			go func(c *websocket.Conn) {
				c.Close(websocket.StatusGoingAway, "write error")
				g.remove(topic, c)
			}(conn)
		}
	}
}

func (g *Gateway) snapshot(topic string) []*websocket.Conn {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*websocket.Conn, 0, len(g.conns[topic]))
	for conn := range g.conns[topic] {
		out = append(out, conn)
	}
	return out
}

func (g *Gateway) add(topic string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.conns[topic] == nil {
		g.conns[topic] = make(map[*websocket.Conn]struct{})
	}
	g.conns[topic][conn] = struct{}{}
}

func (g *Gateway) remove(topic string, conn *websocket.Conn) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.conns[topic], conn)
	if len(g.conns[topic]) == 0 {
		delete(g.conns, topic)
	}
}
