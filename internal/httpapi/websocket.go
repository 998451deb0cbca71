package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/audiocontrol/acrd/internal/alog"
	"github.com/audiocontrol/acrd/internal/bus"
	"github.com/audiocontrol/acrd/internal/model"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPingPeriod = 30 * time.Second

	// wsSubscribeReadWait bounds how long the server waits for the client's
	// initial subscription frame before falling back to "subscribed to
	// everything" (SPEC_FULL.md §7, original_source/integration_test/test_websocket.py).
	wsSubscribeReadWait = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// subscribeRequest is the first client frame on /api/events: a nil/omitted
// field means "any" (spec.md §4.2/§6).
type subscribeRequest struct {
	Players    []string          `json:"players"`
	EventTypes []model.EventType `json:"event_types"`
}

func filterFromRequest(req subscribeRequest) bus.Filter {
	var f bus.Filter
	if len(req.Players) > 0 {
		f.PlayerIDs = make(map[string]struct{}, len(req.Players))
		for _, id := range req.Players {
			f.PlayerIDs[id] = struct{}{}
		}
	}
	if len(req.EventTypes) > 0 {
		f.EventTypes = make(map[model.EventType]struct{}, len(req.EventTypes))
		for _, t := range req.EventTypes {
			f.EventTypes[t] = struct{}{}
		}
	}
	return f
}

// wireEnvelope is the wire shape of a single pushed event (spec.md §6).
type wireEnvelope struct {
	PlayerID string          `json:"player_id,omitempty"`
	Event    model.PlayerEvent `json:"event"`
}

// handleEvents upgrades to a WebSocket, reads the client's one-shot
// subscription frame, then forwards matching Bus events until the client
// disconnects. Grounded on the teacher's internal/control connection
// handling for the read/write-goroutine split, adapted here to a
// subscribe-then-stream protocol since the daemon has no client->server
// command traffic over this socket.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		alog.L().Warn().Err(err).Msg("events websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req subscribeRequest
	frameRead := true
	conn.SetReadDeadline(time.Now().Add(wsSubscribeReadWait))
	if err := conn.ReadJSON(&req); err != nil {
		var netErr net.Error
		if !errors.As(err, &netErr) || !netErr.Timeout() {
			return
		}
		// No subscription frame arrived in time: subscribe to everything.
		req = subscribeRequest{}
		frameRead = false
	}
	conn.SetReadDeadline(time.Time{})

	sub := s.Bus.Subscribe(filterFromRequest(req))
	defer sub.Close()

	_ = conn.WriteJSON(map[string]any{
		"type":                   "welcome",
		"subscribed_players":     req.Players,
		"subscribed_event_types": req.EventTypes,
	})

	done := make(chan struct{})
	if frameRead {
		go wsReadLoop(conn, done)
	}
	// A timed-out read leaves the connection unreadable, so after the
	// fallback no read loop runs and a disconnect shows up as a failed write.

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case item, ok := <-sub.C():
			if !ok {
				return
			}
			if err := writeWSItem(conn, item); err != nil {
				return
			}
		}
	}
}

// wsReadLoop drains (and discards) any further client frames so the
// connection's read deadline/pong handling keeps working, and closes done
// once the client disconnects.
func wsReadLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeWSItem(conn *websocket.Conn, item any) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))

	if count, ok := bus.LaggedCount(item); ok {
		return conn.WriteJSON(map[string]any{
			"type":  model.EventLagged,
			"count": count,
		})
	}

	env, ok := item.(bus.Envelope)
	if !ok {
		return nil
	}
	payload, err := json.Marshal(wireEnvelope{PlayerID: env.PlayerID, Event: env.Event})
	if err != nil {
		return nil
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}
