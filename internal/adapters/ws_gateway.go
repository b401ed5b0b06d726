package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"voicehub/internal/app"
	"voicehub/internal/core"
	"voicehub/internal/domain"
)

var ErrBackpressure = errors.New("send buffer full")

// Gateway owns the physical websocket sessions. It assigns a SessionID per
// connection, frames inbound events, and relays them to the coordinator.
// The core only ever sees the SessionID and the SignalConnection.
type Gateway struct {
	Coord      *app.Coordinator
	Bcast      *core.Broadcaster
	ReadLimit  int64
	PingPeriod time.Duration
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame
	once sync.Once
}

func (c *wsConn) TrySend(f core.Frame) error {
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

// Close shuts the socket only. The send channel stays open so a racing
// fan-out can never hit a closed channel; writePump exits via its context.
func (c *wsConn) Close() {
	c.once.Do(func() {
		if c.conn != nil {
			_ = c.conn.Close()
		}
	})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// inbound is the framed client event: a name plus an opaque payload.
type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (g *Gateway) HandleSession(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.gateway").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "adapters.gateway").Str("sid", string(sid)).Msg("client connected")

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	if g.ReadLimit > 0 {
		ws.SetReadLimit(g.ReadLimit)
	}
	g.Bcast.Attach(sid, conn)

	ctx, cancel := context.WithCancel(ctx)
	go g.writePump(ctx, cancel, conn)
	go g.readPump(ctx, cancel, sid, conn)
}

func (g *Gateway) writePump(ctx context.Context, cancel context.CancelFunc, c *wsConn) {
	ping := time.NewTicker(g.pingPeriod())
	defer func() {
		ping.Stop()
		cancel()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				log.Debug().Err(err).Str("module", "adapters.gateway").Msg("ping failed")
				return
			}
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "adapters.gateway").Msg("set write deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "adapters.gateway").Msg("write message")
				return
			}
		}
	}
}

func (g *Gateway) readPump(ctx context.Context, cancel context.CancelFunc, sid core.SessionID, c *wsConn) {
	defer func() {
		g.Coord.Disconnect(sid)
		cancel()
		c.Close()
		log.Info().Str("module", "adapters.gateway").Str("sid", string(sid)).Msg("client disconnected")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.gateway").Str("sid", string(sid)).Msg("read error")
				return
			}
			g.handleFrame(sid, c, data)
		}
	}
}

func (g *Gateway) handleFrame(sid core.SessionID, c *wsConn, data []byte) {
	var env inbound
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "adapters.gateway").Msg("bad frame")
		return
	}

	switch env.Event {
	case domain.EventJoin:
		g.handleJoin(sid, c, env.Data)
	case domain.EventLeave:
		g.handleLeave(sid, c, env.Data)
	case domain.EventVoiceData:
		g.Coord.RelayVoice(sid, env.Data)
	case domain.EventVoiceActivity:
		if payload := decodeObject(env.Data); payload != nil {
			g.Coord.RelayActivity(sid, payload)
		}
	case domain.EventMuteStatus:
		if payload := decodeObject(env.Data); payload != nil {
			g.Coord.RelayMute(sid, payload)
		}
	default:
		log.Debug().Str("module", "adapters.gateway").Str("event", env.Event).Msg("unknown event")
	}
}

func (g *Gateway) handleJoin(sid core.SessionID, c *wsConn, data json.RawMessage) {
	var p struct {
		Username string          `json:"username"`
		Room     domain.RoomName `json:"room"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			log.Debug().Err(err).Str("module", "adapters.gateway").Msg("bad join payload")
			return
		}
	}

	res, err := g.Coord.Join(sid, p.Username, p.Room)
	if err != nil {
		g.sendJSON(c, domain.EventError, domain.ErrorReply{Error: err.Error()})
		return
	}
	g.sendJSON(c, domain.EventJoined, res)
}

func (g *Gateway) handleLeave(sid core.SessionID, c *wsConn, data json.RawMessage) {
	var p struct {
		Room domain.RoomName `json:"room"`
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &p); err != nil {
			log.Debug().Err(err).Str("module", "adapters.gateway").Msg("bad leave payload")
			return
		}
	}

	if err := g.Coord.Leave(sid, p.Room); err != nil {
		g.sendJSON(c, domain.EventError, domain.ErrorReply{Error: err.Error()})
	}
}

func (g *Gateway) sendJSON(c *wsConn, event string, data any) {
	b, err := json.Marshal(core.Envelope{Event: event, Data: data})
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.gateway").Msg("marshal reply")
		return
	}
	_ = c.TrySend(b)
}

func decodeObject(data json.RawMessage) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		log.Debug().Err(err).Str("module", "adapters.gateway").Msg("bad relay payload")
		return nil
	}
	return payload
}

func (g *Gateway) pingPeriod() time.Duration {
	if g.PingPeriod > 0 {
		return g.PingPeriod
	}
	return 25 * time.Second
}
