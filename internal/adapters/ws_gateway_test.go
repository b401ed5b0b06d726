package adapters

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"voicehub/internal/app"
	"voicehub/internal/core"
	"voicehub/internal/domain"
)

func newTestGateway() *Gateway {
	bcast := core.NewBroadcaster()
	coord := app.NewCoordinator(app.NewRegistry(), app.NewDirectory(domain.DefaultRooms), bcast)
	return &Gateway{Coord: coord, Bcast: bcast}
}

func newLocalConn() *wsConn {
	return &wsConn{send: make(chan core.Frame, 32)}
}

func recvEnvelope(t *testing.T, c *wsConn) (string, json.RawMessage) {
	t.Helper()
	select {
	case frame := <-c.send:
		var env struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, json.Unmarshal(frame, &env))
		return env.Event, env.Data
	default:
		t.Fatal("no frame queued")
		return "", nil
	}
}

func TestGateway_JoinAck(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()
	c1 := newLocalConn()
	g.Bcast.Attach("c1", c1)

	g.handleFrame("c1", c1, []byte(`{"event":"join","data":{"username":"alice","room":"General"}}`))

	// First frame is the user_joined fan-out, second the ack
	event, _ := recvEnvelope(t, c1)
	req.Equal(domain.EventUserJoined, event)
	event, data := recvEnvelope(t, c1)
	req.Equal(domain.EventJoined, event)

	var res domain.JoinResult
	req.NoError(json.Unmarshal(data, &res))
	req.True(res.Success)
	req.Equal(domain.RoomName("General"), res.Room)
	req.Equal([]string{"alice"}, res.Users)
}

func TestGateway_JoinErrorReply(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()
	c1 := newLocalConn()
	g.Bcast.Attach("c1", c1)

	g.handleFrame("c1", c1, []byte(`{"event":"join","data":{"room":"General"}}`))

	event, data := recvEnvelope(t, c1)
	req.Equal(domain.EventError, event)
	var reply domain.ErrorReply
	req.NoError(json.Unmarshal(data, &reply))
	req.Equal(domain.ErrMissingUsername.Error(), reply.Error)
}

func TestGateway_JoinOverlongUsernameErrorReply(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()
	c1 := newLocalConn()
	g.Bcast.Attach("c1", c1)

	name := strings.Repeat("x", domain.MaxUsernameLen+1)
	g.handleFrame("c1", c1, []byte(`{"event":"join","data":{"username":"`+name+`","room":"General"}}`))

	event, data := recvEnvelope(t, c1)
	req.Equal(domain.EventError, event)
	var reply domain.ErrorReply
	req.NoError(json.Unmarshal(data, &reply))
	req.Equal(domain.ErrUsernameTooLong.Error(), reply.Error)
	req.Empty(g.Coord.Usernames())
}

func TestGateway_LeaveWithoutJoinErrors(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()
	c1 := newLocalConn()
	g.Bcast.Attach("c1", c1)

	g.handleFrame("c1", c1, []byte(`{"event":"leave","data":{"room":"General"}}`))

	event, data := recvEnvelope(t, c1)
	req.Equal(domain.EventError, event)
	var reply domain.ErrorReply
	req.NoError(json.Unmarshal(data, &reply))
	req.Equal(domain.ErrInvalidRequest.Error(), reply.Error)
}

func TestGateway_VoiceDataRelayedToRoom(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()
	c1, c2 := newLocalConn(), newLocalConn()
	g.Bcast.Attach("c1", c1)
	g.Bcast.Attach("c2", c2)
	g.handleFrame("c1", c1, []byte(`{"event":"join","data":{"username":"alice","room":"General"}}`))
	g.handleFrame("c2", c2, []byte(`{"event":"join","data":{"username":"bob","room":"General"}}`))
	drain(c1)
	drain(c2)

	g.handleFrame("c1", c1, []byte(`{"event":"voice_data","data":{"room":"General","chunk":"b64"}}`))

	event, data := recvEnvelope(t, c2)
	req.Equal(domain.EventVoiceData, event)
	req.JSONEq(`{"room":"General","chunk":"b64"}`, string(data))
	// No echo to the speaker
	req.Empty(c1.send)
}

func TestGateway_UnknownAndMalformedFramesDropped(t *testing.T) {
	req := require.New(t)
	g := newTestGateway()
	c1 := newLocalConn()
	g.Bcast.Attach("c1", c1)

	g.handleFrame("c1", c1, []byte(`{"event":"teleport","data":{}}`))
	g.handleFrame("c1", c1, []byte(`not json at all`))
	g.handleFrame("c1", c1, []byte(`{"event":"voice_activity","data":"not-an-object"}`))

	req.Empty(c1.send)
}

func drain(c *wsConn) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}
