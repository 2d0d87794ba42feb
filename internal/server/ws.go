package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/vovakirdan/tetris-battle/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
)

// serveWS upgrades to a websocket speaking the codec named by ?codec=.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	codec, err := protocol.CodecByName(r.URL.Query().Get("codec"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	s.track(ws)
	defer s.untrack(ws)

	conn := NewConn(s.coord, s.opts.EventBuffer, s.logger.With("transport", "ws", "codec", codec.Name()))
	conn.logger.Info("connection opened", "remote", r.RemoteAddr)

	go s.writePump(ws, conn, codec)
	s.readPump(ws, conn, codec)

	conn.logger.Info("connection closed", "participant", conn.Participant())
}

func (s *Server) readPump(ws *websocket.Conn, conn *Conn, codec protocol.Codec) {
	defer func() {
		conn.Close(context.Background())
		_ = ws.Close()
	}()

	ws.SetReadLimit(maxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	ctx := context.Background()
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				conn.logger.Debug("read failed", "error", err)
			}
			return
		}
		_ = ws.SetReadDeadline(time.Now().Add(pongWait))

		f, err := codec.Decode(msg)
		if err != nil {
			conn.Reject("", malformed(err))
			continue
		}
		conn.Handle(ctx, f)
	}
}

func (s *Server) writePump(ws *websocket.Conn, conn *Conn, codec protocol.Codec) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = ws.Close()
	}()

	msgType := websocket.TextMessage
	if codec.Binary() {
		msgType = websocket.BinaryMessage
	}

	session := conn.Session()
	for {
		select {
		case evt := <-session.Events():
			b, err := protocol.EncodeEvent(codec, evt)
			if err != nil {
				conn.logger.Warn("cannot encode event", "type", evt.EventType(), "error", err)
				continue
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(msgType, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-session.Done():
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
