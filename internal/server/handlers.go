package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"github.com/vovakirdan/tetris-battle/internal/multiplayer"
)

const qrSize = 320

// StatusResponse is the body of /api/status.
type StatusResponse struct {
	Status    string    `json:"status"`
	Users     int       `json:"users"`
	Rooms     int       `json:"rooms"`
	Playing   int       `json:"playing"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) serveHealthCheck(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Ok\n"))
}

func (s *Server) serveVersion(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("tetris-battle " + s.opts.Version + "\n"))
}

func (s *Server) serveStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	st := s.coord.Stats()
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:    "ok",
		Users:     st.Users,
		Rooms:     st.Rooms,
		Playing:   st.Playing,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) serveRooms(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	writeJSON(w, http.StatusOK, s.coord.Rooms())
}

// serveRoomQR renders a PNG QR code of the room's invite link.
func (s *Server) serveRoomQR(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := multiplayer.RoomID(ps.ByName("id"))
	if _, ok := s.coord.GetRoom(id); !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	png, err := qrcode.Encode(s.inviteURL(r, id), qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Warn("qr generation failed", "room", id, "error", err)
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// inviteURL is the link a client follows to join a room.
func (s *Server) inviteURL(r *http.Request, id multiplayer.RoomID) string {
	base := strings.TrimSuffix(s.opts.PublicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + url.QueryEscape(string(id))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
