package multiplayer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// CoordinatorConfig holds configuration for the coordinator.
type CoordinatorConfig struct {
	DefaultMaxPlayers int           // Capacity when a room is created without one
	MaxPlayersLimit   int           // Largest capacity a room may ask for
	CountdownFrom     int           // First countdown value announced
	CountdownInterval time.Duration // Delay between countdown values
	TimeLimit         time.Duration // Default match time limit carried by rooms
	RoomIdleTimeout   time.Duration // Rooms without activity for this long are destroyed
	OfflineTTL        time.Duration // Offline users are forgotten after this long
	CleanupPeriod     time.Duration // How often to sweep rooms and users
}

// DefaultCoordinatorConfig returns sensible defaults.
func DefaultCoordinatorConfig() CoordinatorConfig {
	return CoordinatorConfig{
		DefaultMaxPlayers: 2,
		MaxPlayersLimit:   8,
		CountdownFrom:     3,
		CountdownInterval: time.Second,
		TimeLimit:         180 * time.Second,
		RoomIdleTimeout:   30 * time.Minute,
		OfflineTTL:        5 * time.Minute,
		CleanupPeriod:     30 * time.Second,
	}
}

// MatchResultSaver is an interface for saving match results.
// This allows the coordinator to save results without depending on the storage package.
type MatchResultSaver interface {
	SaveMatchResult(result MatchResultData) error
}

// PlayerResult is one player's line in a match result.
// Scores are reported by clients and are not verified.
type PlayerResult struct {
	ID       ParticipantID
	Username string
	Score    int
}

// MatchResultData contains match result data for persistence.
type MatchResultData struct {
	MatchID   MatchID
	RoomID    RoomID
	RoomName  string
	Players   []PlayerResult
	WinnerID  ParticipantID // Empty unless EndReason is completed
	EndReason MatchEndReason
	StartedAt time.Time
	Duration  time.Duration
}

// CreateRoomRequest holds the parameters of room:create.
type CreateRoomRequest struct {
	Name       string
	HostID     ParticipantID
	MaxPlayers int // 0 selects the default
	TimeLimit  int // Seconds, 0 selects the default
}

// Stats is a point-in-time summary for the status endpoint.
type Stats struct {
	Users   int
	Rooms   int
	Playing int
}

// Coordinator owns all rooms. Operations on one room are serialized by that
// room's lock; operations on different rooms run in parallel.
type Coordinator struct {
	config      CoordinatorConfig
	sessions    *SessionRegistry
	relay       *Relay
	resultSaver MatchResultSaver // Optional, can be nil
	logger      *log.Logger
	now         func() time.Time

	mu    sync.RWMutex // Guards the rooms map only; never held while taking a room lock
	rooms map[RoomID]*roomEntry

	done     chan struct{}
	stopOnce sync.Once
}

type roomEntry struct {
	mu        sync.Mutex
	room      Room
	countdown *scheduledTask // Non-nil while a countdown is pending
	matchID   MatchID
	closed    bool
}

// NewCoordinator creates a new coordinator.
func NewCoordinator(cfg CoordinatorConfig, sessions *SessionRegistry) *Coordinator {
	def := DefaultCoordinatorConfig()
	if cfg.DefaultMaxPlayers < 2 {
		cfg.DefaultMaxPlayers = def.DefaultMaxPlayers
	}
	if cfg.MaxPlayersLimit < cfg.DefaultMaxPlayers {
		cfg.MaxPlayersLimit = cfg.DefaultMaxPlayers
	}
	if cfg.CountdownInterval <= 0 {
		cfg.CountdownInterval = def.CountdownInterval
	}
	if cfg.CleanupPeriod <= 0 {
		cfg.CleanupPeriod = def.CleanupPeriod
	}
	return &Coordinator{
		config:   cfg,
		sessions: sessions,
		relay:    NewRelay(sessions),
		logger:   log.New(io.Discard),
		now:      time.Now,
		rooms:    make(map[RoomID]*roomEntry),
		done:     make(chan struct{}),
	}
}

// SetResultSaver sets the optional match result saver.
func (c *Coordinator) SetResultSaver(saver MatchResultSaver) {
	c.resultSaver = saver
}

// SetLogger sets the logger used for lifecycle events.
func (c *Coordinator) SetLogger(logger *log.Logger) {
	if logger != nil {
		c.logger = logger
	}
}

// Sessions returns the registry the coordinator resolves participants with.
func (c *Coordinator) Sessions() *SessionRegistry {
	return c.sessions
}

// Start begins the coordinator's background cleanup.
func (c *Coordinator) Start() {
	go c.cleanupLoop()
}

// Stop shuts down background work and cancels pending countdowns.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(func() {
		close(c.done)
		for _, e := range c.entries() {
			e.mu.Lock()
			c.cancelCountdownLocked(e, "shutdown")
			e.mu.Unlock()
		}
	})
}

// Login registers a participant's session, answers with the current views
// and tells everyone about the new user.
func (c *Coordinator) Login(ctx context.Context, id ParticipantID, username string, handle SessionHandle) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	username = strings.TrimSpace(username)
	if id == "" || username == "" {
		return User{}, validationf("id and username are required")
	}
	if handle == nil {
		return User{}, validationf("session is required")
	}

	u := c.sessions.Login(id, username, handle)
	c.logger.Info("user logged in", "participant", id, "username", username, "session", handle.ID())

	handle.Send(LoginSuccessEvent{User: u, OnlineUsers: c.sessions.Users(), ActiveRooms: c.Rooms()})
	c.broadcastUsers()
	c.broadcastRooms()
	return u, nil
}

// Disconnect handles a closed session or an explicit logout: the participant
// goes offline and leaves every room. A stale session of a participant that
// already logged in again is ignored.
func (c *Coordinator) Disconnect(ctx context.Context, id ParticipantID, session SessionID) {
	if !c.sessions.Disconnect(id, session) {
		return
	}
	left := c.leaveAll(id, "disconnect")
	c.logger.Info("user disconnected", "participant", id, "rooms_left", left)
	c.broadcastUsers()
	c.broadcastRooms()
}

// CreateRoom allocates a room with the host as its only, not-ready player.
func (c *Coordinator) CreateRoom(ctx context.Context, req CreateRoomRequest) (Room, error) {
	if err := ctx.Err(); err != nil {
		return Room{}, err
	}
	if req.HostID == "" {
		return Room{}, validationf("hostId is required")
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = c.config.DefaultMaxPlayers
	}
	if maxPlayers < 2 || maxPlayers > c.config.MaxPlayersLimit {
		return Room{}, validationf("maxPlayers must be between 2 and %d", c.config.MaxPlayersLimit)
	}
	if req.TimeLimit < 0 {
		return Room{}, validationf("timeLimit must not be negative")
	}
	timeLimit := req.TimeLimit
	if timeLimit == 0 {
		timeLimit = int(c.config.TimeLimit / time.Second)
	}

	host, ok := c.sessions.Get(req.HostID)
	if !ok || host.Status != PresenceOnline {
		return Room{}, notFoundf("participant %s", req.HostID)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = host.Username + "'s room"
	}

	now := c.now()
	e := &roomEntry{room: Room{
		ID:         RoomID("room_" + uuid.NewString()),
		Name:       name,
		HostID:     host.ID,
		Players:    []Player{{ID: host.ID, Username: host.Username}},
		MaxPlayers: maxPlayers,
		Status:     RoomWaiting,
		TimeLimit:  timeLimit,
		CreatedAt:  now,
		LastActive: now,
	}}

	c.mu.Lock()
	c.rooms[e.room.ID] = e
	c.mu.Unlock()

	out := e.room.Clone()
	c.logger.Info("room created", "room", out.ID, "name", out.Name, "host", out.HostID, "max_players", maxPlayers)
	c.relay.To(host.ID, RoomCreatedEvent{Room: out})
	c.broadcastRooms()
	return out, nil
}

// JoinRoom appends a participant to a waiting room. Joining a room the
// participant is already in returns the room unchanged.
func (c *Coordinator) JoinRoom(ctx context.Context, roomID RoomID, pid ParticipantID) (Room, error) {
	if err := ctx.Err(); err != nil {
		return Room{}, err
	}
	if roomID == "" || pid == "" {
		return Room{}, validationf("roomId and participantId are required")
	}
	user, ok := c.sessions.Get(pid)
	if !ok || user.Status != PresenceOnline {
		return Room{}, notFoundf("participant %s", pid)
	}

	var out Room
	changed := false
	err := c.withRoom(roomID, func(e *roomEntry) error {
		r := &e.room
		if r.HasPlayer(pid) {
			out = r.Clone()
			return nil
		}
		if len(r.Players) >= r.MaxPlayers {
			return fmt.Errorf("%w: room %s has %d of %d players", ErrCapacity, r.ID, len(r.Players), r.MaxPlayers)
		}
		if r.Status != RoomWaiting {
			return statef("room %s is already playing", r.ID)
		}

		r.Players = append(r.Players, Player{ID: pid, Username: user.Username})
		r.LastActive = c.now()
		c.cancelCountdownLocked(e, "player joined")

		out = r.Clone()
		changed = true
		c.relay.ToRoom(r, RoomUpdateEvent(out))
		return nil
	})
	if err != nil {
		return Room{}, err
	}

	c.relay.To(pid, RoomJoinedEvent{Room: out})
	if changed {
		c.logger.Info("player joined", "room", roomID, "participant", pid, "players", len(out.Players))
		c.broadcastRooms()
	}
	return out, nil
}

// LeaveRoom removes a participant. An empty room is destroyed, a departing
// host is replaced by the first remaining player, and a match in progress is
// forfeited back to Waiting without a winner.
func (c *Coordinator) LeaveRoom(ctx context.Context, roomID RoomID, pid ParticipantID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if roomID == "" || pid == "" {
		return validationf("roomId and participantId are required")
	}

	err := c.withRoom(roomID, func(e *roomEntry) error {
		idx := e.room.PlayerIndex(pid)
		if idx < 0 {
			return notFoundf("participant %s in room %s", pid, roomID)
		}
		c.removePlayerLocked(e, idx)
		return nil
	})
	if err != nil {
		return err
	}

	c.relay.To(pid, RoomLeftEvent{RoomID: roomID})
	c.broadcastRooms()
	return nil
}

// SetReady updates a player's ready flag. When every player of a waiting
// room with at least two players is ready, the countdown starts; an
// un-ready cancels a pending countdown.
func (c *Coordinator) SetReady(ctx context.Context, roomID RoomID, pid ParticipantID, ready bool) (Room, error) {
	if err := ctx.Err(); err != nil {
		return Room{}, err
	}
	if roomID == "" || pid == "" {
		return Room{}, validationf("roomId and participantId are required")
	}

	var out Room
	err := c.withRoom(roomID, func(e *roomEntry) error {
		r := &e.room
		idx := r.PlayerIndex(pid)
		if idx < 0 {
			return notFoundf("participant %s in room %s", pid, roomID)
		}
		if r.Status == RoomPlaying {
			return statef("room %s is playing", roomID)
		}
		if ready && len(r.Players) < 2 {
			return statef("room %s needs at least two players", roomID)
		}

		r.Players[idx].Ready = ready
		r.LastActive = c.now()
		if !ready {
			c.cancelCountdownLocked(e, "player not ready")
		}
		if ready && e.countdown == nil && r.AllReady() {
			c.startCountdownLocked(e)
		}

		out = r.Clone()
		c.relay.ToRoom(r, RoomUpdateEvent(out))
		return nil
	})
	if err != nil {
		return Room{}, err
	}

	c.broadcastRooms()
	return out, nil
}

// RelayGameState forwards an opaque snapshot to every other player of the
// room. Unknown rooms are ignored.
func (c *Coordinator) RelayGameState(ctx context.Context, roomID RoomID, pid ParticipantID, snapshot Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if roomID == "" || pid == "" {
		return validationf("roomId and participantId are required")
	}
	if !snapshot.Valid() {
		return validationf("snapshot must be a JSON document")
	}

	err := c.withRoom(roomID, func(e *roomEntry) error {
		r := &e.room
		if !r.HasPlayer(pid) {
			return notFoundf("participant %s in room %s", pid, roomID)
		}
		r.LastActive = c.now()
		c.relay.ToPlayers(r.PlayerIDs(), OpponentUpdateEvent{
			RoomID:        roomID,
			ParticipantID: pid,
			Snapshot:      snapshot,
		}, pid)
		return nil
	})
	if err != nil && !isRoomMissing(err) {
		return err
	}
	c.sessions.Touch(pid)
	return nil
}

// ReportGameOver records a player's final score. Once every player is over,
// the highest score wins (the earliest player on a tie) and the room returns
// to Waiting. Scores are trusted as reported.
func (c *Coordinator) ReportGameOver(ctx context.Context, roomID RoomID, pid ParticipantID, score int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if roomID == "" || pid == "" {
		return validationf("roomId and participantId are required")
	}
	if score < 0 {
		return validationf("score must not be negative")
	}

	var result *MatchResultData
	err := c.withRoom(roomID, func(e *roomEntry) error {
		r := &e.room
		idx := r.PlayerIndex(pid)
		if idx < 0 {
			return notFoundf("participant %s in room %s", pid, roomID)
		}
		if r.Status != RoomPlaying {
			return statef("room %s is not playing", roomID)
		}

		r.Players[idx].GameOver = true
		r.Players[idx].Score = score
		r.LastActive = c.now()

		if !r.AllGameOver() {
			c.relay.ToRoom(r, PlayerGameOverEvent{RoomID: roomID, ParticipantID: pid, Score: score})
			return nil
		}

		winner := pickWinner(r.Players)
		res := c.matchResultLocked(e, MatchEndReasonCompleted, winner)
		result = &res
		final := append([]Player(nil), r.Players...)

		r.Status = RoomWaiting
		r.WinnerID = winner
		r.GameStartTime = nil
		clearFlags(r)

		c.relay.ToRoom(r, GameEndedEvent{RoomID: roomID, MatchID: e.matchID, WinnerID: winner, Players: final})
		c.relay.ToRoom(r, RoomUpdateEvent(r.Clone()))
		return nil
	})
	if err != nil {
		return err
	}

	if result != nil {
		c.logger.Info("match ended", "room", roomID, "match", result.MatchID, "winner", result.WinnerID)
		c.saveResult(*result)
		c.broadcastRooms()
	}
	return nil
}

// Rooms returns a snapshot of every live room ordered by creation time.
// The view is eventually consistent across rooms.
func (c *Coordinator) Rooms() []Room {
	entries := c.entries()
	out := make([]Room, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.closed {
			out = append(out, e.room.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// GetRoom returns a copy of a room (for debugging/testing).
func (c *Coordinator) GetRoom(id RoomID) (Room, bool) {
	var out Room
	err := c.withRoom(id, func(e *roomEntry) error {
		out = e.room.Clone()
		return nil
	})
	return out, err == nil
}

// RoomCount returns the number of live rooms.
func (c *Coordinator) RoomCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rooms)
}

// Stats summarizes users and rooms.
func (c *Coordinator) Stats() Stats {
	rooms := c.Rooms()
	st := Stats{Users: c.sessions.Count(), Rooms: len(rooms)}
	for i := range rooms {
		if rooms[i].Status == RoomPlaying {
			st.Playing++
		}
	}
	return st
}

func (c *Coordinator) entries() []*roomEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*roomEntry, 0, len(c.rooms))
	for _, e := range c.rooms {
		out = append(out, e)
	}
	return out
}

func (c *Coordinator) lookup(id RoomID) (*roomEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.rooms[id]
	return e, ok
}

type roomMissingError struct {
	id RoomID
}

func (e *roomMissingError) Error() string { return fmt.Sprintf("%v: room %s", ErrNotFound, e.id) }
func (e *roomMissingError) Unwrap() error { return ErrNotFound }

func isRoomMissing(err error) bool {
	var missing *roomMissingError
	return errors.As(err, &missing)
}

// withRoom runs fn holding the room's lock.
func (c *Coordinator) withRoom(id RoomID, fn func(e *roomEntry) error) error {
	e, ok := c.lookup(id)
	if !ok {
		return &roomMissingError{id: id}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return &roomMissingError{id: id}
	}
	return fn(e)
}

// removePlayerLocked drops the player at idx. Caller holds e.mu.
func (c *Coordinator) removePlayerLocked(e *roomEntry, idx int) {
	r := &e.room
	leaving := r.Players[idx]
	wasPlaying := r.Status == RoomPlaying
	var forfeit MatchResultData
	if wasPlaying {
		forfeit = c.matchResultLocked(e, MatchEndReasonForfeit, "")
	}

	r.Players = slices.Delete(r.Players, idx, idx+1)
	r.LastActive = c.now()
	stillReady := !wasPlaying && len(r.Players) >= 2 && r.AllReady()
	if !stillReady {
		c.cancelCountdownLocked(e, "player left")
	}

	if wasPlaying {
		r.Status = RoomWaiting
		r.GameStartTime = nil
		clearFlags(r)
		c.logger.Info("match forfeited", "room", r.ID, "match", e.matchID, "participant", leaving.ID)
		c.saveResult(forfeit)
	}

	if len(r.Players) == 0 {
		c.closeLocked(e)
		c.logger.Info("room destroyed", "room", r.ID)
		return
	}
	if r.HostID == leaving.ID {
		r.HostID = r.Players[0].ID
		c.logger.Info("host promoted", "room", r.ID, "host", r.HostID)
	}
	// The remaining players may all be ready when the leaver was the only
	// one holding the countdown back.
	if stillReady && e.countdown == nil {
		c.startCountdownLocked(e)
	}
	c.relay.ToRoom(r, RoomUpdateEvent(r.Clone()))
}

// closeLocked removes the room from the map. Caller holds e.mu; taking c.mu
// here is safe because c.mu is never held while waiting for a room lock.
func (c *Coordinator) closeLocked(e *roomEntry) {
	c.cancelCountdownLocked(e, "room closed")
	e.closed = true
	c.mu.Lock()
	delete(c.rooms, e.room.ID)
	c.mu.Unlock()
}

func (c *Coordinator) startCountdownLocked(e *roomEntry) {
	r := &e.room
	r.WinnerID = ""
	if c.config.CountdownFrom <= 0 {
		c.startMatchLocked(e)
		return
	}
	v := c.config.CountdownFrom
	r.Countdown = &v
	e.countdown = schedule(c.config.CountdownInterval, func(t *scheduledTask) bool {
		return c.countdownTick(e, t)
	})
	c.logger.Info("countdown started", "room", r.ID, "from", v)
	c.relay.ToRoom(r, CountdownEvent{RoomID: r.ID, Value: v})
}

// countdownTick runs on the task goroutine. The task only acts while it is
// still the room's current countdown, checked under the room lock.
func (c *Coordinator) countdownTick(e *roomEntry, t *scheduledTask) bool {
	e.mu.Lock()
	if e.closed || e.countdown != t || t.Cancelled() {
		e.mu.Unlock()
		return false
	}
	r := &e.room
	v := *r.Countdown - 1
	if v > 0 {
		r.Countdown = &v
		c.relay.ToRoom(r, CountdownEvent{RoomID: r.ID, Value: v})
		e.mu.Unlock()
		return true
	}
	e.countdown = nil
	c.startMatchLocked(e)
	e.mu.Unlock()

	c.broadcastRooms()
	return false
}

func (c *Coordinator) startMatchLocked(e *roomEntry) {
	r := &e.room
	start := c.now()
	r.Status = RoomPlaying
	r.Countdown = nil
	r.GameStartTime = &start
	r.LastActive = start
	for i := range r.Players {
		r.Players[i].GameOver = false
		r.Players[i].Score = 0
	}
	e.matchID = MatchID(uuid.NewString())

	c.logger.Info("match started", "room", r.ID, "match", e.matchID, "players", len(r.Players))
	c.relay.ToRoom(r, GameStartEvent{
		RoomID:    r.ID,
		MatchID:   e.matchID,
		StartTime: start,
		TimeLimit: r.TimeLimit,
		Players:   append([]Player(nil), r.Players...),
	})
	c.relay.ToRoom(r, RoomUpdateEvent(r.Clone()))
}

func (c *Coordinator) cancelCountdownLocked(e *roomEntry, reason string) {
	if e.countdown == nil {
		return
	}
	e.countdown.Cancel()
	e.countdown = nil
	e.room.Countdown = nil
	c.logger.Info("countdown cancelled", "room", e.room.ID, "reason", reason)
}

func (c *Coordinator) matchResultLocked(e *roomEntry, reason MatchEndReason, winner ParticipantID) MatchResultData {
	r := &e.room
	res := MatchResultData{
		MatchID:   e.matchID,
		RoomID:    r.ID,
		RoomName:  r.Name,
		WinnerID:  winner,
		EndReason: reason,
	}
	for _, p := range r.Players {
		res.Players = append(res.Players, PlayerResult{ID: p.ID, Username: p.Username, Score: p.Score})
	}
	if r.GameStartTime != nil {
		res.StartedAt = *r.GameStartTime
		res.Duration = c.now().Sub(res.StartedAt)
	}
	return res
}

func (c *Coordinator) saveResult(res MatchResultData) {
	if c.resultSaver == nil {
		return
	}
	saver := c.resultSaver
	go func() {
		if err := saver.SaveMatchResult(res); err != nil {
			c.logger.Warn("could not save match result", "match", res.MatchID, "error", err)
		}
	}()
}

// leaveAll removes a participant from every room it belongs to.
func (c *Coordinator) leaveAll(pid ParticipantID, reason string) int {
	left := 0
	for _, e := range c.entries() {
		e.mu.Lock()
		if !e.closed {
			if idx := e.room.PlayerIndex(pid); idx >= 0 {
				c.removePlayerLocked(e, idx)
				left++
			}
		}
		e.mu.Unlock()
	}
	if left > 0 {
		c.logger.Debug("left rooms", "participant", pid, "reason", reason, "count", left)
	}
	return left
}

func (c *Coordinator) broadcastUsers() {
	c.relay.ToAll(UsersUpdateEvent(c.sessions.Users()))
}

func (c *Coordinator) broadcastRooms() {
	c.relay.ToAll(RoomsUpdateEvent(c.Rooms()))
}

func (c *Coordinator) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep(c.now())
		case <-c.done:
			return
		}
	}
}

// Sweep destroys idle rooms, forgets long-offline users and rebroadcasts the
// global views so clients that missed an event catch up.
func (c *Coordinator) Sweep(now time.Time) {
	if c.config.OfflineTTL > 0 {
		for _, id := range c.sessions.PurgeOffline(now.Add(-c.config.OfflineTTL)) {
			c.logger.Debug("purged offline user", "participant", id)
		}
	}

	if c.config.RoomIdleTimeout > 0 {
		for _, e := range c.entries() {
			e.mu.Lock()
			if e.closed || now.Sub(e.room.LastActive) <= c.config.RoomIdleTimeout {
				e.mu.Unlock()
				continue
			}
			if e.room.Status == RoomPlaying {
				c.saveResult(c.matchResultLocked(e, MatchEndReasonExpired, ""))
			}
			id, members := e.room.ID, e.room.PlayerIDs()
			c.closeLocked(e)
			c.logger.Info("room expired", "room", id)
			e.mu.Unlock()

			for _, pid := range members {
				c.relay.To(pid, RoomLeftEvent{RoomID: id, Reason: "expired"})
			}
		}
	}

	c.broadcastUsers()
	c.broadcastRooms()
}

func pickWinner(players []Player) ParticipantID {
	if len(players) == 0 {
		return ""
	}
	best := players[0]
	for _, p := range players[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best.ID
}

func clearFlags(r *Room) {
	for i := range r.Players {
		r.Players[i].Ready = false
		r.Players[i].GameOver = false
	}
}
