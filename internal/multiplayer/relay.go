package multiplayer

// Relay fans events out to sessions. Delivery is fire-and-forget: events for
// offline participants are dropped and nothing is retried.
type Relay struct {
	sessions *SessionRegistry
}

// NewRelay creates a relay over the registry's live sessions.
func NewRelay(sessions *SessionRegistry) *Relay {
	return &Relay{sessions: sessions}
}

// To delivers an event to one participant.
func (r *Relay) To(id ParticipantID, evt SessionEvent) {
	if h, ok := r.sessions.Handle(id); ok {
		h.Send(evt)
	}
}

// ToPlayers delivers an event to each listed participant except skip.
func (r *Relay) ToPlayers(ids []ParticipantID, evt SessionEvent, skip ParticipantID) {
	for _, id := range ids {
		if id == skip {
			continue
		}
		r.To(id, evt)
	}
}

// ToRoom delivers an event to every member of the room.
func (r *Relay) ToRoom(room *Room, evt SessionEvent) {
	r.ToPlayers(room.PlayerIDs(), evt, "")
}

// ToAll delivers an event to every online session.
func (r *Relay) ToAll(evt SessionEvent) {
	for _, h := range r.sessions.Handles() {
		h.Send(evt)
	}
}
