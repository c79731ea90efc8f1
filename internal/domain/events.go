package domain

import "time"

// EventType names a message on a group's channel.
type EventType string

const (
	EventCatchUp        EventType = "catch_up"
	EventGroupFilled    EventType = "group_filled"
	EventDrawStarted    EventType = "draw_started"
	EventTurnAdvanced   EventType = "turn_advanced"
	EventGroupCompleted EventType = "group_completed"
)

// Event is the envelope published on a group channel and written to viewers.
// Exactly one payload field is set, matching Type. Seq is assigned by the broker
// and increases strictly within one group's stream.
type Event struct {
	Type       EventType `json:"type"`
	GroupID    string    `json:"group_id"`
	Seq        uint64    `json:"seq"`
	OccurredAt time.Time `json:"occurred_at"`

	CatchUp        *CatchUp        `json:"catch_up,omitempty"`
	GroupFilled    *GroupFilled    `json:"group_filled,omitempty"`
	DrawStarted    *DrawStarted    `json:"draw_started,omitempty"`
	TurnAdvanced   *TurnAdvanced   `json:"turn_advanced,omitempty"`
	GroupCompleted *GroupCompleted `json:"group_completed,omitempty"`
}

// DeliveryRef points at the delivery created by a turn advance.
type DeliveryRef struct {
	Period            int    `json:"period"`
	RecipientMemberID string `json:"recipient_member_id"`
}

// CatchUp carries everything a newly attached viewer needs to rebuild the reveal from scratch.
type CatchUp struct {
	State       GroupState     `json:"state"`
	CurrentTurn int            `json:"current_turn"`
	Sequence    RevealSequence `json:"sequence"`
	EndedAt     *time.Time     `json:"ended_at,omitempty"`
}

type GroupFilled struct {
	MemberCount int `json:"member_count"`
}

type DrawStarted struct {
	Sequence RevealSequence `json:"sequence"`
}

type TurnAdvanced struct {
	NewTurn         int         `json:"new_turn"`
	DeliveryCreated DeliveryRef `json:"delivery_created"`
}

type GroupCompleted struct {
	EndedAt         time.Time    `json:"ended_at"`
	DeliveryCreated *DeliveryRef `json:"delivery_created,omitempty"`
}

// RevealSequence returns the sequence carried by a draw or catch-up event.
func (e Event) RevealSequence() (RevealSequence, bool) {
	switch {
	case e.Type == EventDrawStarted && e.DrawStarted != nil:
		return e.DrawStarted.Sequence, true
	case e.Type == EventCatchUp && e.CatchUp != nil && len(e.CatchUp.Sequence.Entries) > 0:
		return e.CatchUp.Sequence, true
	}
	return RevealSequence{}, false
}

func NewDrawStartedEvent(res *DrawResult, at time.Time) Event {
	return Event{
		Type:        EventDrawStarted,
		GroupID:     res.GroupID,
		OccurredAt:  at,
		DrawStarted: &DrawStarted{Sequence: res.Reveal()},
	}
}

func NewCatchUpEvent(s *GroupSnapshot, at time.Time) Event {
	cu := &CatchUp{
		State:       s.Group.State,
		CurrentTurn: s.Group.CurrentTurn,
		EndedAt:     s.Group.EndedAt,
	}
	if s.Draw != nil {
		cu.Sequence = s.Draw.Reveal()
	}
	return Event{Type: EventCatchUp, GroupID: s.Group.ID, OccurredAt: at, CatchUp: cu}
}
