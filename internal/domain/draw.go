package domain

import (
	"fmt"
	"sort"
	"time"
)

// DrawGeneration identifies the one draw a group ever has. It is part of the
// reveal identity so a client can tell sequences of different groups apart.
const DrawGeneration = 1

// RevealEntry is one (position, member) pair of the canonical reveal order.
// swagger:model RevealEntry
type RevealEntry struct {
	Position    int    `json:"position"`
	MemberID    string `json:"member_id"`
	DisplayName string `json:"display_name"`
}

// RevealSequence is the full, ordered reveal payload shared by live and catch-up delivery.
// swagger:model RevealSequence
type RevealSequence struct {
	GroupID    string        `json:"group_id"`
	Generation int           `json:"generation"`
	Entries    []RevealEntry `json:"entries"`
}

// Identity keys a sequence for duplicate detection.
func (s RevealSequence) Identity() string {
	return fmt.Sprintf("%s#%d", s.GroupID, s.Generation)
}

// DrawResult is the immutable outcome of a group's draw.
// swagger:model DrawResult
type DrawResult struct {
	GroupID    string        `json:"group_id"`
	Generation int           `json:"generation"`
	Seed       string        `json:"seed"`
	Sequence   []RevealEntry `json:"sequence"`
	DrawnAt    time.Time     `json:"drawn_at"`
}

// Reveal returns the result as a reveal sequence.
func (r *DrawResult) Reveal() RevealSequence {
	entries := make([]RevealEntry, len(r.Sequence))
	copy(entries, r.Sequence)
	return RevealSequence{GroupID: r.GroupID, Generation: r.Generation, Entries: entries}
}

// DrawResultFromMemberships rebuilds a draw result from persisted positions.
// It returns nil when no position is assigned.
func DrawResultFromMemberships(g *Group, memberships []*Membership) *DrawResult {
	if !PositionsAssigned(memberships) {
		return nil
	}
	seq := make([]RevealEntry, 0, len(memberships))
	for _, m := range memberships {
		if m.Position == nil {
			continue
		}
		seq = append(seq, RevealEntry{Position: *m.Position, MemberID: m.MemberID, DisplayName: m.DisplayName})
	}
	sort.Slice(seq, func(i, j int) bool { return seq[i].Position < seq[j].Position })
	res := &DrawResult{
		GroupID:    g.ID,
		Generation: DrawGeneration,
		Seed:       g.DrawSeed,
		Sequence:   seq,
	}
	if g.StartedAt != nil {
		res.DrawnAt = *g.StartedAt
	}
	return res
}
