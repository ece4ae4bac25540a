package game

// Phase is the room's position in the round state machine.
type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhaseAnswering  Phase = "answering"
	PhaseDiscussing Phase = "discussing"
	PhaseVoting     Phase = "voting"
	PhaseResults    Phase = "results"
	PhaseEnded      Phase = "ended"
)

var transitions = map[Phase][]Phase{
	PhaseLobby:      {PhaseAnswering},
	PhaseAnswering:  {PhaseDiscussing},
	PhaseDiscussing: {PhaseVoting},
	PhaseVoting:     {PhaseResults},
	PhaseResults:    {PhaseAnswering, PhaseEnded, PhaseLobby}, // lobby when the next round has no players
}

// CanTransitionTo reports whether the state machine allows moving to target.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range transitions[p] {
		if next == target {
			return true
		}
	}
	return false
}

// InRound reports whether a round is in flight.
func (p Phase) InRound() bool {
	switch p {
	case PhaseAnswering, PhaseDiscussing, PhaseVoting, PhaseResults:
		return true
	}
	return false
}
