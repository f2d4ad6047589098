package entity

import "time"

const (
	RoleA    = Role("A")
	RoleB    = Role("B")
	RoleNone = Role("")

	VariantUnset     = Variant("")
	VariantTicTacToe = Variant("tictactoe")
	VariantBingo     = Variant("bingo")

	OutcomeNone = Outcome("")
	OutcomeDraw = Outcome("draw")

	StateUnbound    = "unbound"
	StateInProgress = "in_progress"
	StateConcluded  = "concluded"

	EmptyCell = ""

	CardSize  = 5
	BoardSize = 9
)

// Role is a fixed logical seat in a session, distinct from the identity
// currently bound to it.
type Role string

type Variant string

// Outcome is the terminal result of a round: empty while the round is live,
// a role value once that role has won, or OutcomeDraw.
type Outcome string

// Identity is the externally authenticated user value. This core treats it
// as opaque and performs no validation on it.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// Cell is a coordinate on a bingo card.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Card is one player's 5x5 bingo surface: a permutation of 1..25 plus a
// marked flag per cell and the most recently toggled coordinate.
type Card struct {
	Grid       [CardSize][CardSize]int  `json:"grid"`
	Marked     [CardSize][CardSize]bool `json:"marked"`
	LastMarked *Cell                    `json:"last_marked,omitempty"`
}

// Session is the shared mutable document representing one game-in-progress
// plus its rematch and win-ledger history.
type Session struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at,omitempty"`
	Variant      Variant           `json:"variant,omitempty"`
	Slots        map[Role]string   `json:"slots"`
	Names        map[Role]string   `json:"names"`
	Turn         Role              `json:"turn,omitempty"`
	StartingRole Role              `json:"starting_role,omitempty"`
	Outcome      Outcome           `json:"outcome,omitempty"`
	Board        [BoardSize]string `json:"board"`
	Cards        map[Role]*Card    `json:"cards,omitempty"`
	Ledger       map[string]int    `json:"ledger"`
}

// RoleOf returns the role the given identity is bound to, or RoleNone.
func (that *Session) RoleOf(identityID string) Role {
	for _, role := range [2]Role{RoleA, RoleB} {
		if that.Slots[role] != "" && that.Slots[role] == identityID {
			return role
		}
	}
	return RoleNone
}

// OpenRole returns the first unbound role, role A before role B, or RoleNone
// when both seats are taken.
func (that *Session) OpenRole() Role {
	if that.Slots[RoleA] == "" {
		return RoleA
	}
	if that.Slots[RoleB] == "" {
		return RoleB
	}
	return RoleNone
}

func (that *Session) BothBound() bool {
	return that.Slots[RoleA] != "" && that.Slots[RoleB] != ""
}

// State derives the state-machine position from the bound slots and the
// outcome field.
func (that *Session) State() string {
	switch {
	case !that.BothBound():
		return StateUnbound
	case that.Outcome != OutcomeNone:
		return StateConcluded
	default:
		return StateInProgress
	}
}

// Wins derives the win count surfaced for a role by looking the bound
// identity up in the ledger. A role with no bound identity or no ledger
// entry reports zero, never a missing value.
func (that *Session) Wins(role Role) int {
	identityID := that.Slots[role]
	if identityID == "" {
		return 0
	}
	return that.Ledger[identityID]
}

// Opponent returns the other seat.
func Opponent(role Role) Role {
	if role == RoleA {
		return RoleB
	}
	return RoleA
}
