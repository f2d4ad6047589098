package entity

import (
	"encoding/json"
	"strings"
	"time"
)

// SessionFromFields folds a raw document snapshot into a fully populated
// Session. Every consumer goes through this single normalization step
// instead of threading optional-field checks around: unknown paths are
// ignored, malformed values keep their defaults, and a lossy snapshot from
// an older schema never produces an error.
func SessionFromFields(id string, fields map[string]json.RawMessage) *Session {
	session := &Session{
		ID:     id,
		Slots:  map[Role]string{RoleA: "", RoleB: ""},
		Names:  map[Role]string{RoleA: "", RoleB: ""},
		Cards:  make(map[Role]*Card),
		Ledger: make(map[string]int),
	}

	for path, raw := range fields {
		session.applyField(path, raw)
	}

	if session.Outcome != OutcomeNone {
		session.Turn = RoleNone
	}

	return session
}

func (that *Session) applyField(path string, raw json.RawMessage) {
	switch path {
	case FieldCreatedAt:
		var createdAt time.Time
		if err := json.Unmarshal(raw, &createdAt); err == nil {
			that.CreatedAt = createdAt
		}
	case FieldVariant:
		var variant Variant
		if err := json.Unmarshal(raw, &variant); err == nil {
			if variant == VariantTicTacToe || variant == VariantBingo {
				that.Variant = variant
			}
		}
	case FieldTurn:
		if role, ok := decodeRole(raw); ok {
			that.Turn = role
		}
	case FieldStartingRole:
		if role, ok := decodeRole(raw); ok {
			that.StartingRole = role
		}
	case FieldOutcome:
		var outcome Outcome
		if err := json.Unmarshal(raw, &outcome); err == nil {
			switch outcome {
			case Outcome(RoleA), Outcome(RoleB), OutcomeDraw, OutcomeNone:
				that.Outcome = outcome
			}
		}
	case FieldBoard:
		var board [BoardSize]string
		if err := json.Unmarshal(raw, &board); err == nil {
			that.Board = board
		}
	default:
		that.applyPrefixedField(path, raw)
	}
}

func (that *Session) applyPrefixedField(path string, raw json.RawMessage) {
	switch {
	case strings.HasPrefix(path, slotPrefix):
		if role, ok := parseRole(strings.TrimPrefix(path, slotPrefix)); ok {
			var identityID string
			if err := json.Unmarshal(raw, &identityID); err == nil {
				that.Slots[role] = identityID
			}
		}
	case strings.HasPrefix(path, namePrefix):
		if role, ok := parseRole(strings.TrimPrefix(path, namePrefix)); ok {
			var name string
			if err := json.Unmarshal(raw, &name); err == nil {
				that.Names[role] = name
			}
		}
	case strings.HasPrefix(path, ledgerPrefix):
		identityID := strings.TrimPrefix(path, ledgerPrefix)
		if identityID == "" {
			return
		}
		var wins int
		if err := json.Unmarshal(raw, &wins); err == nil {
			that.Ledger[identityID] = wins
		}
	case strings.HasPrefix(path, cardPrefix):
		that.applyCardField(strings.TrimPrefix(path, cardPrefix), raw)
	}
}

func (that *Session) applyCardField(path string, raw json.RawMessage) {
	roleName, sub, found := strings.Cut(path, ".")
	if !found {
		return
	}

	role, ok := parseRole(roleName)
	if !ok {
		return
	}

	card := that.Cards[role]
	if card == nil {
		card = &Card{}
	}

	switch sub {
	case "grid":
		if err := json.Unmarshal(raw, &card.Grid); err != nil {
			return
		}
	case "marked":
		if err := json.Unmarshal(raw, &card.Marked); err != nil {
			return
		}
	case "lastMarked":
		var cell *Cell
		if err := json.Unmarshal(raw, &cell); err != nil {
			return
		}
		card.LastMarked = cell
	default:
		return
	}

	that.Cards[role] = card
}

func decodeRole(raw json.RawMessage) (Role, bool) {
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return RoleNone, false
	}
	return parseRole(value)
}

func parseRole(value string) (Role, bool) {
	switch Role(value) {
	case RoleA, RoleB:
		return Role(value), true
	case RoleNone:
		return RoleNone, true
	}
	return RoleNone, false
}
