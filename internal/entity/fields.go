package entity

// Document field paths. Every mutation in this system is expressed as a
// merge over one or more of these leaf paths, never a whole-document
// replace, so that concurrent writers touching disjoint paths preserve
// each other's effect.
const (
	FieldCreatedAt    = "createdAt"
	FieldVariant      = "variant"
	FieldTurn         = "turn"
	FieldStartingRole = "startingRole"
	FieldOutcome      = "outcome"
	FieldBoard        = "board"

	slotPrefix   = "slots."
	namePrefix   = "names."
	cardPrefix   = "cards."
	ledgerPrefix = "ledger."
)

func SlotField(role Role) string { return slotPrefix + string(role) }

func NameField(role Role) string { return namePrefix + string(role) }

func LedgerField(identityID string) string { return ledgerPrefix + identityID }

func CardGridField(role Role) string { return cardPrefix + string(role) + ".grid" }

func CardMarkedField(role Role) string { return cardPrefix + string(role) + ".marked" }

func CardLastMarkedField(role Role) string { return cardPrefix + string(role) + ".lastMarked" }
