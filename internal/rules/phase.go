package rules

// Phase is the current macro-stage of a game.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseCut
	PhaseDeal
	PhaseSort
	PhaseDiscard
	PhaseStarter
	PhaseEnd
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseCut:
		return "cut"
	case PhaseDeal:
		return "deal"
	case PhaseSort:
		return "sort"
	case PhaseDiscard:
		return "discard"
	case PhaseStarter:
		return "starter"
	case PhaseEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Outcome reports what a successfully applied event did.
type Outcome int

const (
	OutcomeSetup Outcome = iota + 1
	OutcomeCutTie
	OutcomeCutDealer
	OutcomeDealt
	OutcomeSorted
	OutcomeDiscarded
	OutcomeStarter
	OutcomeNibs
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSetup:
		return "setup"
	case OutcomeCutTie:
		return "cut_tie"
	case OutcomeCutDealer:
		return "cut_dealer"
	case OutcomeDealt:
		return "dealt"
	case OutcomeSorted:
		return "sorted"
	case OutcomeDiscarded:
		return "discarded"
	case OutcomeStarter:
		return "starter"
	case OutcomeNibs:
		return "nibs"
	default:
		return "unknown"
	}
}
