package crossvalidate

// ConflictType classifies a disagreeing pair of signals by the domains
// involved.
type ConflictType string

const (
	ConflictSameDomain              ConflictType = "same_domain_disagreement"
	ConflictTechnicalVsSentiment    ConflictType = "technical_vs_sentiment"
	ConflictQuantitativeVsSentiment ConflictType = "quantitative_vs_sentiment"
	ConflictQuantitativeVsTechnical ConflictType = "quantitative_vs_technical"
	ConflictGeneral                 ConflictType = "general_disagreement"
)

// Conflict records one unordered pair of signals whose directions differ.
type Conflict struct {
	A    AgentSignal
	B    AgentSignal
	Type ConflictType
}

// Resolution is the cross-validator's recommended course of action.
type Resolution struct {
	Recommendation  Direction
	ReducedSizing   bool
	LeadSignalAgent string
	Rationale       string
}

// Result is cross_validate's full output.
type Result struct {
	AgreementScore float64
	Conflicts      []Conflict
	Resolution     Resolution
}

// Validate is the pure cross-validation function: no I/O, no cache. Fewer
// than two signals trivially agree with score 1.0.
func Validate(signals []AgentSignal) Result {
	if len(signals) < 2 {
		return Result{AgreementScore: 1.0, Resolution: trivialResolution(signals)}
	}

	return Result{
		AgreementScore: agreementScore(signals),
		Conflicts:      findConflicts(signals),
		Resolution:     resolve(signals),
	}
}

func trivialResolution(signals []AgentSignal) Resolution {
	if len(signals) == 0 {
		return Resolution{Recommendation: DirectionNeutral, Rationale: "no signals to validate"}
	}
	s := signals[0]
	return Resolution{
		Recommendation:  s.Direction,
		LeadSignalAgent: s.Agent,
		Rationale:       "single signal, no cross-validation possible",
	}
}

func agreementScore(signals []AgentSignal) float64 {
	directions := make(map[Direction]int, 3)
	var confidenceSum, maxConf, minConf float64
	minConf = 1.0
	allSame := true
	first := signals[0].Direction

	for _, s := range signals {
		directions[s.Direction]++
		confidenceSum += s.Confidence
		if s.Confidence > maxConf {
			maxConf = s.Confidence
		}
		if s.Confidence < minConf {
			minConf = s.Confidence
		}
		if s.Direction != first {
			allSame = false
		}
	}

	if allSame {
		mean := confidenceSum / float64(len(signals))
		return mean * (1 - 0.5*(maxConf-minConf))
	}

	majorityCount := 0
	for _, count := range directions {
		if count > majorityCount {
			majorityCount = count
		}
	}
	score := float64(majorityCount) / float64(len(signals)) * 0.6
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func findConflicts(signals []AgentSignal) []Conflict {
	var conflicts []Conflict
	for i := 0; i < len(signals); i++ {
		for j := i + 1; j < len(signals); j++ {
			a, b := signals[i], signals[j]
			if a.Direction == b.Direction {
				continue
			}
			conflicts = append(conflicts, Conflict{A: a, B: b, Type: classifyConflict(a, b)})
		}
	}
	return conflicts
}

func classifyConflict(a, b AgentSignal) ConflictType {
	if a.SignalType == b.SignalType {
		return ConflictSameDomain
	}
	pair := map[SignalType]bool{a.SignalType: true, b.SignalType: true}
	switch {
	case pair[SignalTechnical] && pair[SignalSentiment]:
		return ConflictTechnicalVsSentiment
	case pair[SignalQuantitative] && pair[SignalSentiment]:
		return ConflictQuantitativeVsSentiment
	case pair[SignalQuantitative] && pair[SignalTechnical]:
		return ConflictQuantitativeVsTechnical
	default:
		return ConflictGeneral
	}
}

func resolve(signals []AgentSignal) Resolution {
	lead := signals[0]
	for _, s := range signals[1:] {
		if better(s, lead) {
			lead = s
		}
	}

	majority, hasMajority := majorityDirection(signals)
	if hasMajority {
		return Resolution{
			Recommendation:  majority,
			ReducedSizing:   true,
			LeadSignalAgent: lead.Agent,
			Rationale:       "majority direction with reduced position sizing",
		}
	}

	return Resolution{
		Recommendation:  lead.Direction,
		ReducedSizing:   true,
		LeadSignalAgent: lead.Agent,
		Rationale:       "no majority; deferring to highest-priority signal with reduced sizing",
	}
}

func better(candidate, current AgentSignal) bool {
	if candidate.SignalType.Priority() != current.SignalType.Priority() {
		return candidate.SignalType.Priority() > current.SignalType.Priority()
	}
	return candidate.Confidence > current.Confidence
}

func majorityDirection(signals []AgentSignal) (Direction, bool) {
	counts := make(map[Direction]int, 3)
	for _, s := range signals {
		counts[s.Direction]++
	}
	total := len(signals)
	var best Direction
	bestCount := 0
	tie := false
	for d, c := range counts {
		switch {
		case c > bestCount:
			best, bestCount, tie = d, c, false
		case c == bestCount:
			tie = true
		}
	}
	if tie || bestCount <= total/2 {
		return "", false
	}
	return best, true
}
