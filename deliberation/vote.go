package deliberation

import (
	"math"

	"github.com/quantforge/llmcore/crossvalidate"
)

var directionOrder = []crossvalidate.Direction{
	crossvalidate.DirectionBullish,
	crossvalidate.DirectionBearish,
	crossvalidate.DirectionNeutral,
}

// vote reduces a final round's valid opinions to a decision, the winning
// side's opinions (for confidence aggregation), and the dissenting
// (non-winning) opinions.
func vote(strategy VotingStrategy, opinions []Opinion) (crossvalidate.Direction, []Opinion, []Opinion) {
	switch strategy {
	case Unanimous:
		return voteUnanimous(opinions)
	case Supermajority:
		return voteSupermajority(opinions)
	case Weighted:
		return voteWeighted(opinions)
	default:
		return voteMajority(opinions)
	}
}

func voteUnanimous(opinions []Opinion) (crossvalidate.Direction, []Opinion, []Opinion) {
	first := opinions[0].Direction
	for _, o := range opinions[1:] {
		if o.Direction != first {
			return NoConsensus, nil, opinions
		}
	}
	return first, opinions, nil
}

func voteMajority(opinions []Opinion) (crossvalidate.Direction, []Opinion, []Opinion) {
	counts, confSums := tally(opinions)

	var winner crossvalidate.Direction
	bestCount := -1
	bestConf := -1.0
	for _, d := range directionOrder {
		if counts[d] == 0 {
			continue
		}
		if counts[d] > bestCount || (counts[d] == bestCount && confSums[d] > bestConf) {
			winner = d
			bestCount = counts[d]
			bestConf = confSums[d]
		}
	}
	return splitByDirection(opinions, winner)
}

func voteSupermajority(opinions []Opinion) (crossvalidate.Direction, []Opinion, []Opinion) {
	counts, confSums := tally(opinions)
	total := len(opinions)
	threshold := int(math.Ceil(2.0 * float64(total) / 3.0))

	var winner crossvalidate.Direction
	bestCount := -1
	bestConf := -1.0
	for _, d := range directionOrder {
		if counts[d] == 0 {
			continue
		}
		if counts[d] > bestCount || (counts[d] == bestCount && confSums[d] > bestConf) {
			winner = d
			bestCount = counts[d]
			bestConf = confSums[d]
		}
	}
	if bestCount < threshold {
		return NoConsensus, nil, opinions
	}
	return splitByDirection(opinions, winner)
}

func voteWeighted(opinions []Opinion) (crossvalidate.Direction, []Opinion, []Opinion) {
	weights := map[crossvalidate.Direction]float64{}
	for _, o := range opinions {
		weights[o.Direction] += o.Confidence * float64(o.SignalType.Priority())
	}

	var winner crossvalidate.Direction
	best := -1.0
	for _, d := range directionOrder {
		if w, ok := weights[d]; ok && w > best {
			winner = d
			best = w
		}
	}
	return splitByDirection(opinions, winner)
}

func tally(opinions []Opinion) (map[crossvalidate.Direction]int, map[crossvalidate.Direction]float64) {
	counts := map[crossvalidate.Direction]int{}
	confSums := map[crossvalidate.Direction]float64{}
	for _, o := range opinions {
		counts[o.Direction]++
		confSums[o.Direction] += o.Confidence
	}
	return counts, confSums
}

func splitByDirection(opinions []Opinion, winner crossvalidate.Direction) (crossvalidate.Direction, []Opinion, []Opinion) {
	var winners, dissent []Opinion
	for _, o := range opinions {
		if o.Direction == winner {
			winners = append(winners, o)
		} else {
			dissent = append(dissent, o)
		}
	}
	return winner, winners, dissent
}
