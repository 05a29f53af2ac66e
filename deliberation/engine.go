package deliberation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantforge/llmcore/crossvalidate"
	"github.com/quantforge/llmcore/internal/metrics"
)

// VotingStrategy selects how final-round opinions are reduced to a
// decision.
type VotingStrategy string

const (
	Unanimous     VotingStrategy = "unanimous"
	Majority      VotingStrategy = "majority"
	Supermajority VotingStrategy = "supermajority"
	Weighted      VotingStrategy = "weighted"
)

// NoConsensus is the decision direction returned when Unanimous or
// Supermajority voting fails to reach its threshold.
const NoConsensus crossvalidate.Direction = "no_consensus"

// Config parameterizes a single deliberation run.
type Config struct {
	MaxRounds      int
	MinConfidence  float64
	VotingStrategy VotingStrategy
}

// DefaultConfig returns the spec's default bounded-round parameters.
func DefaultConfig() Config {
	return Config{MaxRounds: 3, MinConfidence: 0.7, VotingStrategy: Majority}
}

// Opinion is one agent's stance in a single round.
type Opinion struct {
	Agent      string
	SignalType crossvalidate.SignalType
	Direction  crossvalidate.Direction
	Confidence float64
	Reasoning  string
	Err        error
}

// Invoker asks a single agent for an opinion on a prompt. Implementations
// typically wrap a dispatch.Dispatcher per agent/provider.
type Invoker interface {
	Ask(ctx context.Context, agent, prompt string) (Opinion, error)
}

// Round is one round's collected opinions and convergence measure.
type Round struct {
	Number            int
	Opinions          []Opinion
	ConvergenceScore  float64
	ConsensusEmerging bool
	MeanConfidence    float64
}

// Result is a completed (or partially completed, if cancelled)
// deliberation.
type Result struct {
	Question        string
	Rounds          []Round
	Decision        crossvalidate.Direction
	Confidence      float64
	Dissent         []Opinion
	CrossValidation crossvalidate.Result
	TimedOut        bool
}

// Engine runs the bounded multi-round protocol across a set of agents.
type Engine struct {
	cfg     Config
	invoker Invoker
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewEngine(cfg Config, invoker Invoker, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, invoker: invoker, logger: logger.With(zap.String("component", "deliberation"))}
}

// AttachMetrics wires a Prometheus collector into the engine; each agent's
// per-round opinion call is recorded as one agent execution, keyed by
// agent name and its inferred signal type. Optional — a nil collector (the
// zero value) disables recording without other behavior changes.
func (e *Engine) AttachMetrics(c *metrics.Collector) {
	e.metrics = c
}

// Deliberate runs up to cfg.MaxRounds of parallel opinion-gathering across
// agents, exiting early on consensus, then votes and cross-validates the
// final round.
func (e *Engine) Deliberate(ctx context.Context, question string, agents []string) Result {
	result := Result{Question: question}

	var previous []Opinion
	for r := 1; r <= e.cfg.MaxRounds; r++ {
		select {
		case <-ctx.Done():
			result.TimedOut = true
			return e.finalize(result)
		default:
		}

		round := e.runRound(ctx, r, question, agents, previous)
		result.Rounds = append(result.Rounds, round)
		previous = round.Opinions

		if ctxErr := ctx.Err(); ctxErr != nil {
			result.TimedOut = true
			return e.finalize(result)
		}

		if round.ConsensusEmerging && round.MeanConfidence >= e.cfg.MinConfidence {
			break
		}
	}

	return e.finalize(result)
}

// runRound fans out one round's agent prompts in parallel. A WaitGroup and
// a pre-sized buffered channel are used instead of an errgroup: one
// agent's failure must never cancel its siblings mid-round.
func (e *Engine) runRound(ctx context.Context, roundNum int, question string, agents []string, previous []Opinion) Round {
	type indexed struct {
		idx     int
		opinion Opinion
	}

	ch := make(chan indexed, len(agents))
	var wg sync.WaitGroup

	for i, agent := range agents {
		wg.Add(1)
		go func(i int, agent string) {
			defer wg.Done()
			prompt := buildRoundPrompt(roundNum, question, previous)
			start := time.Now()
			opinion, err := e.invoker.Ask(ctx, agent, prompt)
			elapsed := time.Since(start)

			status := "success"
			if err != nil {
				status = "failed"
				opinion = Opinion{Agent: agent, Err: err}
				e.logger.Warn("agent opinion failed", zap.String("agent", agent), zap.Int("round", roundNum), zap.Error(err))
			}
			if e.metrics != nil {
				e.metrics.RecordAgentExecution(agent, string(InferSignalType(agent)), status, elapsed)
			}
			ch <- indexed{idx: i, opinion: opinion}
		}(i, agent)
	}

	wg.Wait()
	close(ch)

	opinions := make([]Opinion, len(agents))
	for item := range ch {
		opinions[item.idx] = item.opinion
	}

	valid := filterValid(opinions)
	score := convergenceScore(valid)
	mean := meanConfidence(valid)

	return Round{
		Number:            roundNum,
		Opinions:          opinions,
		ConvergenceScore:  score,
		ConsensusEmerging: score >= 0.8,
		MeanConfidence:    mean,
	}
}

func buildRoundPrompt(roundNum int, question string, previous []Opinion) string {
	if roundNum == 1 || len(previous) == 0 {
		return question
	}

	prompt := question + "\n\nPeer opinions from the previous round:\n"
	for _, op := range previous {
		if op.Err != nil {
			continue
		}
		prompt += fmt.Sprintf("[%s] %s (conf=%.2f): %s\n", op.Agent, op.Direction, op.Confidence, op.Reasoning)
	}
	prompt += "\nCritique, agree, or refine your position given these peer opinions."
	return prompt
}

func filterValid(opinions []Opinion) []Opinion {
	valid := make([]Opinion, 0, len(opinions))
	for _, o := range opinions {
		if o.Err == nil {
			valid = append(valid, o)
		}
	}
	return valid
}

// convergenceScore is pairwise agreement on direction weighted by the
// pair's average confidence, normalized to [0, 1].
func convergenceScore(opinions []Opinion) float64 {
	if len(opinions) < 2 {
		if len(opinions) == 1 {
			return 1.0
		}
		return 0
	}

	var agreementWeight, totalWeight float64
	for i := 0; i < len(opinions); i++ {
		for j := i + 1; j < len(opinions); j++ {
			weight := (opinions[i].Confidence + opinions[j].Confidence) / 2
			totalWeight += weight
			if opinions[i].Direction == opinions[j].Direction {
				agreementWeight += weight
			}
		}
	}
	if totalWeight == 0 {
		return 0
	}
	return agreementWeight / totalWeight
}

func meanConfidence(opinions []Opinion) float64 {
	if len(opinions) == 0 {
		return 0
	}
	var sum float64
	for _, o := range opinions {
		sum += o.Confidence
	}
	return sum / float64(len(opinions))
}

func (e *Engine) finalize(result Result) Result {
	if len(result.Rounds) == 0 {
		result.Decision = NoConsensus
		return result
	}

	final := result.Rounds[len(result.Rounds)-1]
	valid := filterValid(final.Opinions)
	if len(valid) == 0 {
		result.Decision = NoConsensus
		return result
	}

	decision, winners, dissent := vote(e.cfg.VotingStrategy, valid)
	result.Decision = decision
	result.Dissent = dissent

	if decision != NoConsensus && len(winners) > 0 {
		result.Confidence = clamp01(meanConfidence(winners) * final.ConvergenceScore)
	}

	signals := make([]crossvalidate.AgentSignal, 0, len(valid))
	for _, o := range valid {
		signals = append(signals, crossvalidate.AgentSignal{
			Agent:      o.Agent,
			SignalType: o.SignalType,
			Direction:  o.Direction,
			Confidence: o.Confidence,
			Reasoning:  o.Reasoning,
		})
	}
	result.CrossValidation = crossvalidate.Validate(signals)

	return result
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
