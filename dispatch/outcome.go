package dispatch

import "sync/atomic"

// atomicOutcome holds Outcome's counters as individual atomics so Snapshot
// never blocks a concurrent Send.
type atomicOutcome struct {
	requests          atomic.Int64
	successes         atomic.Int64
	failures          atomic.Int64
	circuitRejections atomic.Int64
	noCredential      atomic.Int64
	extractionMisses  atomic.Int64
	cacheHits         atomic.Int64
}

func (o *atomicOutcome) addRequests(n int64)          { o.requests.Add(n) }
func (o *atomicOutcome) addSuccesses(n int64)         { o.successes.Add(n) }
func (o *atomicOutcome) addFailures(n int64)          { o.failures.Add(n) }
func (o *atomicOutcome) addCircuitRejections(n int64) { o.circuitRejections.Add(n) }
func (o *atomicOutcome) addNoCredential(n int64)      { o.noCredential.Add(n) }
func (o *atomicOutcome) addExtractionMisses(n int64)  { o.extractionMisses.Add(n) }
func (o *atomicOutcome) addCacheHits(n int64)         { o.cacheHits.Add(n) }

func (o *atomicOutcome) snapshot() Outcome {
	return Outcome{
		Requests:          o.requests.Load(),
		Successes:         o.successes.Load(),
		Failures:          o.failures.Load(),
		CircuitRejections: o.circuitRejections.Load(),
		NoCredential:      o.noCredential.Load(),
		ExtractionMisses:  o.extractionMisses.Load(),
		CacheHits:         o.cacheHits.Load(),
	}
}
