package qa

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// StepKind identifies a stage in a run of the chain.
type StepKind string

const (
	StepQuestionReceived StepKind = "question_received"
	StepSchemaFetched    StepKind = "schema_fetched"
	StepQueryGenerated   StepKind = "query_generated"
	StepQueryMalformed   StepKind = "query_malformed"
	StepQueryRepaired    StepKind = "query_repaired"
	StepResultsFormatted StepKind = "results_formatted"
	StepAnswerGenerated  StepKind = "answer_generated"
	StepFinished         StepKind = "finished"
	StepFailed           StepKind = "failed"
)

// Step is one timestamped record in a run's event stream.
type Step struct {
	RunID uuid.UUID
	Kind  StepKind
	At    time.Time

	// Query is the candidate query for query-related steps.
	Query string
	// Error is the failure text for StepQueryMalformed and StepFailed.
	Error string
	// Attempt is the 1-based execution attempt for execution-related steps.
	Attempt int
	// Detail carries stage output: formatted results, the answer text.
	Detail string
	// Elapsed is the total run duration; set only on StepFinished.
	Elapsed time.Duration
}

// StepCallback receives step records as the run progresses. Calls are
// synchronous and in order; the callback must not block.
type StepCallback func(Step)

// stepRecorder emits step records for a single run and mirrors them to the
// logger.
type stepRecorder struct {
	runID   uuid.UUID
	clock   clockwork.Clock
	cb      StepCallback
	log     *slog.Logger
	started time.Time
}

func newStepRecorder(clock clockwork.Clock, cb StepCallback, log *slog.Logger) *stepRecorder {
	return &stepRecorder{
		runID:   uuid.New(),
		clock:   clock,
		cb:      cb,
		log:     log,
		started: clock.Now(),
	}
}

func (r *stepRecorder) record(s Step) {
	s.RunID = r.runID
	s.At = r.clock.Now()
	if s.Kind == StepFinished {
		s.Elapsed = s.At.Sub(r.started)
	}
	if r.log != nil {
		r.log.Info("qa: step",
			"run", r.runID,
			"kind", string(s.Kind),
			"attempt", s.Attempt,
			"error", s.Error)
	}
	if r.cb != nil {
		r.cb(s)
	}
}
