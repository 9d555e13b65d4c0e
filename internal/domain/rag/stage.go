package rag

// Stage is a pipeline state. The pipeline is linear; Failed is reachable from any stage.
type Stage string

// Pipeline stages in order.
const (
	StageReceived         Stage = "RECEIVED"
	StageEmbeddingQuery   Stage = "EMBEDDING_QUERY"
	StageRetrieving       Stage = "RETRIEVING"
	StageBuildingContext  Stage = "BUILDING_CONTEXT"
	StageAwaitingAnswerer Stage = "AWAITING_ANSWERER"
	StageFormatting       Stage = "FORMATTING"
	StageDone             Stage = "DONE"
	StageFailed           Stage = "FAILED"
)

var order = map[Stage]int{
	StageReceived:         0,
	StageEmbeddingQuery:   1,
	StageRetrieving:       2,
	StageBuildingContext:  3,
	StageAwaitingAnswerer: 4,
	StageFormatting:       5,
	StageDone:             6,
}

// IsTerminal reports whether no transition leaves s.
func (s Stage) IsTerminal() bool { return s == StageDone || s == StageFailed }

// CanTransition reports whether from -> to is a legal move: forward only,
// Failed from any non-terminal stage.
func CanTransition(from, to Stage) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StageFailed {
		return true
	}
	f, ok1 := order[from]
	t, ok2 := order[to]
	return ok1 && ok2 && t > f
}

// FailureReason explains a Failed or partial response.
type FailureReason string

// Failure reasons.
const (
	ReasonNone                 FailureReason = ""
	ReasonEmbeddingUnavailable FailureReason = "embedding_unavailable"
	ReasonRetrievalFailed      FailureReason = "retrieval_failed"
	ReasonAnswererTimeout      FailureReason = "answerer_timeout"
	ReasonAnswererUnavailable  FailureReason = "answerer_unavailable"
	ReasonCanceled             FailureReason = "canceled"
)
