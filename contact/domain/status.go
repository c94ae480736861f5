package domain

// StatusKind é o estado do ciclo de envio.
type StatusKind string

const (
	StatusIdle      StatusKind = "idle"
	StatusLoading   StatusKind = "loading"
	StatusSucceeded StatusKind = "succeeded"
	StatusFailed    StatusKind = "failed"
)

// SubmissionStatus carrega o estado atual e, quando Failed, o motivo.
type SubmissionStatus struct {
	Kind   StatusKind `json:"kind"`
	Reason string     `json:"reason,omitempty"`
}

func Idle() SubmissionStatus      { return SubmissionStatus{Kind: StatusIdle} }
func Loading() SubmissionStatus   { return SubmissionStatus{Kind: StatusLoading} }
func Succeeded() SubmissionStatus { return SubmissionStatus{Kind: StatusSucceeded} }

func Failed(reason string) SubmissionStatus {
	return SubmissionStatus{Kind: StatusFailed, Reason: reason}
}

func (s SubmissionStatus) IsFailed() bool { return s.Kind == StatusFailed }
