package core

type OutcomeStatus string

const (
	OutcomeSent   OutcomeStatus = "sent"
	OutcomeNoData OutcomeStatus = "no_data"
)

// DispatchOutcome describes a completed delivery call.
type DispatchOutcome struct {
	Channel    string
	MessageID  string
	Recipients int
}

// Outcome is the result of one report invocation.
type Outcome struct {
	Status   OutcomeStatus
	Message  string
	Period   ReportPeriod
	Dispatch DispatchOutcome
}
