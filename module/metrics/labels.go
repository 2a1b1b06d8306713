package metrics

const (
	LabelOutcome = "outcome"
	LabelRoute   = "route"
	LabelCode    = "code"
	LabelReason  = "reason"
)

const (
	OutcomeAccepted = "accepted"
)
