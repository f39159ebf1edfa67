package sproc

// Outcome is how a procedure body ends when it does not fail:
// either Ok, and the transaction commits, or Abort, and it rolls back.
type Outcome struct {
	aborted bool
	reason  string
}

func Ok() Outcome {
	return Outcome{}
}

// Abort asks the harness to roll the transaction back.
func Abort(reason string) Outcome {
	return Outcome{aborted: true, reason: reason}
}

func (o Outcome) IsAbort() bool {
	return o.aborted
}

func (o Outcome) Reason() string {
	return o.reason
}

func (o Outcome) String() string {
	if o.aborted {
		return "abort: " + o.reason
	}
	return "ok"
}
