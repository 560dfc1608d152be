package fraud

// OutcomeKind tags the result of one pipeline step.
type OutcomeKind int

const (
	// KindContinue lets the pipeline proceed to the next step.
	KindContinue OutcomeKind = iota
	// KindReject stops the pipeline with a hard refusal.
	KindReject
	// KindAccept stops the pipeline with an early acceptance.
	KindAccept
)

// Outcome is the explicit, value-based control flow of the pipeline:
// steps return Continue, Reject or Accept up the call chain instead of
// signalling through panics or sentinel exceptions.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Continue lets the pipeline move on.
func Continue() Outcome { return Outcome{Kind: KindContinue} }

// Reject stops the pipeline with the given reason.
func Reject(reason string) Outcome { return Outcome{Kind: KindReject, Reason: reason} }

// Accept stops the pipeline successfully.
func Accept() Outcome { return Outcome{Kind: KindAccept} }
