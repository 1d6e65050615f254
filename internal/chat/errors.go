package chat

// ErrorKind classifies a flow failure by the operation that produced it. The
// kind decides how the failure is presented and whether retrying makes sense.
type ErrorKind int

const (
	KindInitialization ErrorKind = iota
	KindFetchQuestion
	KindSubmitAnswer
	KindLoadMessages
	KindValidation
	KindStore
)

func (k ErrorKind) String() string {
	switch k {
	case KindInitialization:
		return "initialization"
	case KindFetchQuestion:
		return "fetch question"
	case KindSubmitAnswer:
		return "submit answer"
	case KindLoadMessages:
		return "load messages"
	case KindValidation:
		return "validation"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// FlowError is the error surfaced to callers of the Controller. Display is
// what the user should see; Err carries the underlying cause for logs.
type FlowError struct {
	Kind    ErrorKind
	Display string
	Err     error
}

func (e *FlowError) Error() string {
	return e.Display
}

func (e *FlowError) Unwrap() error {
	return e.Err
}

func newFlowError(kind ErrorKind, display string, err error) *FlowError {
	return &FlowError{Kind: kind, Display: display, Err: err}
}
