package auth

// FlowState tracks how far a login attempt progressed
type FlowState int

const (
	AwaitingRequestToken FlowState = iota
	ExchangingForAccessToken
	SessionEstablished
	Failed
)

func (s FlowState) String() string {
	switch s {
	case AwaitingRequestToken:
		return "AwaitingRequestToken"
	case ExchangingForAccessToken:
		return "ExchangingForAccessToken"
	case SessionEstablished:
		return "SessionEstablished"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// flow records the state reached by one login attempt and why it failed, if it did
type flow struct {
	state   FlowState
	reached FlowState
	reason  error
}

func newFlow() *flow {
	return &flow{state: AwaitingRequestToken, reached: AwaitingRequestToken}
}

func (f *flow) advance(next FlowState) {
	f.state = next
	f.reached = next
}

// fail moves the flow to Failed from whatever state it was in and returns err unchanged
func (f *flow) fail(err error) error {
	f.state = Failed
	f.reason = err
	return err
}
