package gateway

// Reason says why a request was denied. The zero value means authorized.
type Reason string

const (
	DenyMissingToken    Reason = "missing_token"
	DenyInvalidToken    Reason = "invalid_token"
	DenyNoSession       Reason = "no_session"
	DenySessionMismatch Reason = "session_mismatch"
	DenyInternal        Reason = "internal"
)

// Outcome is the result of one pass through the gate: either Authorized with
// a Subject, or Denied with a Reason. Subject is also filled on denials that
// happen after the token was verified. Err carries the cause of
// DenyInternal for logging and is never shown to clients.
type Outcome struct {
	Subject string
	Reason  Reason
	Err     error
}

func authorized(subject string) Outcome {
	return Outcome{Subject: subject}
}

func denied(reason Reason, subject string, err error) Outcome {
	return Outcome{Subject: subject, Reason: reason, Err: err}
}

// Authorized reports whether the request may proceed.
func (o Outcome) Authorized() bool {
	return o.Reason == ""
}
