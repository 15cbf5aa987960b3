package emails

import (
	"context"
	"sync"
)

// Sent is one message captured by Recorder.
type Sent struct {
	Kind  string
	To    string
	Name  string
	Hours int
	Alert DepositAlert
}

// Recorder is a Sender that keeps messages in memory. Err, when set, is
// returned from every send after recording.
type Recorder struct {
	mu   sync.Mutex
	Err  error
	sent []Sent
}

func (r *Recorder) record(s Sent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, s)
	return r.Err
}

// Sent returns a copy of everything sent so far.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

func (r *Recorder) SendWelcome(_ context.Context, toEmail, fullName string) error {
	return r.record(Sent{Kind: "welcome", To: toEmail, Name: fullName})
}

func (r *Recorder) SendDepositAlert(_ context.Context, toEmail string, d DepositAlert) error {
	return r.record(Sent{Kind: "deposit_alert", To: toEmail, Alert: d})
}

func (r *Recorder) SendSignalExpiring(_ context.Context, toEmail, fullName string, hoursLeft int) error {
	return r.record(Sent{Kind: "signal_expiring", To: toEmail, Name: fullName, Hours: hoursLeft})
}

func (r *Recorder) SendSignalExpired(_ context.Context, toEmail, fullName string) error {
	return r.record(Sent{Kind: "signal_expired", To: toEmail, Name: fullName})
}
