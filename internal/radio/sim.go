package radio

import (
	"context"
	"sync"
)

const simRingCapacity = 64

// SentFrame is one SendWithRetry call recorded by Sim.
type SentFrame struct {
	Target uint16
	Data   []byte
}

// Sim is an in-memory transceiver for bench runs and tests.
// Frames are injected with Inject and every send is logged.
// Sends succeed unless SetSendResult says otherwise.
type Sim struct {
	mu sync.Mutex

	rx   frameRing
	sent []SentFrame
	acks []uint16

	sendOK    bool
	sendErr   error
	reinitErr error
	reinits   int
	settings  Settings
	closed    bool
}

// NewSim creates a simulator whose sends are acknowledged.
func NewSim() *Sim {
	return &Sim{sendOK: true}
}

// Inject queues a frame as if it had arrived over the air.
// The oldest frame is overwritten when the queue is full.
func (s *Sim) Inject(f RawFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	f.Data = data
	s.rx.push(f)
}

// SetSendResult sets the outcome of subsequent SendWithRetry calls.
func (s *Sim) SetSendResult(ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendOK = ok
	s.sendErr = err
}

// SetReinitError makes subsequent Reinitialize calls fail with err.
func (s *Sim) SetReinitError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reinitErr = err
}

// ReceiveReady reports whether an injected frame is waiting.
func (s *Sim) ReceiveReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rx.count > 0
}

// Read pops the oldest injected frame.
func (s *Sim) Read() (RawFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.rx.pop(); ok {
		return f, nil
	}
	if s.closed {
		return RawFrame{}, ErrClosed
	}
	return RawFrame{}, ErrNoFrame
}

// SendWithRetry logs the send and returns the configured result.
func (s *Sim) SendWithRetry(ctx context.Context, node uint16, data []byte) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false, ErrClosed
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	s.sent = append(s.sent, SentFrame{Target: node, Data: cp})
	return s.sendOK, s.sendErr
}

// SendAck logs the ack.
func (s *Sim) SendAck(node uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.acks = append(s.acks, node)
	return nil
}

// Reinitialize validates and records the settings.
func (s *Sim) Reinitialize(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reinits++
	if s.reinitErr != nil {
		return s.reinitErr
	}
	s.settings = settings
	return nil
}

// Close marks the simulator closed.
func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Sent returns a copy of the send log.
func (s *Sim) Sent() []SentFrame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]SentFrame, len(s.sent))
	copy(out, s.sent)
	return out
}

// Acks returns the nodes acked so far, in order.
func (s *Sim) Acks() []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]uint16, len(s.acks))
	copy(out, s.acks)
	return out
}

// Reinits returns how many times Reinitialize was called.
func (s *Sim) Reinits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reinits
}

// Settings returns the last applied settings.
func (s *Sim) Settings() Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// frameRing is a fixed-size FIFO that overwrites the oldest frame.
type frameRing struct {
	data       [simRingCapacity]RawFrame
	head, tail int
	count      int
}

func (rb *frameRing) push(f RawFrame) {
	if rb.count == simRingCapacity {
		rb.data[rb.tail] = RawFrame{}
		rb.head = (rb.head + 1) % simRingCapacity
		rb.count--
	}
	rb.data[rb.tail] = f
	rb.tail = (rb.tail + 1) % simRingCapacity
	rb.count++
}

func (rb *frameRing) pop() (RawFrame, bool) {
	if rb.count == 0 {
		return RawFrame{}, false
	}
	f := rb.data[rb.head]
	rb.data[rb.head] = RawFrame{}
	rb.head = (rb.head + 1) % simRingCapacity
	rb.count--
	return f, true
}
