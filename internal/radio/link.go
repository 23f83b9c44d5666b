package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

const (
	// DefaultSendTimeout bounds every request/result exchange.
	DefaultSendTimeout = time.Second

	// maxQueuedFrames caps frames waiting for the bridge loop.
	// The oldest frame is dropped on overflow.
	maxQueuedFrames = 32

	readBufferSize = 256
)

// LinkOptions configures a Link.
type LinkOptions struct {
	// SendTimeout bounds SendWithRetry and Reinitialize.
	// Default: 1 second.
	SendTimeout time.Duration

	// Logger is optional.
	Logger Logger
}

// Link drives an RFM69 co-processor over a byte stream (USB serial or
// WebSocket). A single reader goroutine decodes packets: received frames
// are queued for Read, results are routed to the waiting request by
// sequence number.
//
// Thread Safety: All methods are safe for concurrent use.
type Link struct {
	conn        io.ReadWriteCloser
	sendTimeout time.Duration
	logger      Logger

	writeMu sync.Mutex

	rxMu sync.Mutex
	rx   []RawFrame

	pendingMu sync.Mutex
	pending   map[uint8]chan resultMsg
	seq       uint8

	done      chan struct{}
	closeOnce sync.Once
	errMu     sync.Mutex
	readErr   error
}

// NewLink starts the reader goroutine on conn. The Link owns conn.
func NewLink(conn io.ReadWriteCloser, opts LinkOptions) *Link {
	timeout := opts.SendTimeout
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}

	l := &Link{
		conn:        conn,
		sendTimeout: timeout,
		logger:      opts.Logger,
		pending:     make(map[uint8]chan resultMsg),
		done:        make(chan struct{}),
	}
	go l.readLoop()
	return l
}

// ReceiveReady reports whether a frame is queued. Never blocks.
func (l *Link) ReceiveReady() bool {
	l.rxMu.Lock()
	defer l.rxMu.Unlock()
	return len(l.rx) > 0
}

// Read pops the oldest queued frame.
// It returns ErrNoFrame when the queue is empty, or ErrClosed once the
// link has failed and the queue is drained.
func (l *Link) Read() (RawFrame, error) {
	l.rxMu.Lock()
	if len(l.rx) > 0 {
		f := l.rx[0]
		l.rx = l.rx[1:]
		l.rxMu.Unlock()
		return f, nil
	}
	l.rxMu.Unlock()

	if l.isClosed() {
		return RawFrame{}, l.closedErr()
	}
	return RawFrame{}, ErrNoFrame
}

// SendWithRetry sends data to node using the transceiver's retry/ack
// handshake. It returns true when the node acknowledged. A false result
// with a nil error means the retries were exhausted.
func (l *Link) SendWithRetry(ctx context.Context, node uint16, data []byte) (bool, error) {
	seq := l.nextSeq()
	res, err := l.request(ctx, seq, MsgSend, sendMsg{Seq: seq, Target: node, Data: data})
	if err != nil {
		return false, err
	}
	return res.OK, nil
}

// SendAck acknowledges the last frame from node. Fire and forget.
func (l *Link) SendAck(node uint16) error {
	return l.write(MsgSendAck, sendAckMsg{Target: node})
}

// Reinitialize pushes settings to the transceiver and waits for the result.
func (l *Link) Reinitialize(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	seq := l.nextSeq()
	res, err := l.request(context.Background(), seq, MsgConfigure, newConfigureMsg(seq, s))
	if err != nil {
		return err
	}
	if !res.OK {
		return fmt.Errorf("%w: configure: %s", ErrRejected, res.Reason)
	}
	return nil
}

// Close closes the underlying connection and stops the reader.
func (l *Link) Close() error {
	err := l.conn.Close()
	l.shutdown(ErrClosed)
	return err
}

// Done is closed when the reader goroutine exits.
func (l *Link) Done() <-chan struct{} {
	return l.done
}

// Err returns why the link stopped, or nil while it is running.
func (l *Link) Err() error {
	if !l.isClosed() {
		return nil
	}
	return l.closedErr()
}

// request writes a packet and waits for the result carrying seq.
func (l *Link) request(ctx context.Context, seq uint8, msgType uint8, v any) (resultMsg, error) {
	ch := make(chan resultMsg, 1)

	l.pendingMu.Lock()
	l.pending[seq] = ch
	l.pendingMu.Unlock()

	defer func() {
		l.pendingMu.Lock()
		delete(l.pending, seq)
		l.pendingMu.Unlock()
	}()

	if err := l.write(msgType, v); err != nil {
		return resultMsg{}, err
	}

	timer := time.NewTimer(l.sendTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res, nil
	case <-timer.C:
		return resultMsg{}, fmt.Errorf("%w: message type 0x%02X after %s", ErrTimeout, msgType, l.sendTimeout)
	case <-ctx.Done():
		return resultMsg{}, ctx.Err()
	case <-l.done:
		return resultMsg{}, l.closedErr()
	}
}

func (l *Link) write(msgType uint8, v any) error {
	if l.isClosed() {
		return l.closedErr()
	}

	pkt, err := marshalPacket(msgType, v)
	if err != nil {
		return err
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	if _, err := l.conn.Write(pkt); err != nil {
		return fmt.Errorf("writing to transceiver: %w", err)
	}
	return nil
}

func (l *Link) nextSeq() uint8 {
	l.pendingMu.Lock()
	defer l.pendingMu.Unlock()
	l.seq++
	return l.seq
}

// readLoop decodes the byte stream until the connection fails.
func (l *Link) readLoop() {
	dec := NewDecoder()
	buf := make([]byte, readBufferSize)

	for {
		n, err := l.conn.Read(buf)
		for _, b := range buf[:n] {
			pkt, derr := dec.DecodeByte(b)
			if derr != nil {
				l.logWarn("dropping corrupt link packet", "error", derr)
				continue
			}
			if pkt != nil {
				l.dispatch(pkt)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = ErrClosed
			} else {
				err = fmt.Errorf("%w: %w", ErrClosed, err)
			}
			l.shutdown(err)
			return
		}
	}
}

func (l *Link) dispatch(pkt *Packet) {
	switch pkt.Type {
	case MsgReceived:
		var m receivedMsg
		if err := unmarshalPayload(pkt, &m); err != nil {
			l.logWarn("dropping received frame", "error", err)
			return
		}
		l.enqueue(m.frame())

	case MsgSendResult, MsgConfigureResult:
		var m resultMsg
		if err := unmarshalPayload(pkt, &m); err != nil {
			l.logWarn("dropping result", "error", err)
			return
		}
		l.pendingMu.Lock()
		ch, ok := l.pending[m.Seq]
		l.pendingMu.Unlock()
		if !ok {
			l.logDebug("result for unknown request", "seq", m.Seq)
			return
		}
		select {
		case ch <- m:
		default:
		}

	case MsgError:
		var m errorMsg
		if err := unmarshalPayload(pkt, &m); err != nil {
			l.logWarn("dropping error report", "error", err)
			return
		}
		l.logWarn("transceiver reported error", "code", m.Code, "message", m.Message)

	default:
		l.logDebug("ignoring unknown link packet", "type", fmt.Sprintf("0x%02X", pkt.Type))
	}
}

func (l *Link) enqueue(f RawFrame) {
	l.rxMu.Lock()
	defer l.rxMu.Unlock()

	if len(l.rx) >= maxQueuedFrames {
		l.rx = l.rx[1:]
		l.logWarn("receive queue full, dropping oldest frame", "capacity", maxQueuedFrames)
	}
	l.rx = append(l.rx, f)
}

func (l *Link) shutdown(err error) {
	l.closeOnce.Do(func() {
		l.errMu.Lock()
		l.readErr = err
		l.errMu.Unlock()
		close(l.done)
	})
}

func (l *Link) isClosed() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

func (l *Link) closedErr() error {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	if l.readErr != nil {
		return l.readErr
	}
	return ErrClosed
}

func (l *Link) logWarn(msg string, keysAndValues ...any) {
	if l.logger != nil {
		l.logger.Warn(msg, keysAndValues...)
	}
}

func (l *Link) logDebug(msg string, keysAndValues ...any) {
	if l.logger != nil {
		l.logger.Debug(msg, keysAndValues...)
	}
}
