// Package session owns the user's current photo and drives it through the
// UI modes (waiting for a photo, ready, processing).
//
// All state lives on a single event loop goroutine. Public methods post an
// event to the loop and wait for its reply, so callers on any goroutine see a
// consistent view. At most one processing run is outstanding at a time; its
// completion is posted back to the loop like any other event.
package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-overlay/internal/detector"
	"github.com/kozaktomas/face-overlay/internal/notice"
	"github.com/kozaktomas/face-overlay/internal/overlay"
	"github.com/sirupsen/logrus"
)

var (
	// ErrBusy is returned while a photo is being processed.
	ErrBusy = errors.New("a photo is already being processed")
	// ErrNoPhoto is returned when an action needs a photo and none was picked.
	ErrNoPhoto = errors.New("no photo")
	// ErrNotImplemented is returned by actions that only exist as stubs.
	ErrNotImplemented = errors.New("not implemented")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

// Processor turns a photo into a processed copy.
type Processor interface {
	Process(ctx context.Context, photo image.Image) (*overlay.Result, error)
}

// Notice is a transient message for the user. It is stored by key so that
// each surface can render it in its own language.
type Notice struct {
	Key   notice.Key `json:"key"`
	Args  []any      `json:"args,omitempty"`
	Error bool       `json:"error"`
}

// RunStats describes a finished processing run.
type RunStats struct {
	RunID      string          `json:"run_id"`
	Detector   string          `json:"detector,omitempty"`
	Faces      []detector.Face `json:"faces"`
	DurationMS int64           `json:"duration_ms"`
	Error      string          `json:"error,omitempty"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Snapshot is a copy of the session state at one point in time. Photo is
// shared, not copied: a published photo is never modified, only replaced.
type Snapshot struct {
	Mode    Mode
	Photo   image.Image
	Version uint64
	Notice  *Notice
	RunID   string
	Running bool
	LastRun *RunStats
}

// EventType names what changed.
type EventType string

// EventType constants.
const (
	EventMode      EventType = "mode"
	EventPhoto     EventType = "photo"
	EventNotice    EventType = "notice"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
)

// Event is sent to subscribers. Mode is always the mode after the change.
type Event struct {
	Type    EventType `json:"type"`
	Mode    Mode      `json:"mode"`
	RunID   string    `json:"run_id,omitempty"`
	Version uint64    `json:"version"`
	Notice  *Notice   `json:"notice,omitempty"`
	Run     *RunStats `json:"run,omitempty"`
}

// Session is the controller behind every presentation surface.
type Session struct {
	processor Processor
	logger    logrus.FieldLogger
	listeners broadcaster

	events    chan any
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Owned by the loop goroutine.
	mode    Mode
	photo   image.Image
	version uint64
	notice  *Notice
	runID   string
	running bool
	lastRun *RunStats
	waiters []chan struct{}
}

// events
type (
	evtSetPhoto struct {
		photo image.Image
		reply chan error
	}
	evtProcess struct {
		ctx   context.Context
		reply chan processReply
	}
	evtRunDone struct {
		runID  string
		result *overlay.Result
		err    error
	}
	evtDismiss       struct{ reply chan struct{} }
	evtAcquireFailed struct {
		err   error
		reply chan struct{}
	}
	evtShare    struct{ reply chan struct{} }
	evtSnapshot struct{ reply chan Snapshot }
	evtWait     struct{ reply chan chan struct{} }
)

type processReply struct {
	runID string
	err   error
}

// New starts the session loop in WaitingForPhoto mode.
func New(processor Processor, logger logrus.FieldLogger) *Session {
	s := &Session{
		processor: processor,
		logger:    logger,
		events:    make(chan any, 64),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		mode:      WaitingForPhoto,
	}
	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.stopped)
	for {
		select {
		case ev := <-s.events:
			s.handle(ev)
		case <-s.quit:
			s.listeners.closeAll()
			for _, w := range s.waiters {
				close(w)
			}
			s.waiters = nil
			return
		}
	}
}

func (s *Session) handle(ev any) {
	switch e := ev.(type) {
	case evtSetPhoto:
		e.reply <- s.setPhoto(e.photo)
	case evtProcess:
		runID, err := s.startRun(e.ctx)
		e.reply <- processReply{runID: runID, err: err}
	case evtRunDone:
		s.finishRun(e)
	case evtDismiss:
		s.dismiss()
		e.reply <- struct{}{}
	case evtAcquireFailed:
		s.logger.WithError(e.err).Warn("cannot open photo")
		s.setNotice(&Notice{Key: notice.CannotOpenPhoto, Error: true})
		e.reply <- struct{}{}
	case evtShare:
		s.setNotice(&Notice{Key: notice.ComingSoon})
		e.reply <- struct{}{}
	case evtSnapshot:
		e.reply <- s.snapshot()
	case evtWait:
		ch := make(chan struct{})
		if s.running {
			s.waiters = append(s.waiters, ch)
		} else {
			close(ch)
		}
		e.reply <- ch
	}
}

// request posts an event built around a reply channel and waits for the
// answer.
func request[T any](s *Session, build func(reply chan T) any) (T, error) {
	var zero T
	reply := make(chan T, 1)
	select {
	case s.events <- build(reply):
	case <-s.quit:
		return zero, ErrClosed
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.stopped:
		return zero, ErrClosed
	}
}

// SetPhoto replaces the current photo with a freshly acquired one and
// switches to Ready. It is refused while a photo is being processed.
func (s *Session) SetPhoto(photo image.Image) error {
	if photo == nil {
		return ErrNoPhoto
	}
	err, closedErr := request(s, func(reply chan error) any {
		return evtSetPhoto{photo: photo, reply: reply}
	})
	if closedErr != nil {
		return closedErr
	}
	return err
}

// Process starts a background run over the current photo and returns its id.
// The run is not tied to ctx's cancellation.
func (s *Session) Process(ctx context.Context) (string, error) {
	r, err := request(s, func(reply chan processReply) any {
		return evtProcess{ctx: ctx, reply: reply}
	})
	if err != nil {
		return "", err
	}
	return r.runID, r.err
}

// DismissNotice clears the current notice. After a failed run it also
// returns the session to Ready with the unmodified photo.
func (s *Session) DismissNotice() error {
	_, err := request(s, func(reply chan struct{}) any {
		return evtDismiss{reply: reply}
	})
	return err
}

// AcquisitionFailed records that a photo could not be opened. Mode and photo
// stay as they were.
func (s *Session) AcquisitionFailed(cause error) error {
	_, err := request(s, func(reply chan struct{}) any {
		return evtAcquireFailed{err: cause, reply: reply}
	})
	return err
}

// Share is not implemented. It raises a "coming soon" notice.
func (s *Session) Share() error {
	if _, err := request(s, func(reply chan struct{}) any {
		return evtShare{reply: reply}
	}); err != nil {
		return err
	}
	return ErrNotImplemented
}

// Snapshot returns the current state.
func (s *Session) Snapshot() (Snapshot, error) {
	return request(s, func(reply chan Snapshot) any {
		return evtSnapshot{reply: reply}
	})
}

// Wait blocks until no processing run is outstanding.
func (s *Session) Wait(ctx context.Context) error {
	done, err := request(s, func(reply chan chan struct{}) any {
		return evtWait{reply: reply}
	})
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel receiving session events. The channel is
// closed by Unsubscribe or Close.
func (s *Session) Subscribe() <-chan Event {
	return s.listeners.add()
}

// Unsubscribe stops delivery to ch and closes it.
func (s *Session) Unsubscribe(ch <-chan Event) {
	s.listeners.remove(ch)
}

// Close stops the loop. A run still in flight finishes but its result is
// dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.stopped
}

func (s *Session) setPhoto(photo image.Image) error {
	if s.mode == Processing {
		return ErrBusy
	}
	s.photo = photo
	s.version++
	s.notice = nil
	if err := s.changeMode(Ready); err != nil {
		return err
	}

	b := photo.Bounds()
	s.logger.WithFields(logrus.Fields{
		"width":   b.Dx(),
		"height":  b.Dy(),
		"version": s.version,
	}).Info("photo acquired")
	s.publish(Event{Type: EventPhoto})
	return nil
}

func (s *Session) startRun(ctx context.Context) (string, error) {
	if s.mode == Processing {
		return "", ErrBusy
	}
	if s.photo == nil {
		return "", ErrNoPhoto
	}
	if err := s.changeMode(Processing); err != nil {
		return "", err
	}

	runID := uuid.New().String()
	s.runID = runID
	s.running = true
	s.setNotice(&Notice{Key: notice.Processing})

	go s.run(context.WithoutCancel(ctx), runID, s.photo)

	s.logger.WithField("run_id", runID).Info("processing started")
	return runID, nil
}

// run executes off the loop. It only reads photo, which is never modified
// once published.
func (s *Session) run(ctx context.Context, runID string, photo image.Image) {
	var (
		result *overlay.Result
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.WithField("stack", string(debug.Stack())).Error("processing panic")
				err = fmt.Errorf("processing panic: %v", r)
			}
		}()
		result, err = s.processor.Process(ctx, photo)
	}()

	select {
	case s.events <- evtRunDone{runID: runID, result: result, err: err}:
	case <-s.quit:
	}
}

func (s *Session) finishRun(e evtRunDone) {
	s.running = false
	defer s.releaseWaiters()

	stats := &RunStats{RunID: e.runID, FinishedAt: time.Now()}
	logger := s.logger.WithField("run_id", e.runID)

	if e.err != nil {
		stats.Error = e.err.Error()
		s.lastRun = stats

		key := notice.ProcessingFailed
		if errors.Is(e.err, overlay.ErrDetectorUnavailable) {
			key = notice.DetectorUnavailable
		}
		logger.WithError(e.err).Warn("processing failed")

		// Stay in Processing until the user dismisses the notice.
		s.setNotice(&Notice{Key: key, Error: true})
		s.publish(Event{Type: EventFailed, Run: stats})
		return
	}

	stats.Detector = e.result.Detector
	stats.Faces = e.result.Faces
	stats.DurationMS = e.result.Duration.Milliseconds()
	s.lastRun = stats

	s.photo = e.result.Image
	s.version++
	if err := s.changeMode(Ready); err != nil {
		logger.WithError(err).Error("cannot leave processing mode")
	}
	s.setNotice(&Notice{Key: notice.Done, Args: []any{len(e.result.Faces)}})

	logger.WithFields(logrus.Fields{
		"faces":    len(stats.Faces),
		"detector": stats.Detector,
	}).Info("processing finished")
	s.publish(Event{Type: EventCompleted, Run: stats})
}

func (s *Session) dismiss() {
	s.notice = nil
	if s.mode == Processing && !s.running {
		if err := s.changeMode(Ready); err != nil {
			s.logger.WithError(err).Error("cannot leave processing mode")
		}
	}
	s.publish(Event{Type: EventNotice})
}

func (s *Session) releaseWaiters() {
	for _, w := range s.waiters {
		close(w)
	}
	s.waiters = nil
}

// changeMode applies a transition. Re-entering the current mode does nothing.
func (s *Session) changeMode(to Mode) error {
	if to == Ready && s.photo == nil {
		return fmt.Errorf("%w: cannot enter %s without a photo", ErrInvalidTransition, to)
	}
	next, changed, err := Transition(s.mode, to)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	prev := s.mode
	s.mode = next
	s.logger.WithFields(logrus.Fields{
		"from": prev.String(),
		"to":   next.String(),
	}).Debug("mode transition")
	s.publish(Event{Type: EventMode})
	return nil
}

func (s *Session) setNotice(n *Notice) {
	s.notice = n
	s.publish(Event{Type: EventNotice})
}

func (s *Session) publish(e Event) {
	e.Mode = s.mode
	e.RunID = s.runID
	e.Version = s.version
	if e.Type == EventNotice {
		e.Notice = s.notice
	}
	s.listeners.send(e)
}

func (s *Session) snapshot() Snapshot {
	return Snapshot{
		Mode:    s.mode,
		Photo:   s.photo,
		Version: s.version,
		Notice:  s.notice,
		RunID:   s.runID,
		Running: s.running,
		LastRun: s.lastRun,
	}
}
