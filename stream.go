package particle

import (
	"bufio"
	"context"
	"errors"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// maxStreamLine bounds a single SSE line.
const maxStreamLine = 1 << 20

// NotificationKind tags a Notification.
type NotificationKind int

const (
	// NotifyOpen is yielded once when the stream is connected.
	NotifyOpen NotificationKind = iota + 1
	// NotifyEvent carries one normalized event.
	NotifyEvent
	// NotifyError is the final notification of a stream that failed or was
	// closed by the server.
	NotifyError
)

func (k NotificationKind) String() string {
	switch k {
	case NotifyOpen:
		return "open"
	case NotifyEvent:
		return "event"
	case NotifyError:
		return "error"
	default:
		return "unknown"
	}
}

// Notification is one item of an event stream.
type Notification struct {
	Kind  NotificationKind
	Event Event
	Err   error
}

// EventStream is a lazy server-sent event subscription. Nothing is sent until
// it is iterated. A stream can be iterated once; breaking out of the loop or
// calling Close ends it. The library never reconnects.
type EventStream struct {
	client *Client
	ctx    context.Context
	path   string
	err    error

	mu       sync.Mutex
	started  bool
	closed   bool
	byCaller bool
	cancel   context.CancelFunc
}

// SubscribeEvents opens the account-wide event stream, optionally limited to
// event names starting with prefix.
func (c *Client) SubscribeEvents(ctx context.Context, prefix string) *EventStream {
	return c.newStream(ctx, eventsPath("devices/events", prefix), nil)
}

// Subscribe opens the event stream of this device, optionally limited to event
// names starting with prefix.
func (d *DeviceHandle) Subscribe(ctx context.Context, prefix string) *EventStream {
	if d.id == "" {
		return d.client.newStream(ctx, "", ErrEmptyDeviceID)
	}
	return d.client.newStream(ctx, eventsPath(devicePath(d.id, "events"), prefix), nil)
}

func eventsPath(base, prefix string) string {
	if prefix == "" {
		return base
	}
	return base + "/" + url.PathEscape(prefix)
}

func (c *Client) newStream(ctx context.Context, path string, err error) *EventStream {
	return &EventStream{client: c, ctx: ctx, path: path, err: err}
}

// Path returns the stream path relative to the versioned API base.
func (s *EventStream) Path() string {
	return s.path
}

// Close ends the stream. A running iteration stops without a NotifyError,
// and iterating a closed stream yields nothing.
func (s *EventStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.byCaller = true
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// begin claims the stream for one iteration and returns its context.
func (s *EventStream) begin() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.started {
		return nil, ErrStreamClosed
	}
	s.started = true
	ctx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel
	return ctx, nil
}

func (s *EventStream) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *EventStream) closedByCaller() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byCaller
}

// Notifications yields NotifyOpen once connected, a NotifyEvent per message,
// and at most one trailing NotifyError.
func (s *EventStream) Notifications() iter.Seq[Notification] {
	return func(yield func(Notification) bool) {
		if s.err != nil {
			yield(Notification{Kind: NotifyError, Err: s.err})
			return
		}

		ctx, err := s.begin()
		if err != nil {
			if !s.closedByCaller() {
				yield(Notification{Kind: NotifyError, Err: err})
			}
			return
		}
		defer s.end()

		body, err := s.open(ctx)
		if err != nil {
			if !s.closedByCaller() {
				s.client.logStream(ctx, "stream_error", s.path, err)
				yield(Notification{Kind: NotifyError, Err: err})
			}
			return
		}
		defer body.Close()

		s.client.logStream(ctx, "stream_open", s.path, nil)
		if !yield(Notification{Kind: NotifyOpen}) {
			return
		}

		stopped := false
		err = readSSE(body, func(raw RawEvent) bool {
			if !yield(Notification{Kind: NotifyEvent, Event: NormalizeEvent(raw)}) {
				stopped = true
				return false
			}
			return true
		})
		if stopped || s.closedByCaller() {
			s.client.logStream(ctx, "stream_closed", s.path, nil)
			return
		}

		if err == nil {
			err = ErrStreamClosed
		} else {
			err = &RequestError{Timeout: isTimeoutSignal(err), Err: err}
		}
		s.client.logStream(ctx, "stream_closed", s.path, err)
		yield(Notification{Kind: NotifyError, Err: err})
	}
}

// Events is the event-only view of Notifications. A terminal failure is
// yielded once as the error value.
func (s *EventStream) Events() iter.Seq2[Event, error] {
	return func(yield func(Event, error) bool) {
		for n := range s.Notifications() {
			switch n.Kind {
			case NotifyEvent:
				if !yield(n.Event, nil) {
					return
				}
			case NotifyError:
				yield(Event{}, n.Err)
				return
			}
		}
	}
}

// open connects the stream. A non-200 reply is classified like any other response.
func (s *EventStream) open(ctx context.Context) (io.ReadCloser, error) {
	req := &Request{Path: s.path, Header: http.Header{"Accept": {"text/event-stream"}}}
	if err := req.validate(); err != nil {
		return nil, err
	}

	httpReq, err := s.client.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Timeout: isTimeoutSignal(err), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_, nerr := normalizeResponse(transportResult{err: err, status: resp.StatusCode, header: resp.Header, body: body}, nil)
		if nerr == nil {
			nerr = &APIError{StatusCode: resp.StatusCode}
		}
		return nil, nerr
	}

	return resp.Body, nil
}

// readSSE parses a text/event-stream body and calls emit for every dispatched
// message. Messages without data are dropped; the name defaults to "message"
// and the last id carries over. It returns when emit returns false or the
// body ends.
func readSSE(body io.Reader, emit func(RawEvent) bool) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStreamLine)

	var (
		name      string
		lastID    string
		dataLines []string
		hasData   bool
	)

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		// Empty line signals end of event
		if line == "" {
			if hasData {
				ev := RawEvent{ID: lastID, Name: name, Data: strings.Join(dataLines, "\n")}
				if ev.Name == "" {
					ev.Name = "message"
				}
				if !emit(ev) {
					return nil
				}
			}
			name, dataLines, hasData = "", nil, false
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			name = value
		case "data":
			dataLines = append(dataLines, value)
			hasData = true
		case "id":
			if !strings.ContainsRune(value, 0) {
				lastID = value
			}
		}
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
