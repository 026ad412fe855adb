package record

import "sync"

// Session is one recording context, identified by an application name
// such as "episode_3". It stamps every logged value with the current
// frame index and timestamp axes, keeps the full backlog in emission
// order, and fans each record out to attached sinks.
//
// Logging happens on a single goroutine; the accessors are safe to call
// concurrently (the distant-mode status endpoint reads while the loader
// streams).
type Session struct {
	mu        sync.Mutex
	app       string
	frame     int64
	timestamp *float64
	records   []Record
	sinks     []Sink
	entities  []string
	seen      map[string]int
}

func NewSession(app string) *Session {
	return &Session{app: app, seen: make(map[string]int)}
}

func (s *Session) App() string { return s.app }

// Attach registers a sink for all future records. Records already in the
// backlog are not replayed; sinks that need the backlog read Records.
func (s *Session) Attach(sink Sink) {
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
}

// SetFrame sets the frame-index axis for subsequent records.
func (s *Session) SetFrame(i int64) {
	s.mu.Lock()
	s.frame = i
	s.mu.Unlock()
}

// SetTimestamp sets the timestamp axis for subsequent records. The axis
// keeps its value until set again; records logged before the first call
// carry no timestamp.
func (s *Session) SetTimestamp(t float64) {
	s.mu.Lock()
	s.timestamp = &t
	s.mu.Unlock()
}

// LogScalar emits a scalar record under the given entity path.
func (s *Session) LogScalar(entity string, v float64) {
	s.append(Record{Entity: entity, Kind: KindScalar, Scalar: v})
}

// LogImage emits an image record under the given entity path.
func (s *Session) LogImage(entity string, im Image) {
	s.append(Record{Entity: entity, Kind: KindImage, Image: &im})
}

func (s *Session) append(r Record) {
	s.mu.Lock()
	r.Frame = s.frame
	if s.timestamp != nil {
		t := *s.timestamp
		r.Time = &t
	}
	if _, ok := s.seen[r.Entity]; !ok {
		s.seen[r.Entity] = len(s.entities)
		s.entities = append(s.entities, r.Entity)
	}
	s.records = append(s.records, r)
	sinks := s.sinks
	s.mu.Unlock()

	for _, sink := range sinks {
		sink.Emit(r)
	}
}

// Len returns the number of records emitted so far.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Records returns a copy of the backlog in emission order.
func (s *Session) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Entities returns all logged entity paths in first-seen order.
func (s *Session) Entities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.entities))
	copy(out, s.entities)
	return out
}

// MaxFrame returns the largest frame index stamped on any record, or -1
// for an empty session.
func (s *Session) MaxFrame() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	max := int64(-1)
	for i := range s.records {
		if s.records[i].Frame > max {
			max = s.records[i].Frame
		}
	}
	return max
}
