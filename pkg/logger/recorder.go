package logger

import "sync"

// Entry is one record captured by Recorder.
type Entry struct {
	Level   string
	Message string
	Err     error
	Fields  Fields
}

// Recorder is an in-memory LoggerPort for tests. Loggers derived with
// WithFields share the same entry list.
type Recorder struct {
	mu      *sync.Mutex
	entries *[]Entry
	fields  Fields
}

func NewRecorder() *Recorder {
	return &Recorder{mu: &sync.Mutex{}, entries: &[]Entry{}, fields: Fields{}}
}

func (r *Recorder) add(level, msg string, err error, fields Fields) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.entries = append(*r.entries, Entry{Level: level, Message: msg, Err: err, Fields: mergeFields(r.fields, fields)})
}

func (r *Recorder) Info(msg string, fields Fields)             { r.add("info", msg, nil, fields) }
func (r *Recorder) Warn(msg string, fields Fields)             { r.add("warn", msg, nil, fields) }
func (r *Recorder) Error(msg string, err error, fields Fields) { r.add("error", msg, err, fields) }
func (r *Recorder) Debug(msg string, fields Fields)            { r.add("debug", msg, nil, fields) }

func (r *Recorder) WithFields(fields Fields) LoggerPort {
	return &Recorder{mu: r.mu, entries: r.entries, fields: mergeFields(r.fields, fields)}
}

// Entries returns a copy of everything logged so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(*r.entries))
	copy(out, *r.entries)
	return out
}

// Messages returns logged messages in order.
func (r *Recorder) Messages() []string {
	entries := r.Entries()
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}

// Index returns the position of the first entry with msg, or -1.
func (r *Recorder) Index(msg string) int {
	for i, m := range r.Messages() {
		if m == msg {
			return i
		}
	}
	return -1
}
