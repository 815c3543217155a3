package app

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"todotui/model"
	"todotui/store"
)

// MaxRecords caps the collection; inserts beyond it are silent no-ops.
const MaxRecords = 1000

var (
	ErrCompletedPriority = errors.New("cannot set priority on a completed item")
	ErrInvalidPriority   = errors.New("priority must be a single letter")
	ErrStreamingMode     = errors.New("not available while streaming")
)

// Service owns the record collection and the context registry. Every
// structural read or write goes through its single mutex: the pipe
// ingestion goroutine and the interactive consumer contend only here.
type Service struct {
	mu       sync.Mutex
	records  []model.Record
	contexts []string

	path      string
	streaming bool
	notifier  *Notifier
	now       func() time.Time
}

// NewService creates an empty service bound to a source path. In
// streaming mode the source is a named pipe: Load and all persistence
// become no-ops and records arrive through AppendStreamLine instead.
func NewService(path string, streaming bool, notifier *Notifier) *Service {
	return &Service{
		contexts:  []string{model.ContextAll},
		path:      path,
		streaming: streaming,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Streaming reports whether the service runs in ingestion mode.
func (s *Service) Streaming() bool {
	return s.streaming
}

// Load replaces all records and the context registry from the source
// file, discarding any pending in-memory edits. It doubles as the
// explicit reset-to-saved operation.
func (s *Service) Load() error {
	if s.streaming {
		return ErrStreamingMode
	}

	records, err := store.Load(s.path)
	if err != nil {
		return err
	}
	if len(records) > MaxRecords {
		records = records[:MaxRecords]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.contexts = []string{model.ContextAll}
	for _, r := range records {
		s.registerContextLocked(r.Context)
	}
	return nil
}

// Records returns a copy of the full collection in current order.
func (s *Service) Records() []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Visible returns a copy of the records matching context, in current
// relative order.
func (s *Service) Visible(context string) []model.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Record, 0, len(s.records))
	for _, i := range s.visibleIndexesLocked(context) {
		out = append(out, s.records[i])
	}
	return out
}

// CountVisible returns the number of records matching context.
func (s *Service) CountVisible(context string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.visibleIndexesLocked(context))
}

// Contexts returns the registry: unique labels in first-seen order,
// ContextAll always first.
func (s *Service) Contexts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.contexts))
	copy(out, s.contexts)
	return out
}

// RegisterContext adds a label to the registry if absent.
func (s *Service) RegisterContext(label string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registerContextLocked(label)
}

// SortByDate stably reorders the records matching context by date,
// splicing the sorted subset back into the subset's original positions.
// Records outside the context keep their absolute positions.
func (s *Service) SortByDate(context string, descending bool) {
	s.sortVisible(context, func(a, b model.Record) bool {
		if descending {
			return a.Date > b.Date
		}
		return a.Date < b.Date
	})
}

// SortByPriority stably reorders the records matching context by priority
// letter. A record without a priority sorts after 'Z'.
func (s *Service) SortByPriority(context string, descending bool) {
	s.sortVisible(context, func(a, b model.Record) bool {
		ka, kb := priorityKey(a), priorityKey(b)
		if descending {
			return ka > kb
		}
		return ka < kb
	})
}

// GroupByCompletion stably partitions the records matching context into
// incomplete-then-completed, within the subset's positions.
func (s *Service) GroupByCompletion(context string) {
	s.sortVisible(context, func(a, b model.Record) bool {
		return !a.Completed && b.Completed
	})
}

func (s *Service) sortVisible(context string, less func(a, b model.Record) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indexes := s.visibleIndexesLocked(context)
	subset := make([]model.Record, len(indexes))
	for i, idx := range indexes {
		subset[i] = s.records[idx]
	}
	sort.SliceStable(subset, func(i, j int) bool {
		return less(subset[i], subset[j])
	})
	for i, idx := range indexes {
		s.records[idx] = subset[i]
	}
}

// ToggleCompletion flips the completion state of the view-relative record
// and translates the priority representation: completing moves the letter
// into the text as a trailing " pri:X" token, uncompleting extracts it
// back. Toggling twice restores the original record.
func (s *Service) ToggleCompletion(context string, viewIndex int) error {
	s.mu.Lock()
	idx, ok := s.absoluteIndexLocked(context, viewIndex)
	if !ok {
		s.mu.Unlock()
		return nil
	}

	r := &s.records[idx]
	r.Completed = !r.Completed

	event := EventUncompleted
	if r.Completed {
		event = EventCompleted
		r.CompletionDate = model.Today(s.now())
		if r.Priority != "" {
			tag := " pri:" + r.Priority
			if !strings.HasSuffix(r.Text, tag) {
				r.Text += tag
			}
			r.Priority = ""
		}
	} else {
		r.CompletionDate = ""
		if letter, trimmed, ok := cutPriTag(r.Text); ok {
			r.Priority = letter
			r.Text = trimmed
		}
	}

	text := r.Text
	err := s.persistLocked()
	s.mu.Unlock()

	s.notifier.Notify(event, text)
	return err
}

// SetPriority assigns or clears (empty letter) the priority of the
// view-relative record. Completed records are rejected: their priority
// lives in the text until they are uncompleted.
func (s *Service) SetPriority(context string, viewIndex int, letter string) error {
	if letter != "" && (len(letter) != 1 || !isLetter(letter[0])) {
		return ErrInvalidPriority
	}

	s.mu.Lock()
	idx, ok := s.absoluteIndexLocked(context, viewIndex)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	if s.records[idx].Completed {
		s.mu.Unlock()
		return ErrCompletedPriority
	}
	s.records[idx].Priority = strings.ToUpper(letter)
	err := s.persistLocked()
	s.mu.Unlock()
	return err
}

// SetContext re-tags the view-relative record and registers the label.
// An empty label is a no-op.
func (s *Service) SetContext(context string, viewIndex int, label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return nil
	}

	s.mu.Lock()
	idx, ok := s.absoluteIndexLocked(context, viewIndex)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	s.records[idx].Context = label
	s.registerContextLocked(label)
	err := s.persistLocked()
	s.mu.Unlock()
	return err
}

// InsertNew creates an uncompleted record dated today, tagged with the
// current view's context, and inserts it right after the view-relative
// position (or appends when the view is empty). Unavailable while
// streaming.
func (s *Service) InsertNew(context string, afterViewIndex int, text string) error {
	if s.streaming {
		return ErrStreamingMode
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	s.mu.Lock()
	if len(s.records) >= MaxRecords {
		s.mu.Unlock()
		return nil
	}

	rec := model.Record{
		Date:    model.Today(s.now()),
		Context: context,
		Text:    text,
	}

	if idx, ok := s.absoluteIndexLocked(context, afterViewIndex); ok {
		s.records = append(s.records, model.Record{})
		copy(s.records[idx+2:], s.records[idx+1:])
		s.records[idx+1] = rec
	} else {
		s.records = append(s.records, rec)
	}
	s.registerContextLocked(context)
	err := s.persistLocked()
	s.mu.Unlock()

	s.notifier.Notify(EventAdded, text)
	return err
}

// ArchiveCompleted appends every completed record, in encounter order, to
// the archive file, then removes them from the collection. If the archive
// cannot be opened nothing is removed; once writing has begun the
// appended set is best-effort. Returns the number of archived records.
func (s *Service) ArchiveCompleted(dest string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	completed := make([]model.Record, 0)
	kept := make([]model.Record, 0, len(s.records))
	for _, r := range s.records {
		if r.Completed {
			completed = append(completed, r)
			continue
		}
		kept = append(kept, r)
	}
	if len(completed) == 0 {
		return 0, nil
	}

	if err := store.AppendArchive(dest, completed); err != nil {
		return 0, err
	}

	s.records = kept
	return len(completed), s.persistLocked()
}

// AppendStreamLine derives a record from one pipe line and appends it:
// the first @label token found anywhere becomes the context and is
// removed from the text, the date is stamped with today. Reports whether
// the record was appended (capacity can reject it).
func (s *Service) AppendStreamLine(line string) bool {
	if len(line) > model.MaxLineLen {
		line = line[:model.MaxLineLen]
	}
	context, text := cutContextTag(strings.TrimRight(line, "\r\n"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) >= MaxRecords {
		return false
	}
	s.records = append(s.records, model.Record{
		Date:    model.Today(s.now()),
		Context: context,
		Text:    text,
	})
	s.registerContextLocked(context)
	return true
}

// persistLocked rewrites the source file with the current collection.
// Streaming mode never writes back to the source.
func (s *Service) persistLocked() error {
	if s.streaming {
		return nil
	}
	return store.Persist(s.path, s.records)
}

func (s *Service) registerContextLocked(label string) {
	for _, c := range s.contexts {
		if c == label {
			return
		}
	}
	s.contexts = append(s.contexts, label)
}

func (s *Service) visibleIndexesLocked(context string) []int {
	indexes := make([]int, 0, len(s.records))
	for i := range s.records {
		if context == model.ContextAll || s.records[i].Context == context {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// absoluteIndexLocked translates a view-relative index under a context
// filter into an index over the full sequence.
func (s *Service) absoluteIndexLocked(context string, viewIndex int) (int, bool) {
	if viewIndex < 0 {
		return 0, false
	}
	shown := 0
	for i := range s.records {
		if context != model.ContextAll && s.records[i].Context != context {
			continue
		}
		if shown == viewIndex {
			return i, true
		}
		shown++
	}
	return 0, false
}

func priorityKey(r model.Record) byte {
	if r.Priority == "" {
		return 127
	}
	return r.Priority[0]
}

// cutPriTag matches a trailing " pri:X" token and returns the letter and
// the text with the token and trailing whitespace removed.
func cutPriTag(text string) (letter, trimmed string, ok bool) {
	if len(text) < 6 {
		return "", text, false
	}
	tail := text[len(text)-6:]
	if tail[:5] != " pri:" || !isLetter(tail[5]) {
		return "", text, false
	}
	return string(tail[5]), strings.TrimRight(text[:len(text)-6], " \t"), true
}

// cutContextTag extracts the first whitespace-delimited @label token from
// anywhere in a stream line. Without one, the context is ContextAll.
func cutContextTag(line string) (context, text string) {
	at := strings.IndexByte(line, '@')
	if at == -1 {
		return model.ContextAll, strings.TrimSpace(line)
	}
	end := at + 1
	for end < len(line) && line[end] != ' ' && line[end] != '\t' {
		end++
	}
	label := line[at+1 : end]
	if label == "" {
		return model.ContextAll, strings.TrimSpace(line)
	}
	return label, strings.TrimSpace(strings.TrimSpace(line[:at]) + " " + strings.TrimSpace(line[end:]))
}

func isLetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}
