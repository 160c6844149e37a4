package model

import (
	"sync"
	"time"

	"github.com/Laisky/errors/v2"
	gocache "github.com/patrickmn/go-cache"
)

var (
	ErrEvaluationInFlight = errors.New("an evaluation is already running for this session")
	ErrNoDataset          = errors.New("no dataset loaded, upload one first")
	// ErrStaleEvaluation is returned when the dataset was replaced or the session reset while the
	// evaluation ran. Its record is dropped.
	ErrStaleEvaluation = errors.New("dataset changed while the evaluation was running")
)

// Session is the per-user workspace: the active dataset, its run history and the evaluation
// in-flight flag.
type Session struct {
	ID string

	mu             sync.RWMutex
	dataset        *Dataset
	preview        []Record
	refAnswerField string
	defaultRef     string
	history        *RunHistory
	// generation changes whenever the dataset is replaced or the session is reset.
	generation uint64
	evaluating bool
}

func newSession(id string, maxEvals int, refAnswerField string) *Session {
	return &Session{
		ID:             id,
		refAnswerField: refAnswerField,
		defaultRef:     refAnswerField,
		history:        NewRunHistory(maxEvals),
	}
}

// Dataset returns the active dataset and its preview rows.
func (s *Session) Dataset() (*Dataset, []Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dataset == nil {
		return nil, nil, ErrNoDataset
	}
	return s.dataset, s.preview, nil
}

// SetDataset replaces the active dataset and clears the run history so earlier results are not
// attributed to the new data. The session's reference answer field carries over. It fails with
// ErrEvaluationInFlight while an evaluation runs.
func (s *Session) SetDataset(ds *Dataset, preview []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evaluating {
		return ErrEvaluationInFlight
	}
	if err := ds.SetRefAnswerField(s.refAnswerField); err != nil {
		s.refAnswerField = ds.RefAnswerField()
	}
	s.dataset = ds
	s.preview = preview
	s.generation++
	s.history.Clear()
	return nil
}

func (s *Session) RefAnswerField() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refAnswerField
}

// SetRefAnswerField updates the field for the session and the active dataset.
func (s *Session) SetRefAnswerField(field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dataset != nil {
		if err := s.dataset.SetRefAnswerField(field); err != nil {
			return err
		}
		s.refAnswerField = s.dataset.RefAnswerField()
		return nil
	}
	field, err := normalizeRefField(field)
	if err != nil {
		return err
	}
	s.refAnswerField = field
	return nil
}

func (s *Session) History() *RunHistory { return s.history }

// Evaluation is an admitted run, bound to the dataset that was active when it was admitted.
type Evaluation struct {
	Dataset *Dataset

	sess       *Session
	generation uint64
	once       sync.Once
}

// BeginEvaluation admits one evaluation at a time and snapshots the active dataset. Done must be
// called when the run ends.
func (s *Session) BeginEvaluation() (*Evaluation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evaluating {
		return nil, ErrEvaluationInFlight
	}
	if s.dataset == nil {
		return nil, ErrNoDataset
	}
	s.evaluating = true
	return &Evaluation{Dataset: s.dataset, sess: s, generation: s.generation}, nil
}

// Record appends rec to the session history and returns its index. The record is dropped with
// ErrStaleEvaluation if the dataset it ran on is no longer active.
func (e *Evaluation) Record(rec *EvaluationRecord) (index, evicted int, err error) {
	e.sess.mu.Lock()
	defer e.sess.mu.Unlock()
	if e.sess.generation != e.generation {
		return -1, 0, ErrStaleEvaluation
	}
	index, evicted = e.sess.history.Append(rec)
	return index, evicted, nil
}

// Done releases the session for the next evaluation. Extra calls are no-ops.
func (e *Evaluation) Done() {
	e.once.Do(func() {
		e.sess.mu.Lock()
		e.sess.evaluating = false
		e.sess.mu.Unlock()
	})
}

func (s *Session) Evaluating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evaluating
}

// Reset drops the dataset and history and restores the default reference answer field. A run
// still in flight keeps going but its record is discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset = nil
	s.preview = nil
	s.refAnswerField = s.defaultRef
	s.generation++
	s.history.Clear()
}

// SessionStore holds sessions in memory and forgets them after idleTTL without access.
type SessionStore struct {
	mu       sync.Mutex
	cache    *gocache.Cache
	ttl      time.Duration
	maxEvals int
	refField string
}

func NewSessionStore(idleTTL time.Duration, maxEvals int, defaultRefAnswerField string) *SessionStore {
	return &SessionStore{
		cache:    gocache.New(idleTTL, idleTTL/2+time.Minute),
		ttl:      idleTTL,
		maxEvals: maxEvals,
		refField: defaultRefAnswerField,
	}
}

// Get returns the session for id, creating it on first use, and refreshes its idle timer.
func (st *SessionStore) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	var sess *Session
	if v, ok := st.cache.Get(id); ok {
		sess = v.(*Session)
	} else {
		sess = newSession(id, st.maxEvals, st.refField)
	}
	st.cache.Set(id, sess, st.ttl)
	return sess
}

// Peek returns an existing session without creating or touching it.
func (st *SessionStore) Peek(id string) (*Session, bool) {
	v, ok := st.cache.Get(id)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

func (st *SessionStore) Delete(id string) {
	st.cache.Delete(id)
}

func (st *SessionStore) Len() int {
	return st.cache.ItemCount()
}
