package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"evaltool/internal/domain/scoring"
)

// Store owns the employee collection. Every write is a read-modify-write of the
// whole collection followed by a best-effort remote push. Writes are
// serialized within the process only; two processes sharing a backend can
// overwrite each other.
type Store struct {
	mu       sync.Mutex
	local    LocalCache
	remote   Remote
	observer RemoteObserver
	logger   *slog.Logger
	newID    func() string
}

type Option func(*Store)

func WithRemote(remote Remote) Option {
	return func(s *Store) {
		s.remote = remote
	}
}

func WithObserver(observer RemoteObserver) Option {
	return func(s *Store) {
		s.observer = observer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func NewStore(local LocalCache, opts ...Option) *Store {
	s := &Store{
		local:  local,
		logger: slog.Default(),
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) RemoteEnabled() bool {
	return s.remote != nil
}

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	employees, err := s.load(ctx)
	if err != nil {
		return Employee{}, err
	}
	idx := indexOf(employees, id)
	if idx < 0 {
		return Employee{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return employees[idx], nil
}

func (s *Store) Add(ctx context.Context, name, matricule, role string) (Employee, SyncResult, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Employee{}, SyncResult{Status: SyncSkipped}, &FieldError{Field: "name", Reason: "is required"}
	}
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		role = scoring.RoleCommon
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	employees, err := s.load(ctx)
	if err != nil {
		return Employee{}, SyncResult{Status: SyncSkipped}, err
	}
	emp := Employee{
		ID:          s.newID(),
		Name:        name,
		Matricule:   strings.TrimSpace(matricule),
		Role:        role,
		Evaluations: []Evaluation{},
	}
	employees = append(employees, emp)
	res, err := s.persist(ctx, employees)
	if err != nil {
		return Employee{}, res, err
	}
	return emp, res, nil
}

// Remove deletes the employee and its evaluations. Unknown ids are a no-op.
func (s *Store) Remove(ctx context.Context, id string) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	employees, err := s.load(ctx)
	if err != nil {
		return SyncResult{Status: SyncSkipped}, err
	}
	idx := indexOf(employees, id)
	if idx < 0 {
		return SyncResult{Status: SyncSkipped}, nil
	}
	employees = append(employees[:idx], employees[idx+1:]...)
	return s.persist(ctx, employees)
}

func (s *Store) AppendEvaluation(ctx context.Context, employeeID string, ev Evaluation) (SyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	employees, err := s.load(ctx)
	if err != nil {
		return SyncResult{Status: SyncSkipped}, err
	}
	idx := indexOf(employees, employeeID)
	if idx < 0 {
		return SyncResult{Status: SyncSkipped}, fmt.Errorf("%w: %s", ErrNotFound, employeeID)
	}
	if ev.ID == "" {
		ev.ID = s.newID()
	}
	employees[idx].Evaluations = append(employees[idx].Evaluations, ev)
	return s.persist(ctx, employees)
}

func (s *Store) ExportAll(ctx context.Context) ([]byte, error) {
	employees, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return EncodeExport(employees)
}

// ImportAll replaces the collection with data. A payload that is not an array
// of records leaves the current state untouched.
func (s *Store) ImportAll(ctx context.Context, data []byte) (SyncResult, error) {
	employees, err := DecodeCollection(data)
	if err != nil {
		return SyncResult{Status: SyncSkipped}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist(ctx, employees)
}

// ClearLocal erases the local cache. The remote store is not touched.
func (s *Store) ClearLocal(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.local.Clear(ctx)
}

// Refresh pulls the remote collection into the local cache. Without a remote
// it does nothing.
func (s *Store) Refresh(ctx context.Context) error {
	if s.remote == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	employees, err := s.remote.Fetch(ctx)
	s.observe("fetch", err)
	if err != nil {
		return err
	}
	return s.writeLocal(ctx, employees)
}

func (s *Store) load(ctx context.Context) ([]Employee, error) {
	if s.remote != nil {
		employees, err := s.remote.Fetch(ctx)
		s.observe("fetch", err)
		if err == nil {
			if err := s.writeLocal(ctx, employees); err != nil {
				s.logger.Warn("remote result cache write failed", "err", err)
			}
			return normalize(employees), nil
		}
		s.logger.Warn("remote load failed, using local cache", "err", err)
	}
	return s.readLocal(ctx)
}

func (s *Store) readLocal(ctx context.Context) ([]Employee, error) {
	data, err := s.local.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("read local cache: %w", err)
	}
	if len(data) == 0 {
		return []Employee{}, nil
	}
	employees, err := DecodeCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode local cache: %w", err)
	}
	return employees, nil
}

func (s *Store) writeLocal(ctx context.Context, employees []Employee) error {
	data, err := EncodeCollection(employees)
	if err != nil {
		return err
	}
	return s.local.Save(ctx, data)
}

func (s *Store) persist(ctx context.Context, employees []Employee) (SyncResult, error) {
	if err := s.writeLocal(ctx, employees); err != nil {
		return SyncResult{Status: SyncSkipped}, fmt.Errorf("write local cache: %w", err)
	}
	if s.remote == nil {
		return SyncResult{Status: SyncSkipped}, nil
	}
	err := s.remote.Push(ctx, employees)
	s.observe("push", err)
	if err != nil {
		s.logger.Warn("remote save failed", "err", err)
		return SyncResult{Status: SyncFailed, Err: err}, nil
	}
	return SyncResult{Status: SyncOK}, nil
}

func (s *Store) observe(op string, err error) {
	if s.observer != nil {
		s.observer.ObserveRemote(op, err)
	}
}

func indexOf(employees []Employee, id string) int {
	for i := range employees {
		if employees[i].ID == id {
			return i
		}
	}
	return -1
}
