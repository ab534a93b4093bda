package hints

import (
	"codeberg.org/mutker/thermalctl/internal/errors"
	"codeberg.org/mutker/thermalctl/internal/logger"
	"github.com/google/uuid"
)

// session pairs a platform handle with its bookkeeping. At most one exists
// per workload at any time.
type session struct {
	id           uuid.UUID
	workload     Workload
	handle       BackendSession
	lastTargetNs int64
}

// Manager owns the long-lived hint sessions, one per workload. All methods
// must be called from the single control-loop goroutine that drives the
// per-tick update; the manager holds no locks on that contract.
type Manager struct {
	backend             Backend
	sessions            [workloadCount]*session
	open                bool
	supported           bool
	preferredUpdateRate int64
}

func NewManager(backend Backend) *Manager {
	return &Manager{
		backend:   backend,
		supported: backend != nil,
	}
}

// Open lazily creates sessions for the given workloads. A second call while
// sessions are open is a no-op. Any creation failure closes the partial set
// and permanently disables hint support for the rest of the process run;
// retrying a refused platform call every frame would be wasteful.
func (m *Manager) Open(threads map[Workload][]int32) bool {
	if m.open {
		return true
	}
	if !m.supported {
		return false
	}

	errFactory := errors.New()
	for workload, threadIDs := range threads {
		if workload < 0 || workload >= workloadCount || len(threadIDs) == 0 {
			continue
		}

		handle, err := m.backend.CreateSession(threadIDs, DefaultTargetDurationNs)
		if err != nil || handle == nil {
			logger.ErrorWithCode(errFactory.Wrap(ErrSessionCreateFailed, err)).
				Str("workload", workload.String()).
				Msg("Disabling performance hint sessions for this run")
			m.closeAll()
			m.supported = false

			return false
		}

		m.sessions[workload] = &session{
			id:           uuid.New(),
			workload:     workload,
			handle:       handle,
			lastTargetNs: DefaultTargetDurationNs,
		}
		logger.Debug().
			Str("workload", workload.String()).
			Str("session_id", m.sessions[workload].id.String()).
			Msg("Hint session opened")
	}

	m.preferredUpdateRate = m.backend.PreferredUpdateRateNanos()
	m.open = true

	return true
}

// IsOpen reports whether sessions are currently open.
func (m *Manager) IsOpen() bool {
	return m.open
}

// IsSupported reports whether hint support is still enabled for this run.
func (m *Manager) IsSupported() bool {
	return m.supported
}

// PreferredUpdateRate returns the platform's preferred update interval in
// nanoseconds, 0 when unknown.
func (m *Manager) PreferredUpdateRate() int64 {
	return m.preferredUpdateRate
}

// ReportActual records the measured duration of the workload's most
// recently completed unit of work. Platform call failures are absorbed; the
// next tick reports fresh data anyway.
func (m *Manager) ReportActual(workload Workload, durationNs int64) {
	s := m.sessionFor(workload)
	if s == nil {
		return
	}

	if err := s.handle.ReportActualWorkDuration(durationNs); err != nil {
		logger.Debug().
			Str("workload", workload.String()).
			Err(err).
			Msg("Failed to report actual work duration")
	}
}

// UpdateTarget informs the platform of the new expected duration. Calls
// with an unchanged target are dropped here as a second line of defense;
// the controller already only pushes on change.
func (m *Manager) UpdateTarget(workload Workload, targetNs int64) {
	s := m.sessionFor(workload)
	if s == nil || s.lastTargetNs == targetNs {
		return
	}

	if err := s.handle.UpdateTargetWorkDuration(targetNs); err != nil {
		logger.Debug().
			Str("workload", workload.String()).
			Err(err).
			Msg("Failed to update target work duration")

		return
	}
	s.lastTargetNs = targetNs
}

// Close releases all sessions. Idempotent; safe on a never-opened manager.
// Support is not cleared: a feature toggle may close and later reopen.
func (m *Manager) Close() {
	if !m.open {
		return
	}

	m.closeAll()
	m.open = false
}

func (m *Manager) closeAll() {
	for workload := range m.sessions {
		s := m.sessions[workload]
		if s == nil {
			continue
		}

		if err := s.handle.Close(); err != nil {
			logger.Debug().
				Str("workload", s.workload.String()).
				Err(err).
				Msg("Failed to close hint session")
		}
		m.sessions[workload] = nil
	}
}

func (m *Manager) sessionFor(workload Workload) *session {
	if !m.open || workload < 0 || workload >= workloadCount {
		return nil
	}

	return m.sessions[workload]
}
