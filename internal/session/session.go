// Package session holds the explicit sign-in state that drives
// conditional behavior elsewhere, replacing ambient globals with one
// object that has a defined lifecycle and a single subscription point.
package session

import "sync"

type State int

const (
	SignedOut State = iota
	Pending
	SignedIn
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case SignedIn:
		return "signed-in"
	default:
		return "signed-out"
	}
}

// Account identifies the signed-in customer. Email doubles as the
// customer key for history lookups.
type Account struct {
	Email string
	Name  string
	Phone string
}

// Manager owns the lifecycle signed-out -> pending -> signed-in.
type Manager struct {
	mu      sync.Mutex
	state   State
	account Account
	nextID  int
	subs    map[int]func(State, Account)
}

func NewManager() *Manager {
	return &Manager{subs: map[int]func(State, Account){}}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Account returns the signed-in account, if any.
func (m *Manager) Account() (Account, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account, m.state == SignedIn
}

// Subscribe registers a change listener and returns its removal
// function. Listeners run outside the manager's lock.
func (m *Manager) Subscribe(fn func(State, Account)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// BeginSignIn marks authentication as started.
func (m *Manager) BeginSignIn() {
	m.transition(Pending, Account{})
}

// CompleteSignIn installs the authenticated account.
func (m *Manager) CompleteSignIn(a Account) {
	m.transition(SignedIn, a)
}

func (m *Manager) SignOut() {
	m.transition(SignedOut, Account{})
}

func (m *Manager) transition(s State, a Account) {
	m.mu.Lock()
	m.state = s
	m.account = a
	fns := make([]func(State, Account), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()
	for _, fn := range fns {
		fn(s, a)
	}
}
