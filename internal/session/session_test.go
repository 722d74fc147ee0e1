package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle(t *testing.T) {
	m := NewManager()
	assert.Equal(t, SignedOut, m.State())
	_, ok := m.Account()
	assert.False(t, ok)

	m.BeginSignIn()
	assert.Equal(t, Pending, m.State())
	_, ok = m.Account()
	assert.False(t, ok)

	m.CompleteSignIn(Account{Email: "taro@example.com", Name: "Taro"})
	assert.Equal(t, SignedIn, m.State())
	a, ok := m.Account()
	require.True(t, ok)
	assert.Equal(t, "taro@example.com", a.Email)

	m.SignOut()
	assert.Equal(t, SignedOut, m.State())
	_, ok = m.Account()
	assert.False(t, ok)
}

func TestSubscribe(t *testing.T) {
	m := NewManager()

	type event struct {
		state State
		email string
	}
	var events []event
	unsubscribe := m.Subscribe(func(s State, a Account) {
		events = append(events, event{s, a.Email})
	})

	m.BeginSignIn()
	m.CompleteSignIn(Account{Email: "taro@example.com"})

	require.Len(t, events, 2)
	assert.Equal(t, event{Pending, ""}, events[0])
	assert.Equal(t, event{SignedIn, "taro@example.com"}, events[1])

	unsubscribe()
	m.SignOut()
	assert.Len(t, events, 2)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "signed-out", SignedOut.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "signed-in", SignedIn.String())
}
