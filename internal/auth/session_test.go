package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoginRequiresMatchingToken(t *testing.T) {
	mgr := NewManager("s3cret")

	require.ErrorIs(t, mgr.Login("wrong"), ErrInvalidToken)
	require.False(t, mgr.Active())

	require.NoError(t, mgr.Login("s3cret"))
	require.True(t, mgr.Active())
}

func TestListenersFireOnTransitionsOnly(t *testing.T) {
	mgr := NewManager("s3cret")

	var events []bool
	mgr.OnChange(func(active bool) { events = append(events, active) })

	require.NoError(t, mgr.Login("s3cret"))
	require.NoError(t, mgr.Login("s3cret")) // already active, no event
	mgr.Logout()
	mgr.Logout() // already inactive, no event

	require.Equal(t, []bool{true, false}, events)
}

func TestFailedLoginDoesNotNotify(t *testing.T) {
	mgr := NewManager("s3cret")

	var events int
	mgr.OnChange(func(bool) { events++ })

	require.Error(t, mgr.Login("nope"))
	require.Zero(t, events)
}
