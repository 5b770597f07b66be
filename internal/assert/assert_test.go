package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type thing struct{}

func TestNotNil(t *testing.T) {
	var typedNil *thing
	var nilMap map[string]int

	require.Panics(t, func() { NotNil(nil) })
	require.Panics(t, func() { NotNil(typedNil) })
	require.Panics(t, func() { NotNil(nilMap) })
	require.NotPanics(t, func() { NotNil(&thing{}) })
	require.NotPanics(t, func() { NotNil(thing{}) })
	require.NotPanics(t, func() { NotNil(0) })
}

func TestPositive(t *testing.T) {
	require.Panics(t, func() { Positive("size", 0) })
	require.Panics(t, func() { Positive("size", int64(-1)) })
	require.NotPanics(t, func() { Positive("size", 1) })
}
