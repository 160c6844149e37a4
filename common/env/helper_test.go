package env

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDuration(t *testing.T) {
	t.Setenv("PS_TEST_DURATION", "")
	require.Equal(t, 5*time.Second, Duration("PS_TEST_DURATION", 5*time.Second))

	t.Setenv("PS_TEST_DURATION", "30")
	require.Equal(t, 30*time.Second, Duration("PS_TEST_DURATION", 5*time.Second))

	t.Setenv("PS_TEST_DURATION", "2m")
	require.Equal(t, 2*time.Minute, Duration("PS_TEST_DURATION", 5*time.Second))

	t.Setenv("PS_TEST_DURATION", "soon")
	require.Equal(t, 5*time.Second, Duration("PS_TEST_DURATION", 5*time.Second))
}

func TestStrings(t *testing.T) {
	t.Setenv("PS_TEST_LIST", " a, ,b ,")
	require.Equal(t, []string{"a", "b"}, Strings("PS_TEST_LIST", nil))

	t.Setenv("PS_TEST_LIST", "")
	require.Equal(t, []string{"x"}, Strings("PS_TEST_LIST", []string{"x"}))
}

func TestIntAndBool(t *testing.T) {
	t.Setenv("PS_TEST_INT", "nope")
	require.Equal(t, 7, Int("PS_TEST_INT", 7))
	t.Setenv("PS_TEST_INT", "12")
	require.Equal(t, 12, Int("PS_TEST_INT", 7))

	t.Setenv("PS_TEST_BOOL", "true")
	require.True(t, Bool("PS_TEST_BOOL", false))
	t.Setenv("PS_TEST_BOOL", "yes please")
	require.False(t, Bool("PS_TEST_BOOL", false))
}
