package builtin

import (
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitreq/packages/http"
)

func TestRegistry_Call(t *testing.T) {
	r := NewRegistry()
	r.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	tests := []struct {
		expr     string
		expected string
	}{
		{"now()", "2024-03-01T12:00:00Z"},
		{"timestamp()", "1709294400"},
		{"timestampMs()", "1709294400000"},
		{"date()", "2024-03-01"},
		{"date('02/01/2006')", "01/03/2024"},
		{"base64('user:pass')", "dXNlcjpwYXNz"},
		{"urlEncode(\"a b&c\")", "a+b%26c"},
		{"random(5, 5)", "5"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			v, ok, err := r.Call(tt.expr)
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestRegistry_UUID(t *testing.T) {
	v, ok, err := NewRegistry().Call("uuid()")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = uuid.Parse(v)
	assert.NoError(t, err)
}

func TestRegistry_RandomString(t *testing.T) {
	v, _, err := NewRegistry().Call("randomString(12)")
	require.NoError(t, err)
	assert.Len(t, v, 12)
}

func TestRegistry_UserAgent(t *testing.T) {
	v, _, err := NewRegistry().Call("userAgent()")
	require.NoError(t, err)
	assert.Contains(t, http.UserAgents(), v)
}

func TestRegistry_Random(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 20; i++ {
		v, _, err := r.Call("random(1, 3)")
		require.NoError(t, err)
		n, err := strconv.Atoi(v)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 3)
	}

	_, ok, err := r.Call("random(a, 3)")
	assert.True(t, ok)
	assert.Error(t, err)

	_, _, err = r.Call("random(5, 1)")
	assert.Error(t, err)
}

func TestRegistry_UnknownOrNotACall(t *testing.T) {
	r := NewRegistry()

	_, ok, err := r.Call("missing()")
	assert.False(t, ok)
	assert.NoError(t, err)

	_, ok, _ = r.Call("plainName")
	assert.False(t, ok)
}

func TestRegistry_Register(t *testing.T) {
	r := NewRegistry()
	r.Register("greet", func(args []string) (string, error) {
		return "hi " + args[0], nil
	})

	v, ok, err := r.Call("greet('ann')")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "hi ann", v)
	assert.Contains(t, r.Names(), "greet")
}

func TestParseArgs(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c", "d"}, parseArgs(`a, "b, c", 'd'`))
	assert.Nil(t, parseArgs(""))
}
