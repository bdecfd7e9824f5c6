package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForm_SetKeepsPosition(t *testing.T) {
	var f Form
	f.Set("a", "1")
	f.Set("b", "2")
	f.Set("a", "3")

	assert.Equal(t, []string{"a", "b"}, f.Keys())
	assert.Equal(t, 2, f.Len())
	v, ok := f.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
	assert.Equal(t, "a=3&b=2", f.Encode())
}

func TestForm_FromMapSortsKeys(t *testing.T) {
	f := FormFromMap(map[string]string{"c": "3", "a": "1", "b": "2"})
	assert.Equal(t, []string{"a", "b", "c"}, f.Keys())
}

func TestForm_CloneIsIndependent(t *testing.T) {
	f := NewForm()
	f.Set("k", "v")

	c := f.Clone()
	c.Set("k", "changed")
	c.Set("other", "x")

	v, _ := f.Get("k")
	assert.Equal(t, "v", v)
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, map[string]string{"k": "changed", "other": "x"}, c.Map())
}

func TestForm_EmptyEncode(t *testing.T) {
	assert.Equal(t, "", NewForm().Encode())
}
