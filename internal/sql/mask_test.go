package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskStringLiterals(t *testing.T) {
	masked, masks := MaskStringLiterals(`status = 'a;b' AND "x--y" > 1`, true)
	require.Len(t, masks, 2)
	assert.Equal(t, `status = __STR_0__ AND __STR_1__ > 1`, masked)
	assert.Equal(t, `'a;b'`, masks[0].Original)
	assert.Equal(t, `"x--y"`, masks[1].Original)
	assert.False(t, masks[0].Unterminated)
}

func TestMaskStringLiterals_DoubledQuote(t *testing.T) {
	masked, masks := MaskStringLiterals(`name = 'it''s'`, true)
	require.Len(t, masks, 1)
	assert.Equal(t, `name = __STR_0__`, masked)
	assert.Equal(t, `'it''s'`, masks[0].Original)
}

func TestMaskStringLiterals_NoQuotes(t *testing.T) {
	masked, masks := MaskStringLiterals(`value > 10`, false)
	assert.Equal(t, `value > 10`, masked)
	assert.Nil(t, masks)
}

func TestIsSafeFragment(t *testing.T) {
	tests := []struct {
		fragment string
		safe     bool
	}{
		{`"value" > 10`, true},
		{`status = 'ok;done'`, true},
		{`note = '--'`, true},
		{`1, 2`, true},
		{`x > 1; DROP TABLE t`, false},
		{`x > 1 -- trailing`, false},
		{`x > 1 /* c */`, false},
		{`name = 'open`, false},
		{`name = 'a''`, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.safe, IsSafeFragment(tt.fragment), tt.fragment)
	}
}
