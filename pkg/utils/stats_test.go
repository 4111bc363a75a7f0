package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeBreaksTiesBySmallestKey(t *testing.T) {
	got, ok := Mode(map[string]int{"voucher": 2, "boleto": 2, "credit_card": 1})
	require.True(t, ok)
	assert.Equal(t, "boleto", got)

	_, ok = Mode(map[string]int{})
	assert.False(t, ok)
}

func TestSafeDiv(t *testing.T) {
	assert.Nil(t, SafeDiv(1, nil))
	assert.Nil(t, Ratio(1, 0))
	require.NotNil(t, Ratio(3, 4))
	assert.InDelta(t, 0.75, *Ratio(3, 4), 1e-9)
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("ORDERMART_TEST_INT", "12")
	t.Setenv("ORDERMART_TEST_BAD", "abc")
	t.Setenv("ORDERMART_TEST_BOOL", "true")
	t.Setenv("ORDERMART_TEST_DUR", "3s")

	assert.Equal(t, 12, EnvInt("ORDERMART_TEST_INT", 1))
	assert.Equal(t, 1, EnvInt("ORDERMART_TEST_BAD", 1))
	assert.Equal(t, int64(12), EnvInt64("ORDERMART_TEST_INT", 0))
	assert.True(t, EnvBool("ORDERMART_TEST_BOOL", false))
	assert.Equal(t, "3s", EnvDuration("ORDERMART_TEST_DUR", 0).String())
	assert.Equal(t, "fallback", Env("ORDERMART_TEST_MISSING", "fallback"))
}
