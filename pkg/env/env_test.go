package env

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetTreatsBlankAsUnset(t *testing.T) {
	t.Setenv("LOGISTICS_TEST_VALUE", "   ")
	require.Equal(t, "fallback", Get("LOGISTICS_TEST_VALUE", "fallback"))

	t.Setenv("LOGISTICS_TEST_VALUE", " van-1 ")
	require.Equal(t, "van-1", Get("LOGISTICS_TEST_VALUE", "fallback"))
}

func TestOneOf(t *testing.T) {
	t.Setenv("LOG_FORMAT", "CONSOLE")
	require.Equal(t, "console", OneOf("LOG_FORMAT", "json", "json", "console"))

	t.Setenv("LOG_FORMAT", "xml")
	require.Equal(t, "json", OneOf("LOG_FORMAT", "json", "json", "console"))
}
