package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCauseAndCode(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := fmt.Errorf("lookup: %w", Wrap(CodeWeather, "failed to fetch weather", cause))

	require.True(t, IsCode(err, CodeWeather))
	require.False(t, IsCode(err, CodeLLM))
	require.ErrorIs(t, err, cause)
	require.Equal(t, "lookup: failed to fetch weather: dial tcp: refused", err.Error())
}

func TestCodeOfPlainError(t *testing.T) {
	require.Empty(t, CodeOf(fmt.Errorf("plain")))
	require.Empty(t, CodeOf(nil))
	require.Equal(t, "city is required", Wrap(CodeInvalidInput, "city is required", nil).Error())
}
