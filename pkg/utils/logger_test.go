package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{true, false} {
		logger, err := NewLogger(debug)
		require.NoError(t, err, "NewLogger(%v)", debug)
		require.NotNil(t, logger)
		_ = logger.Sync()
	}
}

func TestOrNop(t *testing.T) {
	require.NotNil(t, OrNop(nil))

	l := zap.NewExample()
	require.Same(t, l, OrNop(l))
}
