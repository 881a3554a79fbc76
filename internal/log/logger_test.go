// SPDX-License-Identifier: MIT

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// The logger is configured once per process, so a single test exercises
// Configure idempotence, the base logger and component annotation against
// one shared buffer.
func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "test-svc"})
	// A second Configure must be a no-op.
	Configure(Config{Service: "other"})

	baseLogger := Base()
	baseLogger.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "test-svc", entry["service"])
	require.Equal(t, "hello", entry["message"])

	buf.Reset()
	componentLogger := WithComponent("flow")
	componentLogger.Info().Msg("ping")

	entry = nil
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "flow", entry["component"])
}
