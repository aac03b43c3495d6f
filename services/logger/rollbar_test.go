package logsvc

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hoopakid/HRMobileProjectBackend/core"
	"github.com/Hoopakid/HRMobileProjectBackend/core/user"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(&buf, "api", &core.Config{Env: "TEST"})

	usr := user.User{ID: 7, FirstName: "Ali", LastName: "Valiyev", Email: "ali@example.com"}
	logger.Error("saving task", errors.New("boom"), map[string]interface{}{"task_id": 3}, usr)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "saving task", entry["msg"])
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "api", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.EqualValues(t, 3, entry["task_id"])
	assert.EqualValues(t, 7, entry["user_id"])
}

func TestRollbarLoggerDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	NewRollbarLogger(&buf, "db", &core.Config{Env: "TEST"}).Debug("hidden")
	assert.Empty(t, buf.String())

	buf.Reset()
	NewRollbarLogger(&buf, "db", &core.Config{Env: "DEV", Debug: true}).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "component=db")
}
