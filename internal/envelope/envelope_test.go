package envelope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccess(t *testing.T) {
	env := Success(map[string]any{"authenticated": true, "status": "ignored"})

	assert.Equal(t, StatusSuccess, env.Status())
	assert.False(t, env.IsError())
	assert.Equal(t, true, env["authenticated"])
	assert.Empty(t, env.ErrorMessage())
}

func TestSuccess_NilPayload(t *testing.T) {
	env := Success(nil)
	assert.Equal(t, Envelope{"status": StatusSuccess}, env)
}

func TestError(t *testing.T) {
	env := Errorf("Booking failed: %d %s", 409, "conflict")

	assert.True(t, env.IsError())
	assert.Equal(t, "Booking failed: 409 conflict", env.ErrorMessage())
}

func TestJSON(t *testing.T) {
	env := Success(map[string]any{"message": "ok"})
	assert.JSONEq(t, `{"status":"success","message":"ok"}`, env.JSON())

	// Values that cannot be encoded still produce an error envelope.
	bad := Success(map[string]any{"ch": make(chan int)})
	assert.Contains(t, bad.JSON(), `"status":"error"`)
}
