package common

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingRequest struct {
	Value int
}

type pingHandler struct{}

func (h *pingHandler) Handle(ctx context.Context, request Request) (Response, error) {
	cmd := request.(*pingRequest)
	return cmd.Value * 2, nil
}

func TestMediator_DispatchesToRegisteredHandler(t *testing.T) {
	// Arrange
	m := NewMediator()
	err := RegisterHandler[*pingRequest](m, &pingHandler{})
	require.NoError(t, err)

	// Act
	response, err := m.Send(context.Background(), &pingRequest{Value: 21})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 42, response)
}

func TestMediator_RejectsUnknownRequest(t *testing.T) {
	// Arrange
	m := NewMediator()

	// Act
	_, err := m.Send(context.Background(), &pingRequest{Value: 1})

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no handler registered")
}

func TestMediator_RejectsDuplicateRegistration(t *testing.T) {
	// Arrange
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingRequest](m, &pingHandler{}))

	// Act
	err := RegisterHandler[*pingRequest](m, &pingHandler{})

	// Assert
	assert.Error(t, err)
}

func TestMediator_MiddlewareRunsInRegistrationOrder(t *testing.T) {
	// Arrange
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingRequest](m, &pingHandler{}))

	var trace []string
	tag := func(name string) Middleware {
		return func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
			trace = append(trace, name+":before")
			response, err := next(ctx, request)
			trace = append(trace, name+":after")
			return response, err
		}
	}
	m.Use(tag("outer"))
	m.Use(tag("inner"))

	// Act
	response, err := m.Send(context.Background(), &pingRequest{Value: 5})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 10, response)
	assert.Equal(t, []string{"outer:before", "inner:before", "inner:after", "outer:after"}, trace)
}

func TestMediator_MiddlewareCanShortCircuit(t *testing.T) {
	// Arrange
	m := NewMediator()
	require.NoError(t, RegisterHandler[*pingRequest](m, &pingHandler{}))
	m.Use(func(ctx context.Context, request Request, next HandlerFunc) (Response, error) {
		return nil, fmt.Errorf("denied")
	})

	// Act
	_, err := m.Send(context.Background(), &pingRequest{Value: 5})

	// Assert
	assert.EqualError(t, err, "denied")
}

func TestLoggerFromContext_FallsBackToNoOp(t *testing.T) {
	// Act
	logger := LoggerFromContext(context.Background())

	// Assert
	require.NotNil(t, logger)
	assert.NotPanics(t, func() {
		logger.Log(LevelInfo, "ignored", nil)
	})
}

func TestWithLogger_RoundTripsThroughContext(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := NewJSONLineLogger(&buf, LevelDebug)

	// Act
	ctx := WithLogger(context.Background(), logger)
	LoggerFromContext(ctx).Log(LevelInfo, "hello", nil)

	// Assert
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestJSONLineLogger_FiltersBelowMinLevel(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := NewJSONLineLogger(&buf, LevelWarn)

	// Act
	logger.Log(LevelDebug, "dropped", nil)
	logger.Log(LevelInfo, "dropped", nil)
	logger.Log(LevelError, "kept", nil)

	// Assert
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestJSONLineLogger_EmitsMetadataAndTimestamp(t *testing.T) {
	// Arrange
	var buf bytes.Buffer
	logger := NewJSONLineLogger(&buf, LevelDebug)
	logger.now = func() time.Time {
		return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	}

	// Act
	logger.Log(LevelInfo, "plan complete", map[string]interface{}{
		"plant": "CL",
		"loads": 7,
	})

	// Assert
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "2025-03-01T12:00:00Z", event["time"])
	assert.Equal(t, "info", event["level"])
	assert.Equal(t, "plan complete", event["message"])
	assert.Equal(t, "CL", event["plant"])
	assert.Equal(t, float64(7), event["loads"])
}
