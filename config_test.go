package herald

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithDefaultPriorityOrdersUnprioritizedListeners(t *testing.T) {
	bus := New(WithDefaultPriority(100))

	var order []string
	require.NoError(t, bus.Add("e", func(...any) error {
		order = append(order, "default")
		return nil
	}))
	require.NoError(t, bus.Add("e", func(...any) error {
		order = append(order, "early")
		return nil
	}, WithPriority(1)))
	require.NoError(t, bus.Add("e", func(...any) error {
		order = append(order, "late")
		return nil
	}, WithPriority(200)))

	bus.Emit("e")

	assert.Equal(t, []string{"early", "default", "late"}, order)
	assert.Equal(t, 100, bus.DefaultPriority())
}

func TestDefaultPriorityConstant(t *testing.T) {
	bus := New()
	assert.Equal(t, DefaultPriority, bus.DefaultPriority())
}

func TestDefaultErrorHandlerLogsStructured(t *testing.T) {
	obsCore, logs := observer.New(zapcore.ErrorLevel)
	bus := New(WithLogger(zap.New(obsCore)))

	require.NoError(t, bus.Add("e", func(...any) error {
		return errors.New("boom")
	}))

	bus.Emit("e", "ctx")

	entries := logs.FilterMessage("event listener failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "e", fields["event"])
	assert.Equal(t, "boom", fields["error"])
}

func TestSetErrorHandlerReplacesPerInstance(t *testing.T) {
	first := &handlerRecorder{}
	second := &handlerRecorder{}

	busA := New(WithErrorHandler(first.handle))
	busB := New(WithErrorHandler(second.handle))

	fail := func(...any) error { return errors.New("boom") }
	require.NoError(t, busA.Add("e", fail))
	require.NoError(t, busB.Add("e", fail))

	busA.Emit("e")
	assert.Len(t, first.errs, 1)
	assert.Empty(t, second.errs)

	replacement := &handlerRecorder{}
	busA.SetErrorHandler(replacement.handle)
	busA.Emit("e")

	assert.Len(t, first.errs, 1)
	assert.Len(t, replacement.errs, 1)
}

func TestSetErrorHandlerNilRestoresLogging(t *testing.T) {
	rec := &handlerRecorder{}
	obsCore, logs := observer.New(zapcore.ErrorLevel)
	bus := New(WithLogger(zap.New(obsCore)), WithErrorHandler(rec.handle))

	require.NoError(t, bus.Add("e", func(...any) error {
		return errors.New("boom")
	}))

	bus.SetErrorHandler(nil)
	bus.Emit("e")

	assert.Empty(t, rec.errs)
	assert.Len(t, logs.FilterMessage("event listener failed").All(), 1)
}
