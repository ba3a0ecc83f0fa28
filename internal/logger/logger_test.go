package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestBuild(t *testing.T) {
	if l := build("test", ""); l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("test logger should discard everything")
	}

	if l := build("production", ""); l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should not log debug by default")
	}

	if l := build("production", "debug"); !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("explicit debug level should be honoured")
	}

	if l := build("development", "bogus"); !l.Core().Enabled(zapcore.DebugLevel) {
		t.Error("unknown level should keep the development default")
	}
}

func TestGetInitializes(t *testing.T) {
	if Get() == nil {
		t.Fatal("Get should never return nil")
	}
}
