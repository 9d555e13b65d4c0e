package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		opts    Options
		wantErr bool
		level   zapcore.Level
	}{
		{"prod defaults", "prod", Options{}, false, zapcore.InfoLevel},
		{"local defaults", "local", Options{}, false, zapcore.DebugLevel},
		{"level override", "prod", Options{Level: "warn"}, false, zapcore.WarnLevel},
		{"json in dev", "dev", Options{Format: FormatJSON}, false, zapcore.DebugLevel},
		{"unknown env", "staging", Options{}, true, 0},
		{"bad level", "prod", Options{Level: "loud"}, true, 0},
		{"bad format", "prod", Options{Format: "logfmt"}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewLogger(tt.env, tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !l.Core().Enabled(tt.level) {
				t.Errorf("level %s disabled", tt.level)
			}
			if tt.level > zapcore.DebugLevel && l.Core().Enabled(tt.level-1) {
				t.Errorf("level %s enabled", tt.level-1)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	reqLogger := zap.New(core).With(zap.String("request_id", "r1"))
	fallbackCore, fallbackLogs := observer.New(zapcore.DebugLevel)
	fallback := zap.New(fallbackCore)

	FromContext(ContextWithLogger(context.Background(), reqLogger), fallback).Info("with request")
	FromContext(context.Background(), fallback).Info("without request")
	FromContext(context.Background(), nil).Info("dropped")

	if logs.Len() != 1 || logs.All()[0].ContextMap()["request_id"] != "r1" {
		t.Errorf("request logger entries = %v", logs.All())
	}
	if fallbackLogs.Len() != 1 || fallbackLogs.All()[0].Message != "without request" {
		t.Errorf("fallback entries = %v", fallbackLogs.All())
	}
}
