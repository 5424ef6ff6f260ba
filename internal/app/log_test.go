package app

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestTsvHandler_Handle(t *testing.T) {
	ts := time.Date(2024, 6, 15, 14, 30, 45, 0, time.UTC)

	tests := []struct {
		name    string
		opID    string
		level   slog.Level
		message string
		attrs   []slog.Attr
		want    string
	}{
		{
			name:    "basic info message",
			opID:    "20240615T143045Z-RunBackupJob",
			level:   slog.LevelInfo,
			message: "backup job started",
			want:    "2024-06-15T14:30:45Z\tINFO\t20240615T143045Z-RunBackupJob\tbackup job started\n",
		},
		{
			name:    "debug level",
			opID:    "op-456",
			level:   slog.LevelDebug,
			message: "skipping unreadable file",
			want:    "2024-06-15T14:30:45Z\tDEBUG\top-456\tskipping unreadable file\n",
		},
		{
			name:    "with record attrs",
			opID:    "op-789",
			level:   slog.LevelInfo,
			message: "scan finished",
			attrs:   []slog.Attr{slog.String("root", "/data"), slog.Int("files", 42)},
			want:    "2024-06-15T14:30:45Z\tINFO\top-789\tscan finished\troot=/data\tfiles=42\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			h := &tsvHandler{w: &buf, opID: tt.opID}

			r := slog.NewRecord(ts, tt.level, tt.message, 0)
			for _, a := range tt.attrs {
				r.AddAttrs(a)
			}

			if err := h.Handle(context.Background(), r); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("Handle() output =\n%q\nwant:\n%q", got, tt.want)
			}
		})
	}
}

func TestTsvHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := &tsvHandler{w: &buf, opID: "op-1"}

	h2 := h.WithAttrs([]slog.Attr{slog.String("component", "scanner")}).(*tsvHandler)

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "scan started", 0)
	r.AddAttrs(slog.String("root", "/data"))

	if err := h2.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "component=scanner") {
		t.Errorf("output missing preset attr: %q", got)
	}
	if !strings.Contains(got, "root=/data") {
		t.Errorf("output missing record attr: %q", got)
	}
	// Preset attrs come before record attrs.
	if strings.Index(got, "component=scanner") > strings.Index(got, "root=/data") {
		t.Errorf("attr order wrong: %q", got)
	}
}
