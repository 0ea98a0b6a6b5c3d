package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/alexanderramin/arbor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.events = append(r.events, e)
}

func TestLogUseCaseObserver_JSON(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogUseCaseObserver(NewLogger(&buf, slog.LevelInfo, "json"))

	obs.ObserveUseCase(context.Background(), UseCaseEvent{
		Name:    "start-migration",
		Success: false,
		Err:     errors.New("boom"),
		Fields:  map[string]any{"company_id": acme},
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "start-migration", line["use_case"])
	assert.Equal(t, acme, line["company_id"])
	assert.Equal(t, "boom", line["error"])
}

func TestNewLogger_LevelAndDiscard(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn, "text")
	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	assert.NotPanics(t, func() { NewLogger(nil, slog.LevelDebug, "text").Error("dropped") })
	assert.IsType(t, NoopUseCaseObserver{}, NewLogUseCaseObserver(nil))
}

func TestServices_ReportUseCases(t *testing.T) {
	env := newTestEnv(t)
	rec := &recordingObserver{}
	svc := NewWorkItemService(env.items, env.hierarchies, env.uow, rec)

	err := svc.Create(context.Background(), &domain.WorkItem{CompanyID: acme, Type: domain.TypeEpic, Title: "Orphan"})
	require.ErrorIs(t, err, ErrTypeNotAllowed)
	require.Len(t, rec.events, 1)
	assert.Equal(t, "create-work-item", rec.events[0].Name)
	assert.False(t, rec.events[0].Success)
	assert.Equal(t, acme, rec.events[0].Fields["company_id"])
}
