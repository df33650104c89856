package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"carewise-staffing/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeRunner 记录排班请求调用
type fakeRunner struct {
	calls []runnerCall
	err   error
}

type runnerCall struct {
	facilityID string
	sectionID  string
	target     time.Time
}

func (f *fakeRunner) RunFacility(ctx context.Context, facilityID, sectionID string, target time.Time) error {
	f.calls = append(f.calls, runnerCall{facilityID: facilityID, sectionID: sectionID, target: target})
	return f.err
}

func newTestConsumer(runner ScheduleRunner) *EventConsumer {
	return NewEventConsumer(nil, runner, zap.NewNop(),
		"staffing:events", "staffing-engine-group", "staffing-engine-1", 10)
}

// 事件消息与发布端的格式一致：data 字段携带 JSON 事件体
func eventMessage(t *testing.T, event ScheduleEvent) store.StreamMessage {
	t.Helper()
	data, err := json.Marshal(event)
	require.NoError(t, err)
	return store.StreamMessage{
		Stream: "staffing:events",
		ID:     "1-0",
		Values: map[string]interface{}{"data": string(data)},
	}
}

func TestProcessEventRunsFacility(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner)

	msg := eventMessage(t, ScheduleEvent{
		EventType:  "schedule.requested",
		FacilityID: "fac-1",
		SectionID:  "wing-a",
		TargetDate: "2026-03-11",
		Timestamp:  time.Now().Unix(),
	})
	require.NoError(t, c.processEvent(context.Background(), msg))

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "fac-1", call.facilityID)
	assert.Equal(t, "wing-a", call.sectionID)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), call.target)
}

func TestProcessEventDefaultsTargetToNow(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner)

	msg := eventMessage(t, ScheduleEvent{
		EventType:  "schedule.requested",
		FacilityID: "fac-1",
	})
	require.NoError(t, c.processEvent(context.Background(), msg))

	require.Len(t, runner.calls, 1)
	assert.Empty(t, runner.calls[0].sectionID)
	assert.WithinDuration(t, time.Now(), runner.calls[0].target, 5*time.Second)
}

func TestProcessEventRejectsMalformedMessages(t *testing.T) {
	runner := &fakeRunner{}
	c := newTestConsumer(runner)
	ctx := context.Background()

	// 缺少 data 字段
	err := c.processEvent(ctx, store.StreamMessage{
		ID:     "1-0",
		Values: map[string]interface{}{"other": "x"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data field")

	// data 不是合法 JSON
	err = c.processEvent(ctx, store.StreamMessage{
		ID:     "2-0",
		Values: map[string]interface{}{"data": "{not json"},
	})
	require.Error(t, err)

	// 缺少 facility_id
	err = c.processEvent(ctx, eventMessage(t, ScheduleEvent{EventType: "schedule.requested"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing facility_id")

	// target_date 格式非法
	err = c.processEvent(ctx, eventMessage(t, ScheduleEvent{
		FacilityID: "fac-1",
		TargetDate: "03/11/2026",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid target_date")

	assert.Empty(t, runner.calls)
}

func TestProcessEventPropagatesRunnerError(t *testing.T) {
	runner := &fakeRunner{err: assert.AnError}
	c := newTestConsumer(runner)

	err := c.processEvent(context.Background(), eventMessage(t, ScheduleEvent{
		FacilityID: "fac-1",
	}))
	require.Error(t, err)
	require.Len(t, runner.calls, 1)
}
