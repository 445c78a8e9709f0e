package attendance_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enghaven/portal/core/attendance"
	"github.com/enghaven/portal/storage/database"
	"github.com/enghaven/portal/tests"
)

func TestDayKey(t *testing.T) {
	loc := time.FixedZone("PKT", 5*60*60)
	midnight := time.Date(2024, time.May, 10, 0, 0, 0, 0, loc)
	want := fmt.Sprintf("u1-%d", midnight.UnixMilli())

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "midnight", at: midnight, want: want},
		{name: "morning", at: midnight.Add(9 * time.Hour), want: want},
		{name: "last ms", at: midnight.Add(24*time.Hour - time.Millisecond), want: want},
		{name: "next day", at: midnight.Add(24 * time.Hour), want: fmt.Sprintf("u1-%d", midnight.Add(24*time.Hour).UnixMilli())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attendance.DayKey("u1", tt.at))
		})
	}
}

func TestService_MarkToday(t *testing.T) {
	ctx := context.Background()
	svc := attendance.NewService(database.NewAttendanceRepository(testutil.PrepareDB(t)))
	now := time.Date(2024, time.May, 10, 8, 0, 0, 0, time.Local)
	svc.SetClock(func() time.Time { return now })

	marked, err := svc.HasMarkedToday(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, marked)

	created, err := svc.MarkToday(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, created)

	// later the same day
	now = now.Add(10 * time.Hour)
	created, err = svc.MarkToday(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, created)

	marked, err = svc.HasMarkedToday(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, marked)

	// another user, same day
	created, err = svc.MarkToday(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, created)

	// next day
	now = time.Date(2024, time.May, 11, 7, 0, 0, 0, time.Local)
	marked, err = svc.HasMarkedToday(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, marked)
	created, err = svc.MarkToday(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, created)

	records, err := svc.ForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, attendance.DayKey("u1", now), records[1].Key)
	assert.True(t, records[1].At.Equal(now))
}

func TestService_MarkToday_concurrent(t *testing.T) {
	ctx := context.Background()
	svc := attendance.NewService(database.NewAttendanceRepository(testutil.PrepareDB(t)))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var createdCount int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := svc.MarkToday(ctx, "u1")
			assert.NoError(t, err)
			if created {
				mu.Lock()
				createdCount++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, createdCount)
	records, err := svc.ForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
