package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInstant_Sub(t *testing.T) {
	tests := []struct {
		name     string
		start    Instant
		stop     Instant
		wantSec  int64
		wantUsec int64
	}{
		{"no borrow", Instant{10, 100000}, Instant{11, 900000}, 1, 800000},
		{"borrow", Instant{10, 900000}, Instant{11, 100000}, 0, 200000},
		{"equal", Instant{5, 5}, Instant{5, 5}, 0, 0},
		{"same second", Instant{7, 1}, Instant{7, 999999}, 0, 999998},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec, usec := tt.stop.Sub(tt.start)
			assert.Equal(t, tt.wantSec, sec)
			assert.Equal(t, tt.wantUsec, usec)
		})
	}
}

func TestElapsedMillis(t *testing.T) {
	tests := []struct {
		name  string
		start Instant
		stop  Instant
		want  int64
	}{
		{"sub-second borrow", Instant{10, 900000}, Instant{11, 100000}, 200},
		{"two seconds", Instant{0, 0}, Instant{2, 0}, 2000},
		{"truncates to whole ms", Instant{1, 0}, Instant{1, 1999}, 1},
		{"under one ms", Instant{1, 0}, Instant{1, 999}, 0},
		{"zero", Instant{3, 3}, Instant{3, 3}, 0},
		{"reversed", Instant{2, 0}, Instant{1, 0}, -1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ElapsedMillis(tt.start, tt.stop))
		})
	}
}

func TestFromDuration(t *testing.T) {
	i := FromDuration(3*time.Second + 250*time.Millisecond + 7*time.Microsecond)
	assert.Equal(t, Instant{Sec: 3, Usec: 250007}, i)
	assert.Equal(t, 3*time.Second+250007*time.Microsecond, i.Duration())
}

func TestInstant_Before(t *testing.T) {
	assert.True(t, Instant{1, 5}.Before(Instant{2, 0}))
	assert.True(t, Instant{1, 5}.Before(Instant{1, 6}))
	assert.False(t, Instant{1, 6}.Before(Instant{1, 6}))
	assert.False(t, Instant{2, 0}.Before(Instant{1, 999999}))
}

func TestNow_Monotonic(t *testing.T) {
	a := Now()
	time.Sleep(2 * time.Millisecond)
	b := Now()

	assert.True(t, a.Before(b), "expected %v before %v", a, b)
	assert.GreaterOrEqual(t, ElapsedMillis(a, b), int64(1))
	assert.GreaterOrEqual(t, b.Usec, int64(0))
	assert.Less(t, b.Usec, int64(MicrosPerSecond))
}

func TestInstant_Add(t *testing.T) {
	tests := []struct {
		name string
		i    Instant
		d    time.Duration
		want Instant
	}{
		{"carry", Instant{10, 900000}, 200 * time.Millisecond, Instant{11, 100000}},
		{"borrow", Instant{11, 100000}, -200 * time.Millisecond, Instant{10, 900000}},
		{"zero", Instant{3, 4}, 0, Instant{3, 4}},
		{"seconds", Instant{1, 500}, 2 * time.Second, Instant{3, 500}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.i.Add(tt.d))
		})
	}
}
