package model

import (
	"testing"
	"time"
)

func TestDerivePunchState(t *testing.T) {
	now := time.Now()
	lunch := BreakLunch

	tests := []struct {
		name     string
		record   *AttendanceRecord
		expected PunchState
	}{
		{
			name:     "no record",
			record:   nil,
			expected: StateNotPunched,
		},
		{
			name:     "record without punch in",
			record:   &AttendanceRecord{},
			expected: StateNotPunched,
		},
		{
			name:     "punched in",
			record:   &AttendanceRecord{PunchIn: &now},
			expected: StatePunchedIn,
		},
		{
			name:     "on break",
			record:   &AttendanceRecord{PunchIn: &now, BreakStartTime: &now, BreakType: &lunch},
			expected: StateOnBreak,
		},
		{
			name:     "punched out wins over stale break fields",
			record:   &AttendanceRecord{PunchIn: &now, BreakStartTime: &now, PunchOut: &now},
			expected: StatePunchedOut,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DerivePunchState(tt.record); got != tt.expected {
				t.Errorf("DerivePunchState() = %v, want %v", got, tt.expected)
			}
		})
	}
}
