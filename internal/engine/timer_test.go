package engine

import "testing"

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{-5, "00:00"},
		{9, "00:09"},
		{60, "01:00"},
		{125, "02:05"},
		{599, "09:59"},
		{3600, "60:00"},
	}
	for _, tc := range cases {
		if got := FormatRemaining(tc.seconds); got != tc.want {
			t.Errorf("FormatRemaining(%d) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestLevelFor(t *testing.T) {
	cases := []struct {
		remaining int
		want      TimerLevel
	}{
		{601, LevelNormal},
		{301, LevelNormal},
		{300, LevelWarning},
		{61, LevelWarning},
		{60, LevelCritical},
		{0, LevelCritical},
	}
	for _, tc := range cases {
		if got := levelFor(tc.remaining); got != tc.want {
			t.Errorf("levelFor(%d) = %v, want %v", tc.remaining, got, tc.want)
		}
	}
}
