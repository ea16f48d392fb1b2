package validity

import (
	"testing"
	"time"
)

func TestOf(t *testing.T) {
	now := time.Date(2025, 6, 15, 18, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		exp  time.Time
		want Status
	}{
		{"zero date", time.Time{}, StatusExpired},
		{"yesterday", time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC), StatusExpired},
		{"today earlier hour", time.Date(2025, 6, 15, 1, 0, 0, 0, time.UTC), StatusExpiring},
		{"in 30 days", time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC), StatusExpiring},
		{"in 31 days", time.Date(2025, 7, 16, 0, 0, 0, 0, time.UTC), StatusValid},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Of(tc.exp, now); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestRange_MatchesOf(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	for offset := -5; offset <= 40; offset++ {
		exp := time.Date(2025, 6, 15+offset, 12, 0, 0, 0, time.UTC)
		st := Of(exp, now)

		from, to := Range(st, now)
		if from != nil && exp.Before(*from) {
			t.Fatalf("offset %d: %s before range start for %s", offset, exp, st)
		}
		if to != nil && exp.After(*to) {
			t.Fatalf("offset %d: %s after range end for %s", offset, exp, st)
		}
	}
}

func TestLabel(t *testing.T) {
	if StatusValid.Label() != "Válido" || StatusExpiring.Label() != "Expirando" || StatusExpired.Label() != "Expirado" {
		t.Fatalf("unexpected pt-BR labels")
	}
}

func TestNarrow(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	wide := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tight := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)

	from, to := Narrow(StatusExpiring, now, &wide, &tight)
	if !from.Equal(Day(now)) {
		t.Fatalf("expected from narrowed to today, got %s", from)
	}
	if !to.Equal(tight) {
		t.Fatalf("expected explicit upper bound kept, got %s", to)
	}

	if f, e := Narrow("", now, &wide, nil); f != &wide || e != nil {
		t.Fatalf("empty status must keep the range")
	}
}

func TestCounts(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

	var c Counts
	c.Add(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), now)
	c.Add(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC), now)
	c.Add(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), now)
	c.Add(time.Time{}, now)

	if c != (Counts{Total: 4, Expiring: 1, Expired: 2}) {
		t.Fatalf("unexpected counts %+v", c)
	}
}
