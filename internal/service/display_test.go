package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInitials(t *testing.T) {
	tests := map[string]string{
		"Ruth Moab":          "RM",
		"mary anne de villa": "MV",
		"Boaz":               "B",
		"   ":                "?",
		"":                   "?",
		"élise durand":       "ÉD",
	}
	for name, want := range tests {
		assert.Equal(t, want, Initials(name), name)
	}
}

func TestAccentIndex(t *testing.T) {
	for _, name := range []string{"", "Ruth Moab", "Boaz", "a very long name with many words in it"} {
		idx := AccentIndex(name)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, AccentCount)
		assert.Equal(t, idx, AccentIndex(name))
	}
}

func TestAccentIndex_MatchesSitePalette(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"", 0},
		{"Boaz", 1},
		{"Ruth Moab", 2},
		{"Naomi Bethlehem", 2},
		{"Bartholomew Alexander Fitzgerald", 4},
		{"Maximiliano Santiago Rodríguez-Fernández", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AccentIndex(tt.name))
		})
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{8 * 24 * time.Hour, "1w ago"},
		{34 * 24 * time.Hour, "4w ago"},
		{65 * 24 * time.Hour, "2mo ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TimeAgo(now.Add(-tt.ago), now), tt.ago.String())
	}
}
