package api

import (
	"testing"
	"time"

	"github.com/lei/datagov-gateway/internal/models"
)

func TestFilterResources(t *testing.T) {
	resources := []*models.Resource{
		{ID: "road_traffic_attica", DisplayName: "Road traffic in Attica"},
		{ID: "oasa_ridership", DisplayName: "OASA ridership"},
	}

	tests := []struct {
		name   string
		search string
		want   int
	}{
		{"no filter", "", 2},
		{"search by id", "oasa", 1},
		{"search by display name", "attica", 1},
		{"case insensitive", "ROAD", 1},
		{"shared substring", "r", 2},
		{"no match", "bikes", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterResources(resources, tt.search)
			if len(got) != tt.want {
				t.Errorf("FilterResources() = %d resources, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseDateRange(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2022, 7, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name     string
		from, to string
		wantFrom time.Time
		wantTo   time.Time
		wantErr  bool
	}{
		{"both dates", "2022-07-22", "2022-07-23", day(22), day(23), false},
		{"to defaults to from", "2022-07-22", "", day(22), day(22), false},
		{"missing from", "", "2022-07-23", time.Time{}, time.Time{}, true},
		{"bad from", "22/07/2022", "", time.Time{}, time.Time{}, true},
		{"bad to", "2022-07-22", "tomorrow", time.Time{}, time.Time{}, true},
		{"timestamp is not a date", "2022-07-22T00:00:00Z", "", time.Time{}, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := parseDateRange(tt.from, tt.to)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDateRange() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !from.Equal(tt.wantFrom) || !to.Equal(tt.wantTo) {
				t.Errorf("parseDateRange() = %v, %v, want %v, %v", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}
