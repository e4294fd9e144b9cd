package transform

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lei/datagov-gateway/pkg/datagov/schema"
)

func item(t *testing.T, raw string) schema.Item {
	t.Helper()
	var it schema.Item
	require.NoError(t, json.Unmarshal([]byte(raw), &it))
	return it
}

func TestRoadTrafficAttica(t *testing.T) {
	rec, err := RoadTrafficAttica(item(t, `{
		"deviceid": "MS116",
		"countedcars": 38040,
		"appprocesstime": "2022-07-23T00:00:00Z",
		"road_name": "Λ. ΚΗΦΙΣΟΥ",
		"road_info": "ΚΥΡΙΟΣ ΔΡΟΜΟΣ ΜΕ ΚΑΤΕΥΘΥΝΣΗ ΠΕΙΡΑΙΑ",
		"average_speed": 98.48790746582544
	}`))
	require.NoError(t, err)

	assert.Equal(t, "MS116", rec.DeviceID)
	assert.Equal(t, 38040, rec.CountedCars)
	assert.Equal(t, time.Date(2022, 7, 23, 0, 0, 0, 0, time.UTC), rec.ProcessTime)
	assert.Equal(t, "Λ. ΚΗΦΙΣΟΥ", rec.RoadName)
	require.NotNil(t, rec.RoadInfo)
	assert.Equal(t, "ΚΥΡΙΟΣ ΔΡΟΜΟΣ ΜΕ ΚΑΤΕΥΘΥΝΣΗ ΠΕΙΡΑΙΑ", *rec.RoadInfo)
	assert.InDelta(t, 98.4879, rec.AverageSpeed, 1e-4)
}

func TestRoadTrafficAttica_NullRoadInfo(t *testing.T) {
	rec, err := RoadTrafficAttica(item(t, `{
		"deviceid": "MS125",
		"countedcars": 5480,
		"appprocesstime": "2022-07-23T00:00:00Z",
		"road_name": "Λ. ΚΗΦΙΣΟΥ",
		"road_info": null,
		"average_speed": 60.26
	}`))
	require.NoError(t, err)
	assert.Nil(t, rec.RoadInfo)
}

func TestRoadTrafficAttica_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		field string
	}{
		{
			name:  "missing deviceid",
			raw:   `{"countedcars": 1, "appprocesstime": "2022-07-23T00:00:00Z", "road_name": "x", "road_info": null, "average_speed": 1}`,
			field: "deviceid",
		},
		{
			name:  "countedcars as string",
			raw:   `{"deviceid": "MS1", "countedcars": "1", "appprocesstime": "2022-07-23T00:00:00Z", "road_name": "x", "road_info": null, "average_speed": 1}`,
			field: "countedcars",
		},
		{
			name:  "bad timestamp",
			raw:   `{"deviceid": "MS1", "countedcars": 1, "appprocesstime": "yesterday", "road_name": "x", "road_info": null, "average_speed": 1}`,
			field: "appprocesstime",
		},
		{
			name:  "timestamp with fractional seconds",
			raw:   `{"deviceid": "MS1", "countedcars": 1, "appprocesstime": "2022-07-23T00:00:00.987654Z", "road_name": "x", "road_info": null, "average_speed": 1}`,
			field: "appprocesstime",
		},
		{
			name:  "null average_speed",
			raw:   `{"deviceid": "MS1", "countedcars": 1, "appprocesstime": "2022-07-23T00:00:00Z", "road_name": "x", "road_info": null, "average_speed": null}`,
			field: "average_speed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := RoadTrafficAttica(item(t, tt.raw))
			var fe *schema.FieldError
			require.True(t, errors.As(err, &fe), "expected FieldError, got %v", err)
			assert.Equal(t, tt.field, fe.Field)
		})
	}
}

func TestOasaRidership(t *testing.T) {
	rec, err := OasaRidership(item(t, `{
		"dv_validations": 5234,
		"dv_agency": "001",
		"dv_platenum_station": "UKN",
		"dv_route": null,
		"routes_per_hour": null,
		"load_dt": "2022-07-22T05:48:44Z",
		"date_hour": "2022-07-22T00:00:00Z"
	}`))
	require.NoError(t, err)

	assert.Equal(t, 5234, rec.Validations)
	assert.Equal(t, "001", rec.Agency)
	assert.Equal(t, "UKN", rec.PlatenumStation)
	assert.Nil(t, rec.Route)
	assert.Nil(t, rec.RoutesPerHour)
	assert.Equal(t, time.Date(2022, 7, 22, 5, 48, 44, 0, time.UTC), rec.LoadTime)
	assert.Equal(t, time.Date(2022, 7, 22, 0, 0, 0, 0, time.UTC), rec.DateHour)
}

func TestOasaRidership_NullableValues(t *testing.T) {
	rec, err := OasaRidership(item(t, `{
		"dv_validations": 12,
		"dv_agency": "002",
		"dv_platenum_station": "KΑT",
		"dv_route": "040",
		"routes_per_hour": 7,
		"load_dt": "2022-07-22T05:48:59Z",
		"date_hour": "2022-07-22T00:00:00Z"
	}`))
	require.NoError(t, err)
	require.NotNil(t, rec.Route)
	require.NotNil(t, rec.RoutesPerHour)
	assert.Equal(t, "040", *rec.Route)
	assert.Equal(t, 7, *rec.RoutesPerHour)
}

func TestOasaRidership_MissingDateHour(t *testing.T) {
	_, err := OasaRidership(item(t, `{
		"dv_validations": 12,
		"dv_agency": "002",
		"dv_platenum_station": "KΑT",
		"dv_route": null,
		"routes_per_hour": null,
		"load_dt": "2022-07-22T05:48:59Z"
	}`))
	var fe *schema.FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "date_hour", fe.Field)
	assert.Equal(t, "missing required field", fe.Reason)
}
