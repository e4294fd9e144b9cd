// Package schema holds the typed records returned by the data.gov.gr query
// resources and the raw item accessors the transformers read them with.
package schema

import "time"

// Traffic is one road sensor reading from the road_traffic_attica resource
type Traffic struct {
	DeviceID     string    `json:"deviceid"`
	CountedCars  int       `json:"countedcars"`
	ProcessTime  time.Time `json:"appprocesstime"`
	RoadName     string    `json:"road_name"`
	RoadInfo     *string   `json:"road_info"`
	AverageSpeed float64   `json:"average_speed"`
}

// Ridership is one validation count from the oasa_ridership resource
type Ridership struct {
	Validations     int       `json:"dv_validations"`
	Agency          string    `json:"dv_agency"`
	PlatenumStation string    `json:"dv_platenum_station"`
	Route           *string   `json:"dv_route"`
	RoutesPerHour   *int      `json:"routes_per_hour"`
	LoadTime        time.Time `json:"load_dt"`
	DateHour        time.Time `json:"date_hour"`
}
