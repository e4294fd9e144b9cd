// Package transform maps raw query response items onto schema records.
package transform

import "github.com/lei/datagov-gateway/pkg/datagov/schema"

// Func converts one raw item into a typed record
type Func[T any] func(item schema.Item) (T, error)

// RoadTrafficAttica reads a road_traffic_attica item
func RoadTrafficAttica(item schema.Item) (schema.Traffic, error) {
	var (
		rec schema.Traffic
		err error
	)

	if rec.DeviceID, err = item.String("deviceid"); err != nil {
		return schema.Traffic{}, err
	}
	if rec.CountedCars, err = item.Int("countedcars"); err != nil {
		return schema.Traffic{}, err
	}
	if rec.ProcessTime, err = item.Time("appprocesstime"); err != nil {
		return schema.Traffic{}, err
	}
	if rec.RoadName, err = item.String("road_name"); err != nil {
		return schema.Traffic{}, err
	}
	if rec.RoadInfo, err = item.NullableString("road_info"); err != nil {
		return schema.Traffic{}, err
	}
	if rec.AverageSpeed, err = item.Float("average_speed"); err != nil {
		return schema.Traffic{}, err
	}

	return rec, nil
}

// OasaRidership reads an oasa_ridership item
func OasaRidership(item schema.Item) (schema.Ridership, error) {
	var (
		rec schema.Ridership
		err error
	)

	if rec.Validations, err = item.Int("dv_validations"); err != nil {
		return schema.Ridership{}, err
	}
	if rec.Agency, err = item.String("dv_agency"); err != nil {
		return schema.Ridership{}, err
	}
	if rec.PlatenumStation, err = item.String("dv_platenum_station"); err != nil {
		return schema.Ridership{}, err
	}
	if rec.Route, err = item.NullableString("dv_route"); err != nil {
		return schema.Ridership{}, err
	}
	if rec.RoutesPerHour, err = item.NullableInt("routes_per_hour"); err != nil {
		return schema.Ridership{}, err
	}
	if rec.LoadTime, err = item.Time("load_dt"); err != nil {
		return schema.Ridership{}, err
	}
	if rec.DateHour, err = item.Time("date_hour"); err != nil {
		return schema.Ridership{}, err
	}

	return rec, nil
}
