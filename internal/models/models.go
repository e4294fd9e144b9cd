package models

import "encoding/json"

// Resource is a data.gov.gr resource exposed through the proxy
type Resource struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
}

// QueryResult is the proxy response for one resource query
type QueryResult struct {
	Resource string         `json:"resource"`
	DateFrom string         `json:"date_from"`
	DateTo   string         `json:"date_to"`
	Count    int            `json:"count"`
	Records  json.Marshaler `json:"records"`
}
