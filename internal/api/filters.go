package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/lei/datagov-gateway/internal/models"
	"github.com/lei/datagov-gateway/pkg/datagov"
)

// FilterResources filters resources whose id or display name contains search
func FilterResources(resources []*models.Resource, search string) []*models.Resource {
	if search == "" {
		return resources
	}

	filtered := make([]*models.Resource, 0, len(resources))
	searchLower := strings.ToLower(search)

	for _, r := range resources {
		if strings.Contains(strings.ToLower(r.ID), searchLower) ||
			strings.Contains(strings.ToLower(r.DisplayName), searchLower) {
			filtered = append(filtered, r)
		}
	}

	return filtered
}

// parseDateParam parses a required YYYY-MM-DD query parameter as a UTC date
func parseDateParam(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("missing %s parameter", name)
	}

	t, err := time.ParseInLocation(datagov.DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q, expected YYYY-MM-DD", name, value)
	}
	return t, nil
}

// parseDateRange reads date_from and date_to, defaulting date_to to date_from
func parseDateRange(from, to string) (time.Time, time.Time, error) {
	dateFrom, err := parseDateParam("date_from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if to == "" {
		return dateFrom, dateFrom, nil
	}

	dateTo, err := parseDateParam("date_to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return dateFrom, dateTo, nil
}
