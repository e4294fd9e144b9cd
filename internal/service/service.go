package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lei/datagov-gateway/internal/models"
	"github.com/lei/datagov-gateway/pkg/datagov"
	"github.com/lei/datagov-gateway/pkg/logger"
)

var (
	// ErrResourceNotExposed indicates the resource is not offered by this service
	ErrResourceNotExposed = errors.New("resource not exposed")
	// ErrInvalidRange indicates date_to falls before date_from
	ErrInvalidRange = errors.New("date_to is before date_from")
	// ErrNoResources indicates a multi-resource query named no resources
	ErrNoResources = errors.New("no resources requested")
)

// Service coordinates the API layer and the data.gov.gr gateway
type Service struct {
	gateway   *datagov.Gateway
	resources map[string]*models.Resource
	logger    *logger.Logger
	metrics   *Metrics
}

// NewService creates a new service instance. With no resources configured,
// every resource in the gateway's registry is exposed.
func NewService(gw *datagov.Gateway, resources []*models.Resource, log *logger.Logger, metrics *Metrics) (*Service, error) {
	resourceMap := make(map[string]*models.Resource)

	if len(resources) == 0 {
		for _, id := range gw.Registry().IDs() {
			resourceMap[id] = &models.Resource{ID: id, DisplayName: id}
		}
	}

	for _, r := range resources {
		if _, ok := gw.Registry().Lookup(r.ID); !ok {
			return nil, fmt.Errorf("resource %s: %w", r.ID, datagov.ErrUnknownResource)
		}
		resourceMap[r.ID] = r
	}

	return &Service{
		gateway:   gw,
		resources: resourceMap,
		logger:    log,
		metrics:   metrics,
	}, nil
}

// getLogger retrieves logger from context or falls back to service logger
func (s *Service) getLogger(ctx context.Context) *logger.Logger {
	if ctxLogger := logger.FromContext(ctx); ctxLogger != nil {
		return ctxLogger
	}
	return s.logger
}

// ListResources returns the exposed resources sorted by id
func (s *Service) ListResources(ctx context.Context) []*models.Resource {
	resources := make([]*models.Resource, 0, len(s.resources))
	for _, r := range s.resources {
		resources = append(resources, r)
	}
	sort.Slice(resources, func(i, j int) bool {
		return resources[i].ID < resources[j].ID
	})
	return resources
}

// Query fetches one resource for the given date range
func (s *Service) Query(ctx context.Context, resourceID string, from, to time.Time) (datagov.Result, error) {
	logger := s.getLogger(ctx)

	logger.Debug("service: querying resource",
		"resource", resourceID,
		"date_from", from.Format(datagov.DateLayout),
		"date_to", to.Format(datagov.DateLayout))

	if _, exists := s.resources[resourceID]; !exists {
		logger.Debug("service: resource not exposed", "resource", resourceID)
		return nil, ErrResourceNotExposed
	}

	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	start := time.Now()
	result, err := s.gateway.Fetch(ctx, resourceID, from, to)
	kind := datagov.KindOf(err)

	count := 0
	if result != nil {
		count = result.Count()
	}
	s.metrics.observe(resourceID, kind.String(), count, time.Since(start))

	if err != nil {
		logger.Error("service: fetch failed",
			"resource", resourceID,
			"kind", kind.String(),
			"error", err)
		return nil, fmt.Errorf("fetch %s: %w", resourceID, err)
	}

	logger.Info("service: resource fetched",
		"resource", resourceID,
		"count", count,
		"duration_ms", time.Since(start).Milliseconds())

	return result, nil
}

// QueryMany fetches several resources concurrently. It fails as a whole if
// any single fetch fails.
func (s *Service) QueryMany(ctx context.Context, resourceIDs []string, from, to time.Time) (map[string]datagov.Result, error) {
	if len(resourceIDs) == 0 {
		return nil, ErrNoResources
	}

	unique := make([]string, 0, len(resourceIDs))
	seen := make(map[string]bool, len(resourceIDs))
	for _, id := range resourceIDs {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[string]datagov.Result, len(unique))

	for _, id := range unique {
		g.Go(func() error {
			result, err := s.Query(gctx, id, from, to)
			if err != nil {
				return err
			}
			mu.Lock()
			results[id] = result
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}
