// Package location acquires the moderator's current coordinates for the
// "use my location" radius search.
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	apperrors "roster-search/internal/common/errors"
	apphttp "roster-search/internal/common/http"
	"roster-search/internal/common/logger"
	"roster-search/internal/models"
)

var (
	ErrPermissionDenied = apperrors.Sentinel(apperrors.ErrCodeLocationPermissionDenied)
	ErrUnavailable      = apperrors.Sentinel(apperrors.ErrCodeLocationUnavailable)
)

// Resolver performs one location acquisition. Calls are independent of each
// other; a second call while one is in flight is allowed.
type Resolver interface {
	RequestCurrentLocation(ctx context.Context) (models.Coordinates, error)
}

// ipLookup is the ip-api style response body.
type ipLookup struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// HTTPResolver geolocates the caller's public IP through an HTTP lookup
// service. Repeated service failures open a circuit breaker, after which
// calls fail fast as unavailable until the reset timeout passes.
type HTTPResolver struct {
	client *apphttp.Client
	url    string
	log    logger.Logger
	cb     *gobreaker.CircuitBreaker
}

type BreakerSettings struct {
	// Failures is the number of consecutive failed lookups that opens the
	// breaker.
	Failures uint32
	Reset    time.Duration
}

var DefaultBreaker = BreakerSettings{Failures: 3, Reset: 30 * time.Second}

func NewHTTPResolver(url string, timeout time.Duration, log logger.Logger) *HTTPResolver {
	return NewHTTPResolverWithBreaker(url, timeout, DefaultBreaker, log)
}

func NewHTTPResolverWithBreaker(url string, timeout time.Duration, bs BreakerSettings, log logger.Logger) *HTTPResolver {
	if bs.Failures == 0 {
		bs.Failures = DefaultBreaker.Failures
	}
	r := &HTTPResolver{
		client: apphttp.NewClient(timeout, "roster-search"),
		url:    url,
		log:    log,
	}
	r.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "location-lookup",
		MaxRequests: 1,
		Timeout:     bs.Reset,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.Failures
		},
		// A refusal or an abandoned request says nothing about the service's
		// health.
		IsSuccessful: func(err error) bool {
			return err == nil ||
				errors.Is(err, ErrPermissionDenied) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("location breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return r
}

func (r *HTTPResolver) RequestCurrentLocation(ctx context.Context) (models.Coordinates, error) {
	res, err := r.cb.Execute(func() (interface{}, error) {
		return r.lookup(ctx)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return models.Coordinates{}, apperrors.NewLocationUnavailableError(err)
		}
		return models.Coordinates{}, err
	}
	return res.(models.Coordinates), nil
}

func (r *HTTPResolver) lookup(ctx context.Context) (models.Coordinates, error) {
	body, err := r.client.GetJSON(ctx, r.url)
	if err != nil {
		var statusErr *apphttp.StatusError
		if errors.As(err, &statusErr) &&
			(statusErr.StatusCode == http.StatusUnauthorized || statusErr.StatusCode == http.StatusForbidden) {
			r.log.Warn("location lookup refused", map[string]interface{}{"status": statusErr.StatusCode})
			return models.Coordinates{}, apperrors.NewLocationPermissionDeniedError(
				fmt.Sprintf("lookup service answered %d", statusErr.StatusCode))
		}
		r.log.Warn("location lookup failed", map[string]interface{}{"error": err})
		return models.Coordinates{}, apperrors.NewLocationUnavailableError(err)
	}

	var res ipLookup
	if err := json.Unmarshal(body, &res); err != nil {
		return models.Coordinates{}, apperrors.NewLocationUnavailableError(fmt.Errorf("decode lookup response: %w", err))
	}
	if res.Status != "" && res.Status != "success" {
		msg := res.Message
		if msg == "" {
			msg = res.Status
		}
		return models.Coordinates{}, apperrors.NewLocationUnavailableError(fmt.Errorf("lookup failed: %s", msg))
	}
	if res.Lat == nil || res.Lon == nil {
		return models.Coordinates{}, apperrors.NewLocationUnavailableError(nil)
	}

	coords := models.Coordinates{Latitude: *res.Lat, Longitude: *res.Lon}
	if !valid(coords) {
		return models.Coordinates{}, apperrors.NewLocationUnavailableError(
			fmt.Errorf("lookup returned out-of-range position %v,%v", coords.Latitude, coords.Longitude))
	}
	return coords, nil
}

func valid(c models.Coordinates) bool {
	return !math.IsNaN(c.Latitude) && !math.IsNaN(c.Longitude) &&
		c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// StaticResolver answers with fixed, configured coordinates. Without any
// configured position it behaves like a refused permission prompt.
type StaticResolver struct {
	coords *models.Coordinates
}

func NewStaticResolver(coords *models.Coordinates) *StaticResolver {
	return &StaticResolver{coords: coords}
}

func (r *StaticResolver) RequestCurrentLocation(ctx context.Context) (models.Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinates{}, apperrors.NewLocationUnavailableError(err)
	}
	if r.coords == nil {
		return models.Coordinates{}, apperrors.NewLocationPermissionDeniedError("no static location configured")
	}
	if !valid(*r.coords) {
		return models.Coordinates{}, apperrors.NewLocationUnavailableError(
			fmt.Errorf("static location %v,%v is out of range", r.coords.Latitude, r.coords.Longitude))
	}
	return *r.coords, nil
}

// Notice turns a resolver failure into the dismissible message shown to the
// moderator. It returns nil for a nil error.
func Notice(err error) *apperrors.Notice {
	if err == nil {
		return nil
	}
	return apperrors.ToNotice(err)
}
