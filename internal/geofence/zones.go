package geofence

import (
	"fmt"
	"math"
	"sync"

	"github.com/uber/h3-go/v4"

	"github.com/fraudguard/riskengine/pkg/common"
)

const earthRadiusKm = 6371.0

// Resolution 7 cells are roughly 5 km² — coarse enough that a user moving
// around their neighbourhood stays in one cell, fine enough to separate
// cities.
const locationCellResolution = 7

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ZoneType classifies a geofence zone's risk contribution.
type ZoneType string

const (
	ZoneTypeSafe       ZoneType = "safe"
	ZoneTypeBusiness   ZoneType = "business"
	ZoneTypeRestricted ZoneType = "restricted"
	ZoneTypeHighRisk   ZoneType = "high-risk"
)

// AlertLevel indicates how loudly a zone match should be reported.
type AlertLevel string

const (
	AlertLevelNone   AlertLevel = "none"
	AlertLevelLow    AlertLevel = "low"
	AlertLevelMedium AlertLevel = "medium"
	AlertLevelHigh   AlertLevel = "high"
)

// Zone is a named circular region with a risk classification.
type Zone struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Center     Point      `json:"center"`
	RadiusKm   float64    `json:"radius_km"`
	Type       ZoneType   `json:"type"`
	AlertLevel AlertLevel `json:"alert_level"`
}

// penalty returns the additive score contribution for containment in this zone.
func (z *Zone) penalty() float64 {
	switch z.Type {
	case ZoneTypeHighRisk:
		return 40
	case ZoneTypeRestricted:
		return 25
	case ZoneTypeBusiness:
		return 5
	case ZoneTypeSafe:
		return -10
	default:
		return 0
	}
}

var validZoneTypes = map[ZoneType]bool{
	ZoneTypeSafe:       true,
	ZoneTypeBusiness:   true,
	ZoneTypeRestricted: true,
	ZoneTypeHighRisk:   true,
}

// Index holds registered zones in registration order. Containment lookups
// return the first matching zone, so registration order is the overlap
// priority.
type Index struct {
	mu    sync.RWMutex
	zones []Zone
}

// NewIndex creates an empty zone index.
func NewIndex() *Index {
	return &Index{}
}

// AddZone registers a zone. Zone ids are unique; re-registering an id fails.
func (i *Index) AddZone(zone Zone) error {
	if zone.ID == "" {
		return common.NewValidationError("zone id is required")
	}
	if zone.RadiusKm <= 0 {
		return common.NewValidationError("zone radius must be positive")
	}
	if !validZoneTypes[zone.Type] {
		return common.NewValidationError(fmt.Sprintf("unknown zone type %q", zone.Type))
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	for _, existing := range i.zones {
		if existing.ID == zone.ID {
			return common.NewValidationError(fmt.Sprintf("zone %q is already registered", zone.ID))
		}
	}

	i.zones = append(i.zones, zone)
	return nil
}

// RemoveZone unregisters a zone by id.
func (i *Index) RemoveZone(id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	for idx, zone := range i.zones {
		if zone.ID == id {
			i.zones = append(i.zones[:idx], i.zones[idx+1:]...)
			return nil
		}
	}

	return common.NewNotFoundError(fmt.Sprintf("zone %q not found", id))
}

// ContainingZone returns the first registered zone whose center is within
// its radius of the point, or nil if no zone contains it.
func (i *Index) ContainingZone(point Point) *Zone {
	i.mu.RLock()
	defer i.mu.RUnlock()

	for idx := range i.zones {
		zone := &i.zones[idx]
		if Distance(zone.Center, point) <= zone.RadiusKm {
			matched := *zone
			return &matched
		}
	}

	return nil
}

// Zones returns a snapshot of the registered zones in registration order.
func (i *Index) Zones() []Zone {
	i.mu.RLock()
	defer i.mu.RUnlock()

	snapshot := make([]Zone, len(i.zones))
	copy(snapshot, i.zones)
	return snapshot
}

// Distance returns the great-circle distance between two points in kilometers.
func Distance(a, b Point) float64 {
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180.0
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*math.Pi/180.0)*math.Cos(b.Latitude*math.Pi/180.0)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Bearing returns the initial bearing from a to b in degrees [0, 360).
func Bearing(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180.0
	lat2 := b.Latitude * math.Pi / 180.0
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180.0

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	bearing := math.Atan2(y, x) * 180.0 / math.Pi
	return math.Mod(bearing+360.0, 360.0)
}

// CellKey maps a point to its H3 cell id, the canonical location key used
// for novelty comparisons. Falls back to truncated coordinates if the cell
// cannot be computed.
func CellKey(point Point) string {
	cell, err := h3.LatLngToCell(h3.NewLatLng(point.Latitude, point.Longitude), locationCellResolution)
	if err != nil {
		return fmt.Sprintf("%.3f,%.3f", point.Latitude, point.Longitude)
	}
	return cell.String()
}
