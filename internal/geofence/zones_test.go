package geofence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fraudguard/riskengine/pkg/common"
)

func TestDistance_IdenticalPoints(t *testing.T) {
	p := Point{Latitude: 19.076, Longitude: 72.8777} // Mumbai
	assert.Equal(t, 0.0, Distance(p, p))
}

func TestDistance_AntipodalPoints(t *testing.T) {
	a := Point{Latitude: 0, Longitude: 0}
	b := Point{Latitude: 0, Longitude: 180}

	// Half the Earth's circumference, ~20015 km
	assert.InDelta(t, 20015.0, Distance(a, b), 10.0)
}

func TestDistance_KnownCities(t *testing.T) {
	mumbai := Point{Latitude: 19.076, Longitude: 72.8777}
	delhi := Point{Latitude: 28.7041, Longitude: 77.1025}

	d := Distance(mumbai, delhi)
	assert.InDelta(t, 1150.0, d, 30.0)
}

func TestDistance_Symmetric(t *testing.T) {
	a := Point{Latitude: 40.7128, Longitude: -74.0060}
	b := Point{Latitude: 51.5074, Longitude: -0.1278}

	assert.InDelta(t, Distance(a, b), Distance(b, a), 0.0001)
}

func TestBearing_DueNorth(t *testing.T) {
	a := Point{Latitude: 10, Longitude: 20}
	b := Point{Latitude: 11, Longitude: 20}

	assert.InDelta(t, 0.0, Bearing(a, b), 0.5)
}

func TestBearing_DueEast(t *testing.T) {
	a := Point{Latitude: 0, Longitude: 20}
	b := Point{Latitude: 0, Longitude: 21}

	assert.InDelta(t, 90.0, Bearing(a, b), 0.5)
}

func TestAddZone_Validation(t *testing.T) {
	index := NewIndex()

	tests := []struct {
		name string
		zone Zone
	}{
		{
			name: "missing id",
			zone: Zone{Name: "no id", RadiusKm: 1, Type: ZoneTypeSafe},
		},
		{
			name: "zero radius",
			zone: Zone{ID: "z1", Name: "flat", RadiusKm: 0, Type: ZoneTypeSafe},
		},
		{
			name: "negative radius",
			zone: Zone{ID: "z2", Name: "inverted", RadiusKm: -5, Type: ZoneTypeSafe},
		},
		{
			name: "unknown type",
			zone: Zone{ID: "z3", Name: "odd", RadiusKm: 1, Type: "volcanic"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := index.AddZone(tt.zone)
			require.Error(t, err)
			assert.True(t, common.IsCode(err, common.CodeValidation))
		})
	}
}

func TestAddZone_DuplicateID(t *testing.T) {
	index := NewIndex()
	zone := Zone{ID: "dup", Name: "first", Center: Point{}, RadiusKm: 1, Type: ZoneTypeSafe}

	require.NoError(t, index.AddZone(zone))
	err := index.AddZone(zone)
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeValidation))
}

func TestRemoveZone_NotFound(t *testing.T) {
	index := NewIndex()

	err := index.RemoveZone("missing")
	require.Error(t, err)
	assert.True(t, common.IsCode(err, common.CodeNotFound))
}

func TestRemoveZone_ThenNotContained(t *testing.T) {
	index := NewIndex()
	center := Point{Latitude: 19.076, Longitude: 72.8777}
	require.NoError(t, index.AddZone(Zone{ID: "m", Name: "Mumbai", Center: center, RadiusKm: 50, Type: ZoneTypeBusiness}))

	require.NotNil(t, index.ContainingZone(center))
	require.NoError(t, index.RemoveZone("m"))
	assert.Nil(t, index.ContainingZone(center))
}

func TestContainingZone_FirstRegisteredWins(t *testing.T) {
	index := NewIndex()
	center := Point{Latitude: 48.8566, Longitude: 2.3522}

	require.NoError(t, index.AddZone(Zone{ID: "outer", Name: "outer", Center: center, RadiusKm: 100, Type: ZoneTypeSafe}))
	require.NoError(t, index.AddZone(Zone{ID: "inner", Name: "inner", Center: center, RadiusKm: 10, Type: ZoneTypeHighRisk}))

	zone := index.ContainingZone(center)
	require.NotNil(t, zone)
	assert.Equal(t, "outer", zone.ID)
}

func TestContainingZone_RespectsRadius(t *testing.T) {
	index := NewIndex()
	center := Point{Latitude: 0, Longitude: 0}
	require.NoError(t, index.AddZone(Zone{ID: "z", Name: "origin", Center: center, RadiusKm: 100, Type: ZoneTypeSafe}))

	inside := Point{Latitude: 0.5, Longitude: 0} // ~55 km
	outside := Point{Latitude: 2, Longitude: 0}  // ~222 km

	assert.NotNil(t, index.ContainingZone(inside))
	assert.Nil(t, index.ContainingZone(outside))
}

func TestCellKey_StableForNearbyPoints(t *testing.T) {
	a := Point{Latitude: 19.0760, Longitude: 72.8777}
	b := Point{Latitude: 19.0761, Longitude: 72.8778}

	assert.Equal(t, CellKey(a), CellKey(b))
}

func TestCellKey_DiffersAcrossCities(t *testing.T) {
	mumbai := Point{Latitude: 19.076, Longitude: 72.8777}
	bucharest := Point{Latitude: 44.4268, Longitude: 26.1025}

	assert.NotEqual(t, CellKey(mumbai), CellKey(bucharest))
}
