package geo

import (
	"testing"

	"quotes/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supplier(id string, loc *models.Location) models.Supplier {
	return models.Supplier{
		Id:       id,
		Name:     "Supplier " + id,
		Status:   models.SupplierApproved,
		Active:   true,
		Location: loc,
	}
}

func at(lat, lon float64) *models.Location {
	return &models.Location{Latitude: lat, Longitude: lon}
}

func localRequest(lat, lon float64) models.QuoteRequest {
	return models.QuoteRequest{
		Id:          "r1",
		RequestType: models.RequestLocal,
		Location:    at(lat, lon),
	}
}

func TestDistance(t *testing.T) {
	// London -> Cambridge is roughly 50 miles
	d := Distance(models.Location{Latitude: 51.5074, Longitude: -0.1278}, models.Location{Latitude: 52.2053, Longitude: 0.1218})
	assert.InDelta(t, 49.5, d, 1.0)

	assert.Zero(t, Distance(*at(51.5, -0.12), *at(51.5, -0.12)))

	// symmetric
	a, b := *at(40.7128, -74.0060), *at(34.0522, -118.2437)
	assert.InDelta(t, Distance(a, b), Distance(b, a), 1e-9)
	assert.InDelta(t, 2445, Distance(a, b), 10)
}

func TestMatchLocalRadius(t *testing.T) {
	m := NewMatcher(5)
	near := supplier("near", at(51.51, -0.13))
	far := supplier("far", at(52.20, 0.14))

	matches := m.Match(localRequest(51.50, -0.12), []models.Supplier{near, far})

	require.Len(t, matches, 1)
	assert.Equal(t, "near", matches[0].Supplier.Id)
	require.NotNil(t, matches[0].DistanceMiles)
	assert.Less(t, *matches[0].DistanceMiles, 1.0)
	assert.Equal(t, 5.0, matches[0].Details.RadiusMiles)
	assert.Equal(t, models.RequestLocal, matches[0].Details.RequestType)
}

func TestMatchExcludesIneligible(t *testing.T) {
	m := NewMatcher(5)

	noCoords := supplier("no-coords", nil)
	pending := supplier("pending", at(51.50, -0.12))
	pending.Status = models.SupplierPending
	inactive := supplier("inactive", at(51.50, -0.12))
	inactive.Active = false
	suspended := supplier("suspended", at(51.50, -0.12))
	suspended.Suspended = true
	ok := supplier("ok", at(51.50, -0.12))

	matches := m.Match(localRequest(51.50, -0.12), []models.Supplier{noCoords, pending, inactive, suspended, ok})

	require.Len(t, matches, 1)
	assert.Equal(t, "ok", matches[0].Supplier.Id)
}

func TestMatchNationalIgnoresDistance(t *testing.T) {
	m := NewMatcher(5)
	req := models.QuoteRequest{Id: "r2", RequestType: models.RequestNational}

	rejected := supplier("rejected", at(55.95, -3.19))
	rejected.Status = models.SupplierRejected

	matches := m.Match(req, []models.Supplier{
		supplier("b-edinburgh", at(55.95, -3.19)),
		supplier("a-nowhere", nil),
		rejected,
	})

	require.Len(t, matches, 2)
	assert.Equal(t, "a-nowhere", matches[0].Supplier.Id)
	assert.Equal(t, "b-edinburgh", matches[1].Supplier.Id)
	for _, match := range matches {
		assert.Nil(t, match.DistanceMiles)
		assert.Equal(t, models.RequestNational, match.Details.RequestType)
	}
}

func TestMatchLocalWithoutRequestLocation(t *testing.T) {
	m := NewMatcher(5)
	req := models.QuoteRequest{Id: "r3", RequestType: models.RequestLocal}

	assert.Empty(t, m.Match(req, []models.Supplier{supplier("s", at(51.5, -0.12))}))
}

func TestMatchSortedByDistance(t *testing.T) {
	m := NewMatcher(10)
	matches := m.Match(localRequest(51.50, -0.12), []models.Supplier{
		supplier("c", at(51.55, -0.12)),
		supplier("a", at(51.50, -0.12)),
		supplier("b", at(51.52, -0.12)),
	})

	require.Len(t, matches, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{matches[0].Supplier.Id, matches[1].Supplier.Id, matches[2].Supplier.Id})
}

func TestMatchCategory(t *testing.T) {
	m := NewMatcher(5)
	req := localRequest(51.50, -0.12)
	req.PartCategory = "Brakes"

	brakes := supplier("brakes", at(51.50, -0.12))
	brakes.Categories = []string{"engine", "brakes"}
	tyres := supplier("tyres", at(51.50, -0.12))
	tyres.Categories = []string{"tyres"}
	anything := supplier("anything", at(51.50, -0.12))

	matches := m.Match(req, []models.Supplier{brakes, tyres, anything})

	ids := make([]string, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, match.Supplier.Id)
		assert.Equal(t, "Brakes", match.Details.Category)
	}
	assert.ElementsMatch(t, []string{"brakes", "anything"}, ids)
}

func TestNewMatcherDefaultsRadius(t *testing.T) {
	assert.Equal(t, DefaultRadiusMiles, NewMatcher(0).RadiusMiles)
	assert.Equal(t, 12.5, NewMatcher(12.5).RadiusMiles)
}
