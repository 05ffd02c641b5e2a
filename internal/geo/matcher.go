package geo

import (
	"sort"
	"strings"

	"quotes/internal/models"
)

const DefaultRadiusMiles = 5.0

type Match struct {
	Supplier models.Supplier
	// nil for national requests
	DistanceMiles *float64
	Details       models.MatchingDetails
}

type Matcher struct {
	RadiusMiles float64
}

func NewMatcher(radiusMiles float64) Matcher {
	if radiusMiles <= 0 {
		radiusMiles = DefaultRadiusMiles
	}
	return Matcher{RadiusMiles: radiusMiles}
}

// Match returns the candidates eligible for the request, nearest first.
// It has no side effects and does not modify pool.
func (m Matcher) Match(req models.QuoteRequest, pool []models.Supplier) []Match {
	var matches []Match

	for _, s := range pool {
		if !s.Eligible() || !coversCategory(s, req.PartCategory) {
			continue
		}

		details := models.MatchingDetails{
			RequestType: req.RequestType,
			Category:    req.PartCategory,
		}

		if req.RequestType == models.RequestNational {
			matches = append(matches, Match{Supplier: s, Details: details})
			continue
		}

		if req.Location == nil || s.Location == nil {
			continue
		}
		d := Distance(*req.Location, *s.Location)
		if d > m.RadiusMiles {
			continue
		}
		details.RadiusMiles = m.RadiusMiles
		details.DistanceMiles = &d
		matches = append(matches, Match{Supplier: s, DistanceMiles: &d, Details: details})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		di, dj := matches[i].DistanceMiles, matches[j].DistanceMiles
		if di != nil && dj != nil && *di != *dj {
			return *di < *dj
		}
		return matches[i].Supplier.Id < matches[j].Supplier.Id
	})

	return matches
}

// coversCategory: suppliers without category tags take every category.
func coversCategory(s models.Supplier, category string) bool {
	if category == "" || len(s.Categories) == 0 {
		return true
	}
	for _, c := range s.Categories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}
