package staging

import (
	"sort"

	models "github.com/ordermart/ordermart/pkg/db/models/staging"
	"github.com/ordermart/ordermart/pkg/utils"
)

// GeoSample is one raw coordinate sample of a postal code prefix.
type GeoSample struct {
	ZipCodePrefix string
	Lat, Lng      float64
	City, State   string
}

type geoAccumulator struct {
	latSum, lngSum float64
	n              int
	cities         map[string]int
	states         map[string]int
}

// CollapseGeolocation reduces samples to one record per prefix: mean coordinates
// and the most frequent city and state. The result is sorted by prefix.
func CollapseGeolocation(samples []GeoSample) []models.Geolocation {
	acc := make(map[string]*geoAccumulator)
	for _, s := range samples {
		a, ok := acc[s.ZipCodePrefix]
		if !ok {
			a = &geoAccumulator{cities: map[string]int{}, states: map[string]int{}}
			acc[s.ZipCodePrefix] = a
		}
		a.latSum += s.Lat
		a.lngSum += s.Lng
		a.n++
		if s.City != "" {
			a.cities[s.City]++
		}
		if s.State != "" {
			a.states[s.State]++
		}
	}

	out := make([]models.Geolocation, 0, len(acc))
	for prefix, a := range acc {
		city, _ := utils.Mode(a.cities)
		state, _ := utils.Mode(a.states)
		out = append(out, models.Geolocation{
			ZipCodePrefix: prefix,
			Lat:           a.latSum / float64(a.n),
			Lng:           a.lngSum / float64(a.n),
			City:          city,
			State:         state,
			Samples:       int64(a.n),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZipCodePrefix < out[j].ZipCodePrefix })
	return out
}
