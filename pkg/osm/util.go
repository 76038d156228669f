package osm

import (
	"github.com/carbonsense/commutemcp/pkg/geo"
)

// Base URLs for the public OSM service instances. Variables so deployments
// can point at self-hosted instances before serving begins.
var (
	NominatimBaseURL = "https://nominatim.openstreetmap.org"
	OSRMBaseURL      = "https://router.project-osrm.org"
)

// ValidateCoords validates latitude and longitude values.
func ValidateCoords(lat, lon float64) error {
	return geo.ValidateCoords(lat, lon)
}
