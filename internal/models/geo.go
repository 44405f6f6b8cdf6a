package models

// GeoPoint is a WGS84 position as reported with a login or logout.
type GeoPoint struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Accuracy float64 `json:"accuracy,omitempty"`
}
