package models

// Location is a job site. Coordinates are optional and only used for map pins.
type Location struct {
	Address  string  `bson:"address" json:"address" validate:"required"`
	Postcode string  `bson:"postcode,omitempty" json:"postcode,omitempty"`
	Lat      float64 `bson:"lat,omitempty" json:"lat,omitempty" validate:"omitempty,latitude"`
	Lon      float64 `bson:"lon,omitempty" json:"lon,omitempty" validate:"omitempty,longitude"`
}
