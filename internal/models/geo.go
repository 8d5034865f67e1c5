package models

const UnknownCountryCode = "XX"

// GeoInfo is the geolocation snapshot of an IP address.
type GeoInfo struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

// UnknownGeo is substituted whenever a lookup fails or times out.
func UnknownGeo() GeoInfo {
	return GeoInfo{
		Country:     "Unknown",
		CountryCode: UnknownCountryCode,
		Region:      "Unknown",
		City:        "Unknown",
		Timezone:    "Unknown",
		ISP:         "Unknown",
		Org:         "Unknown",
		AS:          "Unknown",
	}
}

// LocalGeo describes loopback and empty addresses.
func LocalGeo() GeoInfo {
	g := UnknownGeo()
	g.City = "Localhost"
	g.ISP = "Local"
	g.Org = "Local"
	g.AS = "Local"
	return g
}

// IsKnown reports whether the snapshot carries a real country.
func (g GeoInfo) IsKnown() bool {
	return g.CountryCode != "" && g.CountryCode != UnknownCountryCode
}
