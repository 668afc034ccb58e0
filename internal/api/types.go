package api

// HealthzResponse is the GET /healthz response.
type HealthzResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	QueueDepth    int    `json:"queue_depth"`
}

// AddrsResponse is the GET /ap/addresses response.
type AddrsResponse struct {
	IP      string `json:"ip"`
	Gateway string `json:"gateway"`
	Netmask string `json:"netmask"`
}

// SetAddrsRequest is the PUT /ap/addresses body. Gateway and netmask
// are optional; the module picks defaults when omitted.
type SetAddrsRequest struct {
	IP      string `json:"ip"`
	Gateway string `json:"gateway,omitempty"`
	Netmask string `json:"netmask,omitempty"`
}

// MACResponse is the GET /ap/mac response.
type MACResponse struct {
	MAC string `json:"mac"`
}

// SetMACRequest is the PUT /ap/mac body.
type SetMACRequest struct {
	MAC string `json:"mac"`
}

// ConfigureRequest is the PUT /ap/config body.
type ConfigureRequest struct {
	SSID        string `json:"ssid"`
	Passphrase  string `json:"passphrase"`
	Channel     uint8  `json:"channel"`
	Encryption  string `json:"encryption"`
	MaxStations uint8  `json:"max_stations"`
	Hidden      bool   `json:"hidden"`
}

// StationJSON is one connected station.
type StationJSON struct {
	IP  string `json:"ip"`
	MAC string `json:"mac"`
}

// StationsResponse is the GET /stations response.
type StationsResponse struct {
	Stations []StationJSON `json:"stations"`
	Found    int           `json:"found"`
}

// ErrorResponse is the error envelope for all failures.
type ErrorResponse struct {
	Error string `json:"error"`
}
