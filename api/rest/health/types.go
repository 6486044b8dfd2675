package health

type PingResponse struct {
	Message string `json:"message"`
}

type VersionResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}
