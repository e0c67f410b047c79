package dto

type HealthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}
