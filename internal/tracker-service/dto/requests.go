package dto

// TrackRequest é o corpo de POST /v1/wagers/track
type TrackRequest struct {
	UserID      string `json:"user_id"`
	ImageURL    string `json:"image_url"`
	ContextHint string `json:"context_hint,omitempty"`
}

// IngestRequest traz a saída bruta do modelo já obtida pelo cliente (POST /v1/wagers/ingest)
type IngestRequest struct {
	UserID      string `json:"user_id"`
	ImageURL    string `json:"image_url,omitempty"`
	RawOutput   string `json:"raw_output"`
	ContextHint string `json:"context_hint,omitempty"`
}

type StatusRequest struct {
	Status string `json:"status"` // open | won | lost | removed
}
