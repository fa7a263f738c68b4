package huggingface

// apiError is the JSON body returned with non-200 responses.
type apiError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time,omitempty"` // Seconds until a loading model is ready
}
