package dto

// DetectResponse is the JSON answer to a single-image detection request.
type DetectResponse struct {
	Detected    bool   `json:"detected"`
	Message     string `json:"message"`
	OutputImage string `json:"output_image,omitempty"`
}

// ErrorResponse is the JSON body of every API error.
type ErrorResponse struct {
	Error string `json:"error"`
}
