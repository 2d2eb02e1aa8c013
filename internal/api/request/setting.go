package request

// UpdateSettingRequest represents the request body for storing a system
// setting. Encrypt controls whether the value is stored as a fernet token.
type UpdateSettingRequest struct {
	Value   string `json:"value"`
	Encrypt bool   `json:"encrypt"`
}
