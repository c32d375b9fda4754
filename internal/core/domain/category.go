package domain

import "strings"

// Category is a product type ("rubro").
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"nombre"`
}

// CategoryPayload is the body of category create and update requests.
type CategoryPayload struct {
	Name string `json:"nombre"`
}

// Validate checks the fields the server requires.
func (c CategoryPayload) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return wrapInvalid("category name is required")
	}
	return nil
}
