// Package rest talks to the inventory REST API.
//
// Gateway is the single HTTP entry point: it attaches the bearer token,
// throttles requests, decodes errors into *domain.RemoteError and raises the
// unauthorized signal on 401/403. Client maps the typed driven.InventoryAPI
// operations onto the API's resource paths.
package rest
