package salapix_client

import (
	"strings"

	"github.com/mcdev12/salapix/go/clients"
)

// SalapixClient talks to the room REST API.
type SalapixClient struct {
	*clients.BaseClient
	userID string
}

// NewSalapixClient creates a client for baseURL. userID is the local user,
// used to tell whether a fetched room already counts them as a participant.
func NewSalapixClient(baseURL, token, userID string) *SalapixClient {
	client := &SalapixClient{
		BaseClient: clients.NewBaseClient(baseURL),
		userID:     userID,
	}

	client.SetHeader(ContentTypeHeader, JSONContentType)
	client.SetHeader(AcceptHeader, JSONContentType)
	if token = strings.TrimSpace(token); token != "" {
		client.SetHeader(AuthorizationHeader, "Bearer "+token)
	}

	return client
}
