package salapix_client

const (
	// API Endpoints
	RoomEndpoint = "sala/%s"
	ChatEndpoint = "sala/%s/chat"

	// Headers
	AuthorizationHeader = "Authorization"
	ContentTypeHeader   = "Content-Type"
	AcceptHeader        = "Accept"
	JSONContentType     = "application/json"
)
