package salapix_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/mcdev12/salapix/go/internal/models"
)

type ChatMessage struct {
	ID        models.FlexID   `json:"id"`
	Mensagem  string          `json:"mensagem"`
	UserID    models.FlexID   `json:"user_id"`
	User      *User           `json:"user"`
	UserNome  string          `json:"user_nome"`
	Name      string          `json:"name"`
	CreatedAt models.FlexTime `json:"created_at"`
}

type ChatHistoryResponse struct {
	Data []ChatMessage `json:"data"`
}

type SendMessageRequest struct {
	SalaID   string `json:"sala_id"`
	Mensagem string `json:"mensagem"`
}

func (m ChatMessage) toModel(provenance models.MessageProvenance) models.ChatMessage {
	authorID, authorName := m.UserID, m.UserNome
	if m.User != nil {
		if m.User.ID != "" {
			authorID = m.User.ID
		}
		if m.User.Name != "" {
			authorName = m.User.Name
		}
	}
	if authorName == "" {
		authorName = m.Name
	}
	return models.ChatMessage{
		ID:         m.ID.String(),
		AuthorID:   authorID.String(),
		AuthorName: authorName,
		Body:       m.Mensagem,
		CreatedAt:  m.CreatedAt.Time,
		Provenance: provenance,
	}
}

// GetChatHistory fetches the room transcript in chronological order. The API
// returns the newest message first.
func (c *SalapixClient) GetChatHistory(ctx context.Context, roomID string) ([]models.ChatMessage, error) {
	endpoint := fmt.Sprintf(ChatEndpoint, url.PathEscape(roomID))
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat history for room %s: %w", roomID, err)
	}

	var response ChatHistoryResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chat history: %w, raw response: %s", err, string(body))
	}

	messages := make([]models.ChatMessage, 0, len(response.Data))
	for i := len(response.Data) - 1; i >= 0; i-- {
		messages = append(messages, response.Data[i].toModel(models.MessageHistorical))
	}
	return messages, nil
}

// SendMessage posts a chat message and returns the server's echo.
func (c *SalapixClient) SendMessage(ctx context.Context, roomID, text string) (*models.ChatMessage, error) {
	payload, err := json.Marshal(SendMessageRequest{SalaID: roomID, Mensagem: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	endpoint := fmt.Sprintf(ChatEndpoint, url.PathEscape(roomID))
	body, err := c.Post(ctx, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to send message to room %s: %w", roomID, err)
	}

	var echo ChatMessage
	if err := json.Unmarshal(body, &echo); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message echo: %w, raw response: %s", err, string(body))
	}
	if echo.ID == "" {
		return nil, fmt.Errorf("message echo without id, raw response: %s", string(body))
	}

	msg := echo.toModel(models.MessageLocal)
	return &msg, nil
}
