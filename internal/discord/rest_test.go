package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSendsBotAuthorization(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/channels/c1", r.URL.Path)
		json.NewEncoder(w).Encode(Channel{ID: "c1", Type: ChannelTypeGuildText, Name: "general"})
	}))
	defer server.Close()

	client := NewClient("token123").WithBaseURL(server.URL)
	ch, err := client.Channel(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Bot token123", gotAuth)
	assert.Equal(t, "c1", ch.ID)
	assert.True(t, ch.TextCapable())
}

func TestChannelNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{"code": 10003, "message": "Unknown Channel"})
	}))
	defer server.Close()

	client := NewClient("token").WithBaseURL(server.URL)
	_, err := client.Channel(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUnknownChannel)
}

func TestChannelServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]any{"code": 0, "message": "boom"})
	}))
	defer server.Close()

	client := NewClient("token").WithBaseURL(server.URL)
	_, err := client.Channel(context.Background(), "c1")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.NotErrorIs(t, err, ErrUnknownChannel)
}

func TestCreateMessageReplyReference(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/channels/c1/messages", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Message{ID: "m1", ChannelID: "c1", Content: "hi"})
	}))
	defer server.Close()

	client := NewClient("token").WithBaseURL(server.URL)
	msg, err := client.CreateMessage(context.Background(), "c1", "hi", "m0")
	require.NoError(t, err)

	assert.Equal(t, "m1", msg.ID)
	assert.Equal(t, "hi", gotBody["content"])
	ref, ok := gotBody["message_reference"].(map[string]any)
	require.True(t, ok, "reply must carry a message_reference")
	assert.Equal(t, "m0", ref["message_id"])
}

func TestCreateMessageWithoutReplyOmitsReference(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Message{ID: "m1", ChannelID: "c1", Content: "hi"})
	}))
	defer server.Close()

	client := NewClient("token").WithBaseURL(server.URL)
	_, err := client.CreateMessage(context.Background(), "c1", "hi", "")
	require.NoError(t, err)

	_, present := gotBody["message_reference"]
	assert.False(t, present)
}

func TestChannelMessagesQueryParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "m5", q.Get("before"))
		assert.Equal(t, "25", q.Get("limit"))
		json.NewEncoder(w).Encode([]*Message{{ID: "m4", ChannelID: "c1"}})
	}))
	defer server.Close()

	client := NewClient("token").WithBaseURL(server.URL)
	msgs, err := client.ChannelMessages(context.Background(), "c1", "m5", "", 25)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "m4", msgs[0].ID)
}

func TestTextCapableChannelTypes(t *testing.T) {
	assert.True(t, (&Channel{Type: ChannelTypeGuildText}).TextCapable())
	assert.True(t, (&Channel{Type: ChannelTypeDM}).TextCapable())
	assert.True(t, (&Channel{Type: ChannelTypePublicThread}).TextCapable())
	assert.False(t, (&Channel{Type: 2}).TextCapable())  // voice
	assert.False(t, (&Channel{Type: 13}).TextCapable()) // stage
}
