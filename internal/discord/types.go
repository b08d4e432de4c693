package discord

import (
	"encoding/json"
	"time"
)

// Gateway intents requested at identify time.
const (
	IntentGuilds         = 1 << 0
	IntentGuildMessages  = 1 << 9
	IntentMessageContent = 1 << 15
)

// Channel types we care about. Anything not text-capable is rejected by the
// send path.
const (
	ChannelTypeGuildText          = 0
	ChannelTypeDM                 = 1
	ChannelTypeGuildAnnouncement  = 5
	ChannelTypeAnnouncementThread = 10
	ChannelTypePublicThread       = 11
	ChannelTypePrivateThread      = 12
)

// Channel is the subset of the Discord channel object the bridge reads.
type Channel struct {
	ID   string `json:"id"`
	Type int    `json:"type"`
	Name string `json:"name,omitempty"`
}

// TextCapable reports whether the bot can post messages to the channel.
func (c *Channel) TextCapable() bool {
	switch c.Type {
	case ChannelTypeGuildText, ChannelTypeDM, ChannelTypeGuildAnnouncement,
		ChannelTypeAnnouncementThread, ChannelTypePublicThread, ChannelTypePrivateThread:
		return true
	}
	return false
}

// Message mirrors the Discord message object as delivered on the wire.
// Scalars are typed; loosely-shaped fields stay raw JSON so downstream
// storage preserves them byte-for-byte.
type Message struct {
	ID                string          `json:"id"`
	ChannelID         string          `json:"channel_id"`
	Author            json.RawMessage `json:"author"`
	Content           string          `json:"content"`
	Timestamp         time.Time       `json:"timestamp"`
	EditedTimestamp   *time.Time      `json:"edited_timestamp"`
	Mentions          json.RawMessage `json:"mentions"`
	Attachments       json.RawMessage `json:"attachments"`
	Embeds            json.RawMessage `json:"embeds"`
	Reactions         json.RawMessage `json:"reactions"`
	Pinned            bool            `json:"pinned"`
	Type              int             `json:"type"`
	Flags             *int            `json:"flags"`
	MessageReference  json.RawMessage `json:"message_reference"`
	ReferencedMessage json.RawMessage `json:"referenced_message"`
	Thread            json.RawMessage `json:"thread"`
	Poll              json.RawMessage `json:"poll"`
}

// User is the subset of the Discord user object used for logging the
// session identity at READY.
type User struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	Discriminator string `json:"discriminator"`
}

// Tag renders the classic name#discriminator form.
func (u *User) Tag() string {
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}

// messageReference is the payload fragment attached when sending a reply.
type messageReference struct {
	MessageID string `json:"message_id"`
}

// createMessagePayload is the body of POST /channels/{id}/messages.
type createMessagePayload struct {
	Content          string            `json:"content"`
	MessageReference *messageReference `json:"message_reference,omitempty"`
}
