package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// ChatMessage is the normalized row stored for every ingested Discord
// message. Scalar fields are typed; everything Discord models loosely
// (author, embeds, reactions, ...) is kept as an opaque JSON column so the
// stored bytes match whatever shape the platform delivered.
type ChatMessage struct {
	ID                string         `db:"id" json:"id"`
	ChannelID         string         `db:"channel_id" json:"channelId"`
	Author            types.JSONText `db:"author" json:"author"`
	Content           string         `db:"content" json:"content"`
	Timestamp         time.Time      `db:"timestamp" json:"timestamp"`
	EditedTimestamp   *time.Time     `db:"edited_timestamp" json:"editedTimestamp"`
	Mentions          types.JSONText `db:"mentions" json:"mentions"`
	Attachments       types.JSONText `db:"attachments" json:"attachments"`
	Embeds            types.JSONText `db:"embeds" json:"embeds"`
	Reactions         types.JSONText `db:"reactions" json:"reactions"`
	Pinned            bool           `db:"pinned" json:"pinned"`
	Type              int            `db:"type" json:"type"`
	Flags             *int           `db:"flags" json:"flags"`
	MessageReference  types.JSONText `db:"message_reference" json:"messageReference"`
	ReferencedMessage types.JSONText `db:"referenced_message" json:"referencedMessage"`
	Thread            types.JSONText `db:"thread" json:"thread"`
	Poll              types.JSONText `db:"poll" json:"poll"`
}

// ChatMessageRaw is the audit row paired with a ChatMessage: the full
// serialization of the normalized record, written once and never updated.
// There is intentionally no foreign key back to ChatMessage.
type ChatMessageRaw struct {
	Blob types.JSONText `db:"blob" json:"blob"`
}

// Author is the strict wire shape projected out of the stored author blob.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// MessageResponse is the API view of a ChatMessage. It is derived on demand
// and never persisted.
type MessageResponse struct {
	ID        string `json:"id"`
	ChannelID string `json:"channelId"`
	Content   string `json:"content"`
	Author    Author `json:"author"`
	Timestamp string `json:"timestamp"`
}

// SendMessageResponse is returned after the bot posts a message.
type SendMessageResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}
