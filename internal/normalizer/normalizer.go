// Package normalizer converts gateway message payloads into the two shapes
// the store persists: the normalized ChatMessage row and the raw audit blob.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/0xtito/network-state-bot/internal/discord"
	"github.com/0xtito/network-state-bot/internal/models"
)

// ErrIncompleteMessage marks a structurally incomplete gateway event.
var ErrIncompleteMessage = errors.New("incomplete message event")

// Normalize maps one MESSAGE_CREATE payload to a ChatMessage plus its raw
// audit record. It is deterministic and performs no I/O. Scalars are copied
// verbatim, loosely-shaped fields are preserved byte-for-byte as the
// platform serialized them, and referencedMessage is always null on output
// (a known limitation carried over deliberately). The raw blob is the full
// serialization of the ChatMessage just built, not of the gateway event.
func Normalize(m *discord.Message) (models.ChatMessage, models.ChatMessageRaw, error) {
	if m == nil {
		return models.ChatMessage{}, models.ChatMessageRaw{}, fmt.Errorf("%w: nil event", ErrIncompleteMessage)
	}
	if m.ID == "" {
		return models.ChatMessage{}, models.ChatMessageRaw{}, fmt.Errorf("%w: missing id", ErrIncompleteMessage)
	}
	if m.ChannelID == "" {
		return models.ChatMessage{}, models.ChatMessageRaw{}, fmt.Errorf("%w: missing channel id (message %s)", ErrIncompleteMessage, m.ID)
	}
	if m.Timestamp.IsZero() {
		return models.ChatMessage{}, models.ChatMessageRaw{}, fmt.Errorf("%w: missing timestamp (message %s)", ErrIncompleteMessage, m.ID)
	}
	if len(m.Author) == 0 {
		return models.ChatMessage{}, models.ChatMessageRaw{}, fmt.Errorf("%w: missing author (message %s)", ErrIncompleteMessage, m.ID)
	}

	msg := models.ChatMessage{
		ID:               m.ID,
		ChannelID:        m.ChannelID,
		Author:           opaque(m.Author),
		Content:          m.Content,
		Timestamp:        m.Timestamp,
		EditedTimestamp:  m.EditedTimestamp,
		Mentions:         opaque(m.Mentions),
		Attachments:      opaque(m.Attachments),
		Embeds:           opaque(m.Embeds),
		Reactions:        opaque(m.Reactions),
		Pinned:           m.Pinned,
		Type:             m.Type,
		Flags:            m.Flags,
		MessageReference: opaque(m.MessageReference),
		// Never populated, regardless of what the event carried.
		ReferencedMessage: nil,
		Thread:            opaque(m.Thread),
		Poll:              opaque(m.Poll),
	}

	blob, err := json.Marshal(msg)
	if err != nil {
		return models.ChatMessage{}, models.ChatMessageRaw{}, fmt.Errorf("serialize raw record: %w", err)
	}

	return msg, models.ChatMessageRaw{Blob: blob}, nil
}

// opaque passes a raw platform field through unchanged, mapping an absent
// field to SQL NULL rather than empty bytes.
func opaque(raw json.RawMessage) []byte {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
