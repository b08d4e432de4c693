package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/0xtito/network-state-bot/internal/discord"
	"github.com/0xtito/network-state-bot/internal/models"
	"github.com/0xtito/network-state-bot/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) InsertMessage(ctx context.Context, msg models.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MessageRepositoryMock) InsertRaw(ctx context.Context, raw models.ChatMessageRaw) error {
	args := m.Called(ctx, raw)
	return args.Error(0)
}

func (m *MessageRepositoryMock) QueryMessages(ctx context.Context, start, end time.Time, channelID string, limit int) ([]models.ChatMessage, error) {
	args := m.Called(ctx, start, end, channelID, limit)
	var msgs []models.ChatMessage
	if val := args.Get(0); val != nil {
		msgs = val.([]models.ChatMessage)
	}
	return msgs, args.Error(1)
}

type ChannelClientMock struct {
	mock.Mock
}

func (m *ChannelClientMock) Channel(ctx context.Context, channelID string) (*discord.Channel, error) {
	args := m.Called(ctx, channelID)
	var ch *discord.Channel
	if val := args.Get(0); val != nil {
		ch = val.(*discord.Channel)
	}
	return ch, args.Error(1)
}

func (m *ChannelClientMock) CreateMessage(ctx context.Context, channelID, content, replyToID string) (*discord.Message, error) {
	args := m.Called(ctx, channelID, content, replyToID)
	var msg *discord.Message
	if val := args.Get(0); val != nil {
		msg = val.(*discord.Message)
	}
	return msg, args.Error(1)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ interface {
	Channel(context.Context, string) (*discord.Channel, error)
	CreateMessage(context.Context, string, string, string) (*discord.Message, error)
} = (*ChannelClientMock)(nil)
