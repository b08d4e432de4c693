package ingest

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/0xtito/network-state-bot/internal/discord"
	"github.com/0xtito/network-state-bot/internal/mocks"
	"github.com/0xtito/network-state-bot/internal/repositories"
)

func testEvent(id string) *discord.Message {
	return &discord.Message{
		ID:        id,
		ChannelID: "c1",
		Author:    json.RawMessage(`{"id":"u1","username":"Bob"}`),
		Content:   "hi",
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestListenerStoresRecordAndRaw(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	listener := NewListener(repo, nil, 8)

	stored := make(chan struct{})
	repo.On("InsertMessage", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("InsertRaw", mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		close(stored)
	}).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	listener.Enqueue(testEvent("1"))

	select {
	case <-stored:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for both writes")
	}
	repo.AssertExpectations(t)
}

func TestListenerReportsStoreFailure(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	listener := NewListener(repo, nil, 8)

	repo.On("InsertMessage", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	listener.Enqueue(testEvent("1"))

	select {
	case err := <-listener.Errors():
		require.ErrorIs(t, err, assert.AnError)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
	// The raw write never happens when the normalized write fails.
	repo.AssertNotCalled(t, "InsertRaw", mock.Anything, mock.Anything)
}

func TestListenerRawFailureKeepsRecord(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	listener := NewListener(repo, nil, 8)

	repo.On("InsertMessage", mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("InsertRaw", mock.Anything, mock.Anything).Return(assert.AnError).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	listener.Enqueue(testEvent("1"))

	select {
	case err := <-listener.Errors():
		require.ErrorIs(t, err, assert.AnError)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
	repo.AssertExpectations(t)
}

func TestListenerSkipsDuplicate(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	listener := NewListener(repo, nil, 8)

	done := make(chan struct{})
	repo.On("InsertMessage", mock.Anything, mock.Anything).Return(repositories.ErrDuplicateMessage).Run(func(mock.Arguments) {
		close(done)
	}).Once()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	listener.Enqueue(testEvent("1"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for insert")
	}

	// A duplicate is not an ingestion failure and must not surface.
	select {
	case err := <-listener.Errors():
		t.Fatalf("unexpected error for duplicate: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	repo.AssertNotCalled(t, "InsertRaw", mock.Anything, mock.Anything)
}

func TestListenerReportsNormalizationFailure(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	listener := NewListener(repo, nil, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go listener.Run(ctx)

	event := testEvent("")
	listener.Enqueue(event)

	select {
	case err := <-listener.Errors():
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for error")
	}
	repo.AssertNotCalled(t, "InsertMessage", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "InsertRaw", mock.Anything, mock.Anything)
}

func TestListenerDropsWhenQueueFull(t *testing.T) {
	repo := new(mocks.MessageRepositoryMock)
	listener := NewListener(repo, nil, 1)

	// No consumer running: the second enqueue must not block.
	listener.Enqueue(testEvent("1"))
	done := make(chan struct{})
	go func() {
		listener.Enqueue(testEvent("2"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
}
