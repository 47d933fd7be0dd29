package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Azure/go-amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReceiver struct {
	calls int
}

func (f *failingReceiver) Receive(ctx context.Context, opts *amqp.ReceiveOptions) (*amqp.Message, error) {
	f.calls++
	return nil, errors.New("link detached")
}

func (f *failingReceiver) AcceptMessage(ctx context.Context, msg *amqp.Message) error {
	return nil
}

func (f *failingReceiver) RejectMessage(ctx context.Context, msg *amqp.Message, e *amqp.Error) error {
	return nil
}

func TestConsumeLoop_GivesUpAfterRepeatedFailures(t *testing.T) {
	app := &Config{}
	rcv := &failingReceiver{}

	err := app.consumeLoop(context.Background(), rcv, time.Millisecond)

	require.Error(t, err)
	assert.Equal(t, maxReceiveFailures, rcv.calls)
}

func TestConsumeLoop_StopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	app := &Config{}
	err := app.consumeLoop(ctx, &failingReceiver{}, time.Millisecond)

	assert.ErrorIs(t, err, context.Canceled)
}
