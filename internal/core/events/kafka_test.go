package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"
)

func TestKafkaPublish(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var e Event
		if err := json.Unmarshal(val, &e); err != nil {
			return err
		}
		if e.Type != BorrowCreated || e.BookID != "b1" {
			return errors.New("unexpected payload")
		}
		return nil
	})

	k := NewKafka(mp, "library.lending")
	err := k.Publish(context.Background(), Event{Type: BorrowCreated, At: time.Now(), UserID: "u1", BookID: "b1"})
	require.NoError(t, err)
	require.NoError(t, k.Close())
}

func TestKafkaPublish_Error(t *testing.T) {
	mp := mocks.NewSyncProducer(t, nil)
	mp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	k := NewKafka(mp, "library.lending")
	err := k.Publish(context.Background(), Event{Type: BookDeleted, BookID: "b1"})
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, k.Close())
}

func TestEventKeyAndMemory(t *testing.T) {
	require.Equal(t, "b1", Event{BookID: "b1", UserID: "u1"}.Key())
	require.Equal(t, "u1", Event{UserID: "u1"}.Key())

	var m Memory
	require.NoError(t, m.Publish(context.Background(), Event{Type: FineCreated}))
	require.NoError(t, m.Publish(context.Background(), Event{Type: FineDeleted}))
	require.Equal(t, []Type{FineCreated, FineDeleted}, m.Types())
}
