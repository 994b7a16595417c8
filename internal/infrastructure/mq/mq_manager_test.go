package mq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chat_core_server/internal/config"
	"chat_core_server/internal/dto/respond"

	"github.com/stretchr/testify/require"
)

func TestEncodeRecord_KeyedBySender(t *testing.T) {
	reply := int64(1)
	msg := respond.MessageRespond{
		Id:        2,
		CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC),
		Sender:    "Bob",
		Content:   "hi",
		ReplyTo:   &reply,
	}

	record, err := encodeRecord(msg)
	require.NoError(t, err)
	require.Equal(t, "Bob", string(record.Key))
	require.True(t, record.Time.Equal(msg.CreatedAt))

	var decoded respond.MessageRespond
	require.NoError(t, json.Unmarshal(record.Value, &decoded))
	require.Equal(t, int64(2), decoded.Id)
	require.Equal(t, int64(1), *decoded.ReplyTo)
}

func TestNewKafkaExporter_DisabledIsNoop(t *testing.T) {
	exp := NewKafkaExporter(config.KafkaConfig{Enabled: false})
	require.IsType(t, NoopExporter{}, exp)
	exp.Export(context.Background(), respond.MessageRespond{Id: 1})
	require.NoError(t, exp.Close())
}
