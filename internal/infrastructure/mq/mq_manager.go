package mq

import (
	"context"
	"encoding/json"
	"time"

	myconfig "chat_core_server/internal/config"
	"chat_core_server/internal/dto/respond"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaExporter 使用 kafka-go Writer 的异步模式导出消息
// key 为发送者名称，同一发送者的消息落在同一分区，分区内保持写入顺序
type KafkaExporter struct {
	writer *kafka.Writer
}

// NewKafkaExporter 按配置创建导出器，未启用时返回 NoopExporter
func NewKafkaExporter(conf myconfig.KafkaConfig) MessageExporter {
	if !conf.Enabled {
		return NoopExporter{}
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(conf.HostPort),
		Topic:                  conf.ChatTopic,
		Balancer:               &kafka.Hash{},
		WriteTimeout:           time.Duration(conf.Timeout) * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
		Async:                  true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				zap.L().Error("导出消息到 Kafka 失败", zap.Int("count", len(messages)), zap.Error(err))
			}
		},
	}
	zap.L().Info("Kafka 消息导出已启用", zap.String("addr", conf.HostPort), zap.String("topic", conf.ChatTopic))
	return &KafkaExporter{writer: w}
}

// Export 异步写入，WriteMessages 在 Async 模式下立即返回
func (k *KafkaExporter) Export(ctx context.Context, msg respond.MessageRespond) {
	record, err := encodeRecord(msg)
	if err != nil {
		zap.L().Error("导出消息序列化失败", zap.Int64("id", msg.Id), zap.Error(err))
		return
	}
	if err := k.writer.WriteMessages(ctx, record); err != nil {
		zap.L().Error("导出消息到 Kafka 失败", zap.Int64("id", msg.Id), zap.Error(err))
	}
}

// Close 关闭 Writer，会等待缓冲中的消息写完
func (k *KafkaExporter) Close() error {
	return k.writer.Close()
}

func encodeRecord(msg respond.MessageRespond) (kafka.Message, error) {
	value, err := json.Marshal(msg)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(msg.Sender),
		Value: value,
		Time:  msg.CreatedAt,
	}, nil
}
