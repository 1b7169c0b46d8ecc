package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
	"github.com/spams12/gege/internal/cfg"
	"github.com/spams12/gege/internal/usecase"
	"github.com/spams12/gege/pkg/e"
	"github.com/spams12/gege/pkg/logger"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	headerEventType   = "event-type"
	headerContentType = "content-type"
	contentTypeStruct = "application/x-protobuf; messageType=google.protobuf.Struct"
)

// Producer публикует события магазина в один топик.
type Producer struct {
	writer *kafka.Writer
	dialer *kafka.Dialer
	logger logger.Logger
	cfg    *cfg.KafkaCfg
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), errors.New("no kafka brokers configured"))
	}

	return &Producer{
		writer: newWriter(cfg),
		dialer: &kafka.Dialer{Timeout: cfg.WriteTimeout},
		logger: logger,
		cfg:    cfg,
	}, nil
}

func newWriter(cfg *cfg.KafkaCfg) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchSize:    cfg.WriterBatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		// Повторами управляет outbox-воркер
		MaxAttempts: 1,
	}
}

// WriteRawMessage публикует конверт события. Ключ сообщения равен id агрегата,
// поэтому события одного заказа или товара попадают в одну партицию.
func (p *Producer) WriteRawMessage(ctx context.Context, req *usecase.WriteRawMessageReq) error {
	msg, err := newMessage(req)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func newMessage(req *usecase.WriteRawMessageReq) (kafka.Message, error) {
	value, err := EncodeEnvelope(req.Payload)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(req.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(req.EventType)},
			{Key: headerContentType, Value: []byte(contentTypeStruct)},
		},
	}, nil
}

// EncodeEnvelope перекодирует JSON-конверт из outbox в бинарный google.protobuf.Struct.
func EncodeEnvelope(payload []byte) ([]byte, error) {
	envelope := &structpb.Struct{}
	if err := protojson.Unmarshal(payload, envelope); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	return proto.Marshal(envelope)
}

// DecodeEnvelope нужен потребителям событий и тестам.
func DecodeEnvelope(value []byte) (*structpb.Struct, error) {
	envelope := &structpb.Struct{}
	if err := proto.Unmarshal(value, envelope); err != nil {
		return nil, err
	}

	return envelope, nil
}

// EnsureTopic создаёт топик через контроллер кластера, если его ещё нет.
func (p *Producer) EnsureTopic(ctx context.Context) error {
	conn, err := p.dialer.DialContext(ctx, p.cfg.NetworkMode, p.cfg.Brokers[0])
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if partitions, err := conn.ReadPartitions(p.cfg.Topic); err == nil && len(partitions) > 0 {
		p.logger.Debugf("Kafka topic %s exists with %d partitions", p.cfg.Topic, len(partitions))
		return nil
	}

	controller, err := conn.Controller()
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	ctrlConn, err := p.dialer.DialContext(ctx, p.cfg.NetworkMode,
		net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	defer ctrlConn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = ctrlConn.SetDeadline(deadline)
	}

	err = ctrlConn.CreateTopics(kafka.TopicConfig{
		Topic:             p.cfg.Topic,
		NumPartitions:     p.cfg.Partitions,
		ReplicationFactor: p.cfg.ReplicationFactor,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return e.Wrap(whereami.WhereAmI(), fmt.Errorf("create topic %s: %w", p.cfg.Topic, err))
	}

	p.logger.Infof("Kafka topic %s ready (partitions=%d, replication=%d)",
		p.cfg.Topic, p.cfg.Partitions, p.cfg.ReplicationFactor)
	return nil
}

func (p *Producer) Close(_ context.Context) error {
	if err := p.writer.Close(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
