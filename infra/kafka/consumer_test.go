package kafka

import (
	"context"
	"testing"
	"time"

	"devops.aishu.cn/AISHUDevOps/AnyRobot/_git/itops-pump-diagnosis/core"
	"github.com/agiledragon/gomonkey/v2"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestConsumer() *Consumer {
	consumer, _ := NewConsumer(Config{Brokers: []string{"localhost:9092"}, Topic: "pump.measurement"})
	return consumer.(*Consumer)
}

func TestNewConsumer(t *testing.T) {
	Convey("TestNewConsumer", t, func() {
		Convey("未指定 GroupID 时使用默认值", func() {
			c := newTestConsumer()
			defer c.Close()

			So(c.reader.Config().GroupID, ShouldEqual, defaultGroupID)
		})

		Convey("使用自定义 GroupID 与 SASL 创建消费者", func() {
			consumer, err := NewConsumer(Config{
				Brokers: []string{"localhost:9092"},
				Topic:   "pump.measurement",
				GroupID: "pump-diagnosis",
				SASL:    &SASLConfig{Enabled: true, Mechanism: "PLAIN", Username: "user", Password: "pass"},
			})

			So(err, ShouldBeNil)
			So(consumer.(*Consumer).reader.Config().GroupID, ShouldEqual, "pump-diagnosis")
			So(consumer.Close(), ShouldBeNil)
		})

		Convey("topic 为空或 SASL 机制不支持时返回错误", func() {
			_, err := NewConsumer(Config{Brokers: []string{"localhost:9092"}})
			So(err, ShouldNotBeNil)

			consumer, err := NewConsumer(Config{
				Brokers: []string{"localhost:9092"},
				Topic:   "pump.measurement",
				SASL:    &SASLConfig{Enabled: true, Mechanism: "UNSUPPORTED"},
			})
			So(consumer, ShouldBeNil)
			So(err.Error(), ShouldContainSubstring, "构建 SASL 认证失败")
		})
	})
}

func TestConsumer_Consume(t *testing.T) {
	Convey("TestConsumer_Consume", t, func() {
		noop := func(ctx context.Context, msg core.KafkaMessage) error { return nil }

		Convey("reader 为 nil 返回错误", func() {
			consumer := &Consumer{}

			err := consumer.Consume(context.Background(), noop)

			So(err.Error(), ShouldContainSubstring, "kafka reader 未初始化")
			So(consumer.Close(), ShouldBeNil)
		})

		c := newTestConsumer()
		defer c.Close()

		Convey("FetchMessage 失败原样返回", func() {
			fetchErr := errors.New("fetch failed")
			patches := gomonkey.ApplyMethod(c.reader, "FetchMessage",
				func(_ *kafka.Reader, ctx context.Context) (kafka.Message, error) {
					return kafka.Message{}, fetchErr
				})
			defer patches.Reset()

			So(c.Consume(context.Background(), noop), ShouldEqual, fetchErr)
		})

		Convey("handler 成功后逐条提交 offset", func() {
			ctx, cancel := context.WithCancel(context.Background())
			fetched := 0
			var committed []int64
			var handled []core.KafkaMessage

			patches := gomonkey.ApplyMethod(c.reader, "FetchMessage",
				func(_ *kafka.Reader, ctx context.Context) (kafka.Message, error) {
					fetched++
					if fetched > 2 {
						cancel()
						return kafka.Message{}, context.Canceled
					}
					return kafka.Message{
						Topic:     "pump.measurement",
						Key:       []byte("P-101"),
						Value:     []byte(`{"motor_kw":110}`),
						Partition: 1,
						Offset:    int64(99 + fetched),
						Time:      time.Now(),
					}, nil
				})
			defer patches.Reset()
			patches.ApplyMethod(c.reader, "CommitMessages",
				func(_ *kafka.Reader, ctx context.Context, msgs ...kafka.Message) error {
					for _, m := range msgs {
						committed = append(committed, m.Offset)
					}
					return nil
				})

			err := c.Consume(ctx, func(ctx context.Context, msg core.KafkaMessage) error {
				handled = append(handled, msg)
				return nil
			})

			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(handled, ShouldHaveLength, 2)
			So(handled[0].Topic, ShouldEqual, "pump.measurement")
			So(handled[0].Key, ShouldEqual, "P-101")
			So(handled[0].Partition, ShouldEqual, int32(1))
			So(committed, ShouldResemble, []int64{100, 101})
		})

		Convey("handler 失败时不提交 offset 并停止消费", func() {
			fetched := 0
			committed := 0
			persistErr := errors.New("opensearch unavailable")

			patches := gomonkey.ApplyMethod(c.reader, "FetchMessage",
				func(_ *kafka.Reader, ctx context.Context) (kafka.Message, error) {
					fetched++
					return kafka.Message{Topic: "pump.measurement", Partition: 2, Offset: 7}, nil
				})
			defer patches.Reset()
			patches.ApplyMethod(c.reader, "CommitMessages",
				func(_ *kafka.Reader, ctx context.Context, msgs ...kafka.Message) error {
					committed += len(msgs)
					return nil
				})

			err := c.Consume(context.Background(), func(ctx context.Context, msg core.KafkaMessage) error {
				return persistErr
			})

			So(errors.Is(err, persistErr), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "offset=7")
			So(fetched, ShouldEqual, 1)
			So(committed, ShouldEqual, 0)
		})

		Convey("CommitMessages 失败返回错误", func() {
			patches := gomonkey.ApplyMethod(c.reader, "FetchMessage",
				func(_ *kafka.Reader, ctx context.Context) (kafka.Message, error) {
					return kafka.Message{Key: []byte("key"), Value: []byte("value")}, nil
				})
			defer patches.Reset()
			patches.ApplyMethod(c.reader, "CommitMessages",
				func(_ *kafka.Reader, ctx context.Context, msgs ...kafka.Message) error {
					return errors.New("commit failed")
				})

			err := c.Consume(context.Background(), noop)

			So(err.Error(), ShouldContainSubstring, "commit kafka offset")
		})
	})
}
