package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carewise-staffing/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ScheduleRunner 事件触发的排班执行方
type ScheduleRunner interface {
	RunFacility(ctx context.Context, facilityID, sectionID string, target time.Time) error
}

// EventConsumer 排班请求事件消费者
type EventConsumer struct {
	redisClient  *redis.Client
	runner       ScheduleRunner
	logger       *zap.Logger
	stream       string
	groupName    string
	consumerName string
	batchSize    int64
}

// ScheduleEvent 排班请求事件
type ScheduleEvent struct {
	EventType  string `json:"event_type"`
	FacilityID string `json:"facility_id"`
	// SectionID 可选分区过滤；为空时覆盖整个设施
	SectionID string `json:"section_id,omitempty"`
	// TargetDate 目标周内任意一天，"2006-01-02" 格式；为空时取当天
	TargetDate string `json:"target_date,omitempty"`
	Timestamp  int64  `json:"timestamp"`
}

// NewEventConsumer 创建事件消费者
func NewEventConsumer(
	redisClient *redis.Client,
	runner ScheduleRunner,
	logger *zap.Logger,
	stream string,
	groupName string,
	consumerName string,
	batchSize int64,
) *EventConsumer {
	return &EventConsumer{
		redisClient:  redisClient,
		runner:       runner,
		logger:       logger,
		stream:       stream,
		groupName:    groupName,
		consumerName: consumerName,
		batchSize:    batchSize,
	}
}

// Start 启动事件消费者
func (c *EventConsumer) Start(ctx context.Context) error {
	// 创建消费者组
	if err := store.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Event consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	// 消费事件（带指数退避）
	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeEvents(ctx); err != nil {
				c.logger.Error("Failed to consume events",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				// 指数退避
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				// 成功时重置退避时间
				backoffDuration = time.Second
			}
		}
	}
}

// consumeEvents 消费一批事件
func (c *EventConsumer) consumeEvents(ctx context.Context) error {
	messages, err := store.ReadFromStream(
		ctx,
		c.redisClient,
		c.stream,
		c.groupName,
		c.consumerName,
		c.batchSize,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, msg := range messages {
		if err := c.processEvent(ctx, msg); err != nil {
			c.logger.Error("Failed to process event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			// 继续处理下一条消息，不中断
		} else {
			// 处理成功后确认消息
			if err := store.AckMessage(ctx, c.redisClient, c.stream, c.groupName, msg.ID); err != nil {
				c.logger.Warn("Failed to ack message",
					zap.String("message_id", msg.ID),
					zap.Error(err),
				)
			}
		}
	}

	return nil
}

// processEvent 处理单条排班请求事件
func (c *EventConsumer) processEvent(ctx context.Context, msg store.StreamMessage) error {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message %s has no data field", msg.ID)
	}

	var event ScheduleEvent
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.FacilityID == "" {
		return fmt.Errorf("event %s missing facility_id", msg.ID)
	}

	target := time.Now()
	if event.TargetDate != "" {
		parsed, err := time.Parse("2006-01-02", event.TargetDate)
		if err != nil {
			return fmt.Errorf("invalid target_date %q: %w", event.TargetDate, err)
		}
		target = parsed
	}

	c.logger.Info("Processing schedule event",
		zap.String("message_id", msg.ID),
		zap.String("event_type", event.EventType),
		zap.String("facility_id", event.FacilityID),
		zap.String("section_id", event.SectionID),
		zap.String("target_date", target.Format("2006-01-02")),
	)

	return c.runner.RunFacility(ctx, event.FacilityID, event.SectionID, target)
}
