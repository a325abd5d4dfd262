package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/SAP-F-2025/quiz-service/internal/utils"
	"github.com/ThreeDotsLabs/watermill/message"
)

// Subscriber is implemented by publishers that can also deliver in-process.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan *message.Message, error)
}

// ActivityLog consumes the event stream, logs every event and counts them by
// type. Undecodable messages are acked and dropped.
type ActivityLog struct {
	logger utils.Logger

	mu     sync.Mutex
	counts map[EventType]int
}

func NewActivityLog(logger utils.Logger) *ActivityLog {
	return &ActivityLog{
		logger: logger.WithGroup("events"),
		counts: make(map[EventType]int),
	}
}

// Start subscribes and consumes in the background until ctx is done or the
// subscriber closes.
func (a *ActivityLog) Start(ctx context.Context, sub Subscriber) error {
	messages, err := sub.Subscribe(ctx)
	if err != nil {
		return err
	}
	go a.Consume(ctx, messages)
	return nil
}

func (a *ActivityLog) Consume(ctx context.Context, messages <-chan *message.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			a.handle(msg)
			msg.Ack()
		}
	}
}

func (a *ActivityLog) handle(msg *message.Message) {
	var envelope struct {
		Type EventType       `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		a.logger.Warn("Dropping undecodable event", "message_id", msg.UUID, "error", err)
		return
	}

	a.mu.Lock()
	a.counts[envelope.Type]++
	a.mu.Unlock()

	switch envelope.Type {
	case EventAttemptRecorded:
		var data AttemptRecordedEvent
		if err := json.Unmarshal(envelope.Data, &data); err == nil {
			a.logger.Info("Attempt recorded",
				"attempt_id", data.AttemptID,
				"subject_id", data.SubjectID,
				"score", data.Score,
				"via", data.Via)
			return
		}
	case EventSubjectCreated:
		var data SubjectCreatedEvent
		if err := json.Unmarshal(envelope.Data, &data); err == nil {
			a.logger.Info("Subject created", "subject_id", data.SubjectID, "name", data.Name)
			return
		}
	case EventQuestionCreated:
		var data QuestionCreatedEvent
		if err := json.Unmarshal(envelope.Data, &data); err == nil {
			a.logger.Debug("Question created", "question_id", data.QuestionID, "subject_id", data.SubjectID, "source", data.Source)
			return
		}
	}
	a.logger.Info("Event received", "message_id", msg.UUID, "event_type", envelope.Type)
}

// Counts returns how many events of each type have been consumed.
func (a *ActivityLog) Counts() map[EventType]int {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[EventType]int, len(a.counts))
	for k, v := range a.counts {
		out[k] = v
	}
	return out
}
