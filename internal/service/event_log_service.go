package service

import (
	"context"

	"knowledge-chat-be/internal/pkg/logger"
	"knowledge-chat-be/pkg/events"
	pktNats "knowledge-chat-be/pkg/nats"
)

// IEventLogService records every domain event flowing through NATS into the
// audit log file. Nothing reacts to the events yet; the log is the record.
type IEventLogService interface {
	Start() error
}

type eventLogService struct {
	subscriber *pktNats.Subscriber
	auditLog   logger.ILogger
}

func NewEventLogService(subscriber *pktNats.Subscriber, auditLog logger.ILogger) IEventLogService {
	return &eventLogService{
		subscriber: subscriber,
		auditLog:   auditLog,
	}
}

func (s *eventLogService) Start() error {
	return s.subscriber.Subscribe("events.>", "event-audit-log", func(ctx context.Context, event events.Event) error {
		s.auditLog.Info("events", event.EventType(), event.Payload())
		return nil
	})
}
