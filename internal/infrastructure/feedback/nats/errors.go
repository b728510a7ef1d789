package nats

import (
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/finassist/qa-engine/internal/core/domain"
)

func translatePublishError(subject string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, nats.ErrNoServers) ||
		errors.Is(err, nats.ErrTimeout) ||
		errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrDisconnected) {
		return domain.WrapError(domain.ErrNetwork, "publish "+subject, err)
	}
	return domain.WrapError(domain.ErrSystem, "publish "+subject, err)
}
