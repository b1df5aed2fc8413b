package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/mileage-skill/internal/api/dto"
	"github.com/spec-kit/mileage-skill/internal/observability"
	apperrors "github.com/spec-kit/mileage-skill/pkg/util/errorutil"
)

// Deliverer posts a final skill reply to a platform callback URL.
type Deliverer interface {
	Deliver(ctx context.Context, callbackURL string, reply dto.SkillResponse) error
}

// CallbackClient performs a single JSON POST per delivery. It never retries.
type CallbackClient struct {
	timeout time.Duration
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewCallbackClient builds a client with a hard per-POST timeout.
func NewCallbackClient(timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *CallbackClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CallbackClient{timeout: timeout, logger: logger, metrics: metrics}
}

// Deliver implements Deliverer. A network error, timeout or non-2xx status
// yields DELIVERY_FAILED.
func (c *CallbackClient) Deliver(ctx context.Context, callbackURL string, reply dto.SkillResponse) error {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return c.fail(callbackURL, context.DeadlineExceeded)
	}

	agent := fiber.Post(callbackURL)
	agent.Timeout(timeout)
	agent.JSON(reply)

	status, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return c.fail(callbackURL, errors.Join(errs...))
	}
	if status < 200 || status >= 300 {
		return c.fail(callbackURL, fmt.Errorf("unexpected status %d: %.200s", status, body))
	}

	c.metrics.RecordDelivery(true)
	c.logger.Info("callback delivered", zap.String("callback_url", callbackURL), zap.Int("status", status))
	return nil
}

func (c *CallbackClient) fail(callbackURL string, err error) error {
	c.metrics.RecordDelivery(false)
	return apperrors.NewDeliveryFailed(callbackURL, err)
}
