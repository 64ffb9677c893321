package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Session is one broker connection with an open channel.
type Session interface {
	DeclareQueue(ctx context.Context, name string) error
	Publish(ctx context.Context, queue string, msg amqp.Publishing) error
	Close() error
}

// Dialer opens a new Session for the given URI.
type Dialer func(ctx context.Context, uri string) (Session, error)

type amqpSession struct {
	conn    *amqp.Connection
	ch      *amqp.Channel
	confirm bool
}

// DialAMQP returns a Dialer backed by amqp091-go. When confirm is set the
// channel is put into confirm mode and every publish waits for the broker ack.
func DialAMQP(connectTimeout time.Duration, confirm bool) Dialer {
	return func(ctx context.Context, uri string) (Session, error) {
		props := amqp.NewConnectionProperties()
		props.SetClientConnectionName("weather-log-collector")

		timeout := connectTimeout
		if deadline, ok := ctx.Deadline(); ok {
			if left := time.Until(deadline); timeout <= 0 || left < timeout {
				timeout = left
			}
		}
		if timeout <= 0 {
			return nil, fmt.Errorf("dial: %w", context.DeadlineExceeded)
		}

		cfg := amqp.Config{
			Properties: props,
			Dial:       amqp.DefaultDial(timeout),
		}

		conn, err := amqp.DialConfig(uri, cfg)
		if err != nil {
			return nil, fmt.Errorf("dial: %w", err)
		}

		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("open channel: %w", err)
		}

		if confirm {
			if err := ch.Confirm(false); err != nil {
				_ = ch.Close()
				_ = conn.Close()
				return nil, fmt.Errorf("enable confirms: %w", err)
			}
		}

		return &amqpSession{conn: conn, ch: ch, confirm: confirm}, nil
	}
}

// bounded runs a synchronous broker call under ctx. Channel methods block
// until the broker replies, so the connection is closed when ctx ends, which
// unblocks the pending call.
func (s *amqpSession) bounded(ctx context.Context, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	err := call()
	if !stop() && err != nil {
		return fmt.Errorf("%w: %w", ctx.Err(), err)
	}
	return err
}

func (s *amqpSession) DeclareQueue(ctx context.Context, name string) error {
	return s.bounded(ctx, func() error {
		_, err := s.ch.QueueDeclare(
			name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		return err
	})
}

func (s *amqpSession) Publish(ctx context.Context, queue string, msg amqp.Publishing) error {
	return s.bounded(ctx, func() error {
		if !s.confirm {
			return s.ch.PublishWithContext(ctx, "", queue, false, false, msg)
		}

		dc, err := s.ch.PublishWithDeferredConfirmWithContext(ctx, "", queue, false, false, msg)
		if err != nil {
			return err
		}

		acked, err := dc.WaitContext(ctx)
		if err != nil {
			return fmt.Errorf("wait for confirm: %w", err)
		}
		if !acked {
			return errors.New("broker nacked message")
		}
		return nil
	})
}

func (s *amqpSession) Close() error {
	var errs []error
	if err := s.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, err)
	}
	if err := s.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
