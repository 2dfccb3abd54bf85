package email

import (
	"context"
	"errors"
	"time"
)

// ErrDisabled lo devuelve el sender cuando SMTP no esta configurado.
var ErrDisabled = errors.New("email sender disabled")

// Sender envia el briefing diario por correo.
type Sender interface {
	SendDailyBriefing(ctx context.Context, toEmail, name, briefing string, day time.Time) error
	Enabled() bool
}

type disabledSender struct {
	reason string
}

func NewDisabledSender(reason string) Sender {
	return &disabledSender{reason: reason}
}

func (s *disabledSender) SendDailyBriefing(_ context.Context, _, _, _ string, _ time.Time) error {
	if s.reason == "" {
		return ErrDisabled
	}
	return errors.Join(ErrDisabled, errors.New(s.reason))
}

func (s *disabledSender) Enabled() bool { return false }
