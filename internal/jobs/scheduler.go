// Package jobs corre las tareas periodicas: snapshot nocturno de riesgo y
// briefing diario por correo.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"habitos/internal/domain"
	"habitos/internal/email"
)

type userLister interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type habitSnapshotter interface {
	SnapshotUser(ctx context.Context, userID string) (int, error)
}

type briefingWriter interface {
	DailyBriefing(ctx context.Context, userID string) (string, error)
	Available() bool
}

// ErrAssistantUnavailable evita mandar por mail el texto de respaldo del asistente.
var ErrAssistantUnavailable = errors.New("assistant unavailable")

const (
	snapshotParallelism = 4
	defaultJobTimeout   = 10 * time.Minute
)

// Scheduler envuelve cron.Cron con los jobs del dominio.
type Scheduler struct {
	logger    *zap.Logger
	cron      *cron.Cron
	users     userLister
	habits    habitSnapshotter
	assistant briefingWriter
	sender    email.Sender
	now       func() time.Time
	timeout   time.Duration
}

func NewScheduler(logger *zap.Logger, users userLister, habits habitSnapshotter, assistant briefingWriter, sender email.Sender) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sender == nil {
		sender = email.NewDisabledSender("")
	}
	cl := cronLogger{logger.Sugar()}
	return &Scheduler{
		logger: logger,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		users:     users,
		habits:    habits,
		assistant: assistant,
		sender:    sender,
		now:       func() time.Time { return time.Now().UTC() },
		timeout:   defaultJobTimeout,
	}
}

// Register agenda los jobs. Una expresion vacia desactiva el job; el briefing
// ademas requiere un sender habilitado.
func (s *Scheduler) Register(snapshotSpec, briefingSpec string) error {
	if spec := strings.TrimSpace(snapshotSpec); spec != "" {
		if _, err := s.cron.AddFunc(spec, func() { s.runWithTimeout("snapshot", s.snapshotJob) }); err != nil {
			return fmt.Errorf("schedule snapshot %q: %w", spec, err)
		}
		s.logger.Info("snapshot job scheduled", zap.String("spec", spec))
	}
	if spec := strings.TrimSpace(briefingSpec); spec != "" {
		if !s.sender.Enabled() {
			s.logger.Warn("briefing job skipped: email sender disabled")
			return nil
		}
		if _, err := s.cron.AddFunc(spec, func() { s.runWithTimeout("briefing", s.briefingJob) }); err != nil {
			return fmt.Errorf("schedule briefing %q: %w", spec, err)
		}
		s.logger.Info("briefing job scheduled", zap.String("spec", spec))
	}
	return nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop detiene el cron y espera a que terminen los jobs en curso o ctx.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out")
	}
}

func (s *Scheduler) runWithTimeout(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	if err := job(ctx); err != nil {
		s.logger.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.logger.Info("job finished", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

func (s *Scheduler) snapshotJob(ctx context.Context) error {
	report, err := s.RunSnapshot(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("snapshot report",
		zap.Int("users", report.Users),
		zap.Int64("habits", report.Habits),
		zap.Int64("failed_users", report.FailedUsers),
	)
	return nil
}

func (s *Scheduler) briefingJob(ctx context.Context) error {
	sent, err := s.RunBriefings(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("briefings sent", zap.Int("sent", sent))
	return nil
}

type SnapshotReport struct {
	Users       int
	Habits      int64
	FailedUsers int64
}

// RunSnapshot evalua y persiste el riesgo de cada habito de cada usuario.
// Un usuario que falla se registra y no corta al resto.
func (s *Scheduler) RunSnapshot(ctx context.Context) (SnapshotReport, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return SnapshotReport{}, fmt.Errorf("list users: %w", err)
	}

	var habits, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotParallelism)
	for _, u := range users {
		g.Go(func() error {
			n, err := s.habits.SnapshotUser(gctx, u.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				s.logger.Warn("snapshot user failed", zap.String("user_id", u.ID), zap.Error(err))
				return nil
			}
			habits.Add(int64(n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return SnapshotReport{}, err
	}
	return SnapshotReport{Users: len(users), Habits: habits.Load(), FailedUsers: failed.Load()}, nil
}

// RunBriefings genera y envia el briefing a cada usuario con email.
func (s *Scheduler) RunBriefings(ctx context.Context) (int, error) {
	if !s.sender.Enabled() {
		return 0, email.ErrDisabled
	}
	if !s.assistant.Available() {
		return 0, ErrAssistantUnavailable
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	day := s.now()
	sent := 0
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		if strings.TrimSpace(u.Email) == "" {
			continue
		}
		briefing, err := s.assistant.DailyBriefing(ctx, u.ID)
		if err != nil {
			s.logger.Warn("briefing generation failed", zap.String("user_id", u.ID), zap.Error(err))
			continue
		}
		if err := s.sender.SendDailyBriefing(ctx, u.Email, u.DisplayName, briefing, day); err != nil {
			s.logger.Warn("briefing email failed", zap.String("user_id", u.ID), zap.Error(err))
			continue
		}
		sent++
	}
	return sent, nil
}

// cronLogger adapta zap al logger de robfig/cron.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
