package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	domainAccount "github.com/pmcostaxyz/telegram-chat/domains/account"
	domainDelivery "github.com/pmcostaxyz/telegram-chat/domains/delivery"
	domainSchedule "github.com/pmcostaxyz/telegram-chat/domains/schedule"
	"github.com/pmcostaxyz/telegram-chat/pkg/sendworker"
	"github.com/pmcostaxyz/telegram-chat/repository"
	"github.com/sirupsen/logrus"
)

// ErrAccountNotActive is the terminal error recorded when a due message
// belongs to an account without a usable session. A caller-fixable
// precondition, never retried.
const ErrAccountNotActive = "account not active or not authenticated"

// Locker guards dispatch across replicas sharing one schedule store. The
// store's conditional claim already protects a single process; the lock is
// the extra fence for multi-instance deployments.
type Locker interface {
	Acquire(key string, ttl time.Duration) bool
}

// Dispatcher polls the schedule store for due messages, claims each one and
// drives the delivery adapter. A failed send is terminal; rescheduling is
// the caller's call.
type Dispatcher struct {
	repo        repository.IScheduleRepository
	accounts    repository.IAccountRepository
	adapter     domainDelivery.Adapter
	pool        *sendworker.Pool
	locker      Locker
	interval    time.Duration
	sendTimeout time.Duration
	now         func() time.Time

	running atomic.Bool
	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewDispatcher(
	repo repository.IScheduleRepository,
	accounts repository.IAccountRepository,
	adapter domainDelivery.Adapter,
	interval time.Duration,
	sendTimeout time.Duration,
) *Dispatcher {
	return &Dispatcher{
		repo:        repo,
		accounts:    accounts,
		adapter:     adapter,
		interval:    interval,
		sendTimeout: sendTimeout,
		now:         time.Now,
	}
}

// WithPool routes deliveries through a per-account serializing pool.
// Without one, deliveries run inline on the poll goroutine.
func (d *Dispatcher) WithPool(pool *sendworker.Pool) *Dispatcher {
	d.pool = pool
	return d
}

// WithLocker adds a distributed claim fence for multi-replica setups.
func (d *Dispatcher) WithLocker(locker Locker) *Dispatcher {
	d.locker = locker
	return d
}

// Start launches the polling loop. Returns false if already running.
func (d *Dispatcher) Start() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running.Load() {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel
	d.done = make(chan struct{})
	d.running.Store(true)

	go func() {
		defer close(d.done)

		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		logrus.Infof("[DISPATCHER] polling loop started (interval %s)", d.interval)
		d.Tick(ctx)

		for {
			select {
			case <-ctx.Done():
				logrus.Info("[DISPATCHER] polling loop stopping")
				return
			case <-ticker.C:
				d.Tick(ctx)
			}
		}
	}()

	return true
}

// Stop halts the polling loop and waits for it to exit. In-flight delivery
// attempts run to completion.
func (d *Dispatcher) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running.Load() {
		return false
	}
	d.cancel()
	<-d.done
	d.running.Store(false)
	return true
}

func (d *Dispatcher) IsRunning() bool {
	return d.running.Load()
}

// Tick runs one poll pass: select due work, claim each record, deliver.
// Each message's outcome is independent; one failure never blocks the rest
// of the batch.
func (d *Dispatcher) Tick(ctx context.Context) {
	due, err := d.repo.ListDue(ctx, d.now())
	if err != nil {
		logrus.WithError(err).Error("[DISPATCHER] due query failed")
		return
	}
	if len(due) == 0 {
		return
	}
	logrus.Debugf("[DISPATCHER] %d due message(s)", len(due))

	for _, msg := range due {
		if d.locker != nil && !d.locker.Acquire("dispatch:"+msg.ID, 2*d.sendTimeout) {
			continue
		}

		claimed, err := d.repo.Claim(ctx, msg.ID)
		if err != nil {
			logrus.WithError(err).Errorf("[DISPATCHER] claim failed for %s", msg.ID)
			continue
		}
		if !claimed {
			// Canceled meanwhile, or another dispatcher won the claim.
			continue
		}

		if d.pool != nil {
			m := msg
			accepted := d.pool.Dispatch(sendworker.Job{
				AccountID: m.AccountID,
				Handler: func(jobCtx context.Context) error {
					d.deliver(jobCtx, m)
					return nil
				},
			})
			if !accepted {
				// Pool already stopped; don't leave the claim dangling.
				logrus.Warnf("[DISPATCHER] worker pool rejected %s, delivering inline", m.ID)
				d.deliver(ctx, m)
			}
			continue
		}
		d.deliver(ctx, msg)
	}
}

// deliver runs one claimed attempt to a terminal state. A panic anywhere in
// the adapter is recorded as a failure rather than taking down the loop.
func (d *Dispatcher) deliver(ctx context.Context, msg domainSchedule.ScheduledMessage) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[DISPATCHER] delivery panic for %s: %v", msg.ID, r)
			d.markFailed(ctx, msg.ID, "delivery aborted unexpectedly")
		}
	}()

	acct, err := d.accounts.GetByID(ctx, msg.AccountID)
	if err != nil {
		// A missing account is the caller-fixable precondition; anything
		// else is a store failure and gets recorded as itself.
		reason := err.Error()
		if errors.Is(err, domainAccount.ErrAccountNotFound) {
			reason = ErrAccountNotActive
		}
		d.markFailed(ctx, msg.ID, reason)
		return
	}
	if !acct.IsActive || acct.SessionToken == "" {
		d.markFailed(ctx, msg.ID, ErrAccountNotActive)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()

	conn, err := d.adapter.Connect(sendCtx, domainDelivery.Session{
		APIID:        acct.APIID,
		APIHash:      acct.APIHash,
		PhoneNumber:  acct.PhoneNumber,
		SessionToken: acct.SessionToken,
	})
	if err != nil {
		d.markFailed(ctx, msg.ID, err.Error())
		return
	}
	defer func() { _ = conn.Disconnect() }()

	if err := conn.Send(sendCtx, msg.Recipient, msg.Text); err != nil {
		d.markFailed(ctx, msg.ID, err.Error())
		return
	}

	if err := d.repo.UpdateStatus(ctx, msg.ID, domainSchedule.StatusSent, ""); err != nil {
		logrus.WithError(err).Errorf("[DISPATCHER] failed to mark %s sent", msg.ID)
		return
	}
	logrus.WithFields(logrus.Fields{
		"message_id": msg.ID,
		"account_id": msg.AccountID,
		"recipient":  msg.Recipient,
	}).Info("[DISPATCHER] message sent")
}

func (d *Dispatcher) markFailed(ctx context.Context, id, reason string) {
	if err := d.repo.UpdateStatus(ctx, id, domainSchedule.StatusFailed, reason); err != nil {
		logrus.WithError(err).Errorf("[DISPATCHER] failed to mark %s failed", id)
		return
	}
	logrus.WithField("message_id", id).Warnf("[DISPATCHER] delivery failed: %s", reason)
}
