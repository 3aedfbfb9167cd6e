package service

import (
	"context"
	"log"
	"time"

	"Lee_Events/internal/model"
	"Lee_Events/internal/pkg"
	"Lee_Events/internal/repository/mysql"
)

type Sender func(ctx context.Context, ob *model.RegistrationOutbox) error

// OutboxRelayer 把报名事件从 outbox 表异步投递出去
type OutboxRelayer struct {
	repo      *mysql.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
}

func NewOutboxRelayer(sender Sender) *OutboxRelayer {
	return &OutboxRelayer{
		repo:      &mysql.OutboxRepository{DB: mysql.DB},
		batchSize: 200,
		interval:  time.Second,
		sender:    sender,
	}
}

// Run outbox启动器
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.drainOnce(ctx)
		}
	}
}

// 按批读取待投递事件，逐条交给 sender；失败记重试，成功标记
func (r *OutboxRelayer) drainOnce(ctx context.Context) {
	rows, err := r.repo.List(ctx, r.batchSize)
	if err != nil {
		log.Printf("outbox query err: %v", err)
		return
	}
	for i := range rows {
		ob := rows[i]
		if err = r.sender(ctx, &ob); err != nil {
			_ = r.repo.RetryUpdate(ctx, ob.ID)
			continue
		}
		_ = r.repo.SuccessUpdate(ctx, ob.ID)
	}
}

// KafkaSender 按 event_id 作 key 投递，同一事件的报名保序
func KafkaSender(producer *pkg.KafkaProducer) Sender {
	return func(ctx context.Context, ob *model.RegistrationOutbox) error {
		return producer.Send(ctx, pkg.MakeKeyFromID(ob.EventID), []byte(ob.Payload))
	}
}

// LogSender 未配置 kafka 时的降级 sender
func LogSender(ctx context.Context, ob *model.RegistrationOutbox) error {
	log.Printf("OUTBOX SEND type=%s event=%d user=%d payload=%s", ob.EventType, ob.EventID, ob.UserID, ob.Payload)
	return nil
}

// AttendCountReconciler 定期把 events.attendee_count 和 ledger 真实行数对账
type AttendCountReconciler struct {
	repo      *mysql.AttendCountReconcilerRepo
	batchSize int
	interval  time.Duration
	lastID    uint64 // 游标，跑完一轮归零
}

func NewAttendCountReconciler() *AttendCountReconciler {
	return &AttendCountReconciler{
		repo:      &mysql.AttendCountReconcilerRepo{DB: mysql.DB},
		batchSize: 500,
		interval:  5 * time.Minute,
	}
}

// Run 对账定时任务启动器
func (r *AttendCountReconciler) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.reconcileOnce(ctx)
		}
	}
}

func (r *AttendCountReconciler) reconcileOnce(ctx context.Context) {
	pairs, next, err := r.repo.ReconcileList(ctx, r.batchSize, r.lastID)
	if err != nil {
		log.Printf("reconcile list err: %v", err)
		return
	}
	if len(pairs) == 0 {
		r.lastID = 0
		return
	}
	r.lastID = next

	for _, p := range pairs {
		real, err := r.repo.RealCount(ctx, p.ID)
		if err != nil {
			continue
		}
		if real != p.AttendeeCount {
			_ = r.repo.Reconcile(ctx, p.ID, real)
		}
	}
}
