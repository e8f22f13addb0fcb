// Package notify delivers portal notifications from a protoactor actor so that request
// handlers never wait on delivery.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/gemmoherb/portal/pkg/models"
	"go.uber.org/zap"
)

const (
	TypeOrderPlaced  = "order_placed"
	TypeMessageSent  = "message_sent"
	TypeRegistration = "registration"

	RecipientAdmin = "admin"

	deliverTimeout = 10 * time.Second
)

type Notification struct {
	Recipient string
	Type      string
	Subject   string
	Message   string
}

// Deliverer sends a notification to its recipient.
type Deliverer interface {
	Deliver(ctx context.Context, n Notification) error
}

// LogDeliverer writes notifications to the log.
type LogDeliverer struct {
	Logger *zap.Logger
}

func (d LogDeliverer) Deliver(_ context.Context, n Notification) error {
	d.Logger.Info("Sending notification",
		zap.String("recipient", n.Recipient),
		zap.String("type", n.Type),
		zap.String("subject", n.Subject),
		zap.String("message", n.Message))
	return nil
}

// Messages

type orderPlaced struct {
	OrderID     uint
	OrderNumber string
	UserID      uint
	Items       int
	TotalTTC    string
}

type messageSent struct {
	SenderID    uint
	RecipientID uint
	Preview     string
}

type registrationReceived struct {
	UserID       uint
	Username     string
	PharmacyName string
	Email        string
}

type getStats struct{}

// Stats counts what the actor has handled so far.
type Stats struct {
	Delivered int
	Failed    int
}

// NotificationActor turns portal events into notifications and delivers them one at a time.
type NotificationActor struct {
	logger  *zap.Logger
	deliver Deliverer
	stats   Stats
}

func (a *NotificationActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *orderPlaced:
		a.send(Notification{
			Recipient: RecipientAdmin,
			Type:      TypeOrderPlaced,
			Subject:   fmt.Sprintf("Nouvelle commande %s", msg.OrderNumber),
			Message: fmt.Sprintf("Commande %s (%d article(s), %s TTC) passée par le compte %d",
				msg.OrderNumber, msg.Items, msg.TotalTTC, msg.UserID),
		})

	case *messageSent:
		a.send(Notification{
			Recipient: fmt.Sprintf("user:%d", msg.RecipientID),
			Type:      TypeMessageSent,
			Subject:   "Nouveau message",
			Message:   msg.Preview,
		})

	case *registrationReceived:
		a.send(Notification{
			Recipient: RecipientAdmin,
			Type:      TypeRegistration,
			Subject:   fmt.Sprintf("Demande d'inscription de %s", msg.PharmacyName),
			Message:   fmt.Sprintf("Le compte %q (%s) attend une validation", msg.Username, msg.Email),
		})

	case *getStats:
		ctx.Respond(a.stats)

	case *actor.Started:
		a.logger.Info("Notification actor started")

	case *actor.Stopping:
		a.logger.Info("Notification actor stopping", zap.Int("delivered", a.stats.Delivered), zap.Int("failed", a.stats.Failed))
	}
}

func (a *NotificationActor) send(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()
	if err := a.deliver.Deliver(ctx, n); err != nil {
		a.stats.Failed++
		a.logger.Warn("Notification delivery failed",
			zap.String("recipient", n.Recipient),
			zap.String("type", n.Type),
			zap.Error(err))
		return
	}
	a.stats.Delivered++
}

// Notifier posts portal events to the notification actor.
type Notifier struct {
	system *actor.ActorSystem
	pid    *actor.PID
	logger *zap.Logger
}

// Start spawns the notification actor. A nil deliverer logs notifications.
func Start(logger *zap.Logger, deliver Deliverer) (*Notifier, error) {
	if deliver == nil {
		deliver = LogDeliverer{Logger: logger.Named("notifications")}
	}
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return &NotificationActor{logger: logger.Named("notification-actor"), deliver: deliver}
	})
	pid, err := system.Root.SpawnNamed(props, "notification-actor")
	if err != nil {
		return nil, fmt.Errorf("failed to spawn notification actor: %w", err)
	}
	return &Notifier{system: system, pid: pid, logger: logger}, nil
}

func (n *Notifier) OrderPlaced(o *models.Order) {
	n.system.Root.Send(n.pid, &orderPlaced{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID,
		Items:       len(o.Items),
		TotalTTC:    o.TotalTTC.StringFixed(2),
	})
}

func (n *Notifier) MessageSent(m *models.Message) {
	n.system.Root.Send(n.pid, &messageSent{
		SenderID:    m.SenderID,
		RecipientID: m.RecipientID,
		Preview:     preview(m.Content, 140),
	})
}

func (n *Notifier) RegistrationReceived(u *models.User) {
	n.system.Root.Send(n.pid, &registrationReceived{
		UserID:       u.ID,
		Username:     u.Username,
		PharmacyName: u.PharmacyName,
		Email:        u.Email,
	})
}

// Stats waits for the events queued before the call to be handled and returns the counters.
func (n *Notifier) Stats(timeout time.Duration) (Stats, error) {
	res, err := n.system.Root.RequestFuture(n.pid, &getStats{}, timeout).Result()
	if err != nil {
		return Stats{}, err
	}
	stats, ok := res.(Stats)
	if !ok {
		return Stats{}, fmt.Errorf("unexpected reply %T", res)
	}
	return stats, nil
}

// Stop drains the mailbox and stops the actor.
func (n *Notifier) Stop() error {
	return n.system.Root.PoisonFuture(n.pid).Wait()
}

func preview(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "…"
}
