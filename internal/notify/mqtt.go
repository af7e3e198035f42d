// Package notify announces committed hangar changes over MQTT and refreshes
// the local store when another instance announces its own.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/leogoca00/hangar-sprc/internal/hangar"
	"github.com/sirupsen/logrus"
)

const qos = 1

// ErrTimeout is returned when the broker does not acknowledge in time.
var ErrTimeout = errors.New("mqtt: timed out waiting for broker")

// ChangeEvent tells other instances that records of one collection changed.
type ChangeEvent struct {
	ID         uuid.UUID `json:"id"`
	Origin     string    `json:"origin"`
	Collection string    `json:"collection"`
	RecordIDs  []string  `json:"record_ids"`
	At         time.Time `json:"at"`
}

// Client is the part of mqtt.Client the notifier uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token
}

// Refresher reloads one collection from the hosted backend.
type Refresher interface {
	Refresh(ctx context.Context, col hangar.Collection) error
}

// Notifier publishes change events under <topic>/<collection>. It
// implements hangar.Publisher.
type Notifier struct {
	client  Client
	topic   string
	origin  string
	timeout time.Duration
	log     *logrus.Entry
	now     func() time.Time
}

// New creates a notifier. origin identifies this instance so its own
// events are ignored on receipt.
func New(client Client, topic, origin string, logger *logrus.Logger) *Notifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Notifier{
		client:  client,
		topic:   topic,
		origin:  origin,
		timeout: 5 * time.Second,
		log:     logger.WithField("component", "notify"),
		now:     time.Now,
	}
}

// Connect dials the broker. The returned origin is the unique client id.
func Connect(broker, clientID string, timeout time.Duration) (mqtt.Client, string, error) {
	origin := fmt.Sprintf("%s-%s", clientID, uuid.NewString()[:8])
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(origin).
		SetAutoReconnect(true).
		SetConnectTimeout(timeout)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, "", ErrTimeout
	}
	if err := token.Error(); err != nil {
		return nil, "", fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	return client, origin, nil
}

// Origin returns the instance identifier stamped on published events.
func (n *Notifier) Origin() string { return n.origin }

// Publish sends one event per touched collection, in first-touch order.
func (n *Notifier) Publish(ctx context.Context, changes []hangar.Change) error {
	var order []hangar.Collection
	ids := make(map[hangar.Collection][]string)
	for _, c := range changes {
		if _, seen := ids[c.Collection]; !seen {
			order = append(order, c.Collection)
		}
		ids[c.Collection] = append(ids[c.Collection], c.ID.Hex())
	}

	for _, col := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev := ChangeEvent{
			ID:         uuid.New(),
			Origin:     n.origin,
			Collection: string(col),
			RecordIDs:  ids[col],
			At:         n.now().UTC(),
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode change event: %w", err)
		}
		topic := n.topic + "/" + string(col)
		if err := n.wait(n.client.Publish(topic, qos, false, payload)); err != nil {
			return fmt.Errorf("publish %s: %w", topic, err)
		}
		n.log.WithFields(logrus.Fields{"topic": topic, "event_id": ev.ID, "records": len(ev.RecordIDs)}).Debug("Published change event")
	}
	return nil
}

// Subscribe listens for other instances' events and refreshes the matching
// collection through r.
func (n *Notifier) Subscribe(r Refresher) error {
	topic := n.topic + "/#"
	if err := n.wait(n.client.Subscribe(topic, qos, n.handler(r))); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	n.log.WithField("topic", topic).Info("Subscribed to change events")
	return nil
}

func (n *Notifier) handler(r Refresher) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		var ev ChangeEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			n.log.WithError(err).WithField("topic", msg.Topic()).Warn("Dropping malformed change event")
			return
		}
		if ev.Origin == n.origin {
			return
		}
		col := hangar.Collection(ev.Collection)
		if !hangar.IsValidCollection(col) {
			n.log.WithField("collection", ev.Collection).Warn("Dropping change event for unknown collection")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*n.timeout)
		defer cancel()
		if err := r.Refresh(ctx, col); err != nil {
			n.log.WithError(err).WithFields(logrus.Fields{"collection": col, "origin": ev.Origin}).Error("Refresh after change event failed")
			return
		}
		n.log.WithFields(logrus.Fields{"collection": col, "origin": ev.Origin}).Debug("Refreshed collection after change event")
	}
}

func (n *Notifier) wait(token mqtt.Token) error {
	if !token.WaitTimeout(n.timeout) {
		return ErrTimeout
	}
	return token.Error()
}
