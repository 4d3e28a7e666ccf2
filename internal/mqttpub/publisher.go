// Package mqttpub publishes room state to an MQTT broker as retained JSON.
//
// Topics, relative to the configured prefix:
//
//	<prefix>/status               online/offline, retained, also the LWT
//	<prefix>/rooms/<id>/state     warmup.Status of one room, retained
package mqttpub

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/slycke/go-warmup/internal/config"
	"github.com/slycke/go-warmup/pkg/warmup"
)

const (
	connectTimeout    = 10 * time.Second
	publishTimeout    = 5 * time.Second
	disconnectQuiesce = 250 // milliseconds
	keepAlive         = 60 * time.Second
)

var (
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
)

// mqttClient is the subset of pahomqtt.Client the publisher uses.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Publisher mirrors refreshed rooms to MQTT.
type Publisher struct {
	client   mqttClient
	prefix   string
	qos      byte
	clientID string
	logger   *slog.Logger
}

// Connect dials the broker and announces the publisher online. A client id
// of the form warmup-<uuid> is generated when none is configured.
func Connect(cfg config.MQTTConfig, logger *slog.Logger) (*Publisher, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "warmup-" + uuid.NewString()
	}
	prefix := strings.TrimSuffix(cfg.TopicPrefix, "/")

	p := &Publisher{
		prefix:   prefix,
		qos:      byte(cfg.QoS),
		clientID: clientID,
		logger:   logger,
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)
	opts.SetWill(p.StatusTopic(), statusPayload("offline", clientID), 1, true)
	opts.SetOnConnectHandler(func(c pahomqtt.Client) {
		c.Publish(p.StatusTopic(), 1, true, statusPayload("online", clientID))
		if logger != nil {
			logger.Info("mqtt connected", "broker", cfg.Broker, "client_id", clientID)
		}
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		if logger != nil {
			logger.Warn("mqtt connection lost", "error", err)
		}
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	p.client = client
	return p, nil
}

// StatusTopic is the online/offline topic.
func (p *Publisher) StatusTopic() string {
	return p.prefix + "/status"
}

// StateTopic is the retained state topic of one room.
func (p *Publisher) StateTopic(roomID int) string {
	return p.prefix + "/rooms/" + strconv.Itoa(roomID) + "/state"
}

// PublishRooms publishes the status of every room. All rooms are attempted;
// the returned error joins the individual failures.
func (p *Publisher) PublishRooms(rooms []warmup.Room) error {
	var errs []error
	for _, room := range rooms {
		payload, err := json.Marshal(warmup.StatusOf(room))
		if err != nil {
			errs = append(errs, fmt.Errorf("room %d: %w", room.RoomID, err))
			continue
		}
		if err := p.publish(p.StateTopic(room.RoomID), payload); err != nil {
			errs = append(errs, fmt.Errorf("room %d: %w", room.RoomID, err))
		}
	}
	return errors.Join(errs...)
}

// ObserveRefresh publishes rooms and logs failures. It matches
// warmup.RefreshHook.
func (p *Publisher) ObserveRefresh(rooms []warmup.Room) {
	if err := p.PublishRooms(rooms); err != nil && p.logger != nil {
		p.logger.Warn("mqtt publish failed", "error", err)
	}
}

// Close announces the publisher offline and disconnects.
func (p *Publisher) Close() error {
	if p.client == nil {
		return nil
	}
	err := p.publish(p.StatusTopic(), []byte(statusPayload("offline", p.clientID)))
	p.client.Disconnect(disconnectQuiesce)
	return err
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, true, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("%w: %s: timeout after %v", ErrPublishFailed, topic, publishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublishFailed, topic, err)
	}
	return nil
}

func statusPayload(status, clientID string) string {
	return fmt.Sprintf(`{"status":%q,"client_id":%q,"timestamp":%q}`,
		status, clientID, time.Now().UTC().Format(time.RFC3339))
}
