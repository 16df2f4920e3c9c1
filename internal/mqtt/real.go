package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Config configures a RealPublisher.
type Config struct {
	Broker        string
	ClientID      string
	Username      string
	Password      string
	BufferSize    int           // messages kept while offline
	RetryInterval time.Duration // between connection attempts
	Timeout       time.Duration // per-publish delivery wait before logging a failure
}

// DefaultConfig returns a config for broker with the daemon's defaults.
func DefaultConfig(broker string) Config {
	return Config{
		Broker:        broker,
		ClientID:      "strain-sensor",
		BufferSize:    100,
		RetryInterval: 5 * time.Second,
		Timeout:       5 * time.Second,
	}
}

// RealPublisher publishes to an actual MQTT broker. Connecting does not block: messages
// published while the connection is down are buffered and replayed on (re)connect.
type RealPublisher struct {
	client  paho.Client
	log     logrus.FieldLogger
	timeout time.Duration

	mu        sync.Mutex
	buffer    *ringBuffer
	connected bool // at least one successful connect
	online    bool // buffer drained since the last (re)connect
}

// NewRealPublisher creates a publisher and starts connecting to the broker in the
// background.
func NewRealPublisher(cfg Config, log logrus.FieldLogger) (*RealPublisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("mqtt: no broker configured")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 5 * time.Second
	}

	p := &RealPublisher{
		log:     log,
		timeout: cfg.Timeout,
		buffer:  newRingBuffer(cfg.BufferSize, log),
	}

	will, err := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "OFFLINE",
		Reason:    "MQTT_DISCONNECT",
	})
	if err != nil {
		return nil, fmt.Errorf("format will payload: %w", err)
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.RetryInterval).
		SetOrderMatters(false).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.mu.Lock()
			p.online = false
			p.mu.Unlock()
			log.Warnf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			log.Errorf("mqtt: connect to %s: %v", cfg.Broker, err)
		}
	}()

	return p, nil
}

func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buffer.drainAll()
	reconnect := p.connected
	p.connected = true
	p.online = true
	p.mu.Unlock()

	p.log.Infof("mqtt: connected (%d buffered)", len(pending))

	if reconnect {
		if payload, err := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"}); err == nil {
			p.watch(TopicSystem, c.Publish(TopicSystem, 1, false, payload))
		}
	}
	for _, m := range pending {
		p.watch(m.topic, c.Publish(m.topic, m.qos, m.retained, m.payload))
	}
}

// watch logs a delivery failure without blocking the caller.
func (p *RealPublisher) watch(topic string, token paho.Token) {
	go func() {
		if !token.WaitTimeout(p.timeout) {
			p.log.Warnf("mqtt: publish to %s timed out", topic)
			return
		}
		if err := token.Error(); err != nil {
			p.log.Warnf("mqtt: publish to %s: %v", topic, err)
		}
	}()
}

// publish sends directly when the connection is up and its buffer has been replayed,
// otherwise buffers. The check and the push share p.mu with the drain in onConnect, so a
// message is either sent or seen by the next drain.
func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) {
	p.mu.Lock()
	open := p.client.IsConnectionOpen()
	if !open || !p.online {
		p.buffer.push(bufferedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()
	p.watch(topic, p.client.Publish(topic, qos, retained, payload))
}

// PublishStrain sends a strain record, QoS 0.
func (p *RealPublisher) PublishStrain(rec StrainRecord) error {
	payload, err := FormatStrain(rec)
	if err != nil {
		return fmt.Errorf("format strain payload: %w", err)
	}
	p.publish(TopicStrain, 0, false, payload)
	return nil
}

// PublishLoadCell sends a load-cell record, QoS 0.
func (p *RealPublisher) PublishLoadCell(rec LoadRecord) error {
	payload, err := FormatLoad(rec)
	if err != nil {
		return fmt.Errorf("format load payload: %w", err)
	}
	p.publish(TopicLoad, 0, false, payload)
	return nil
}

// PublishAlert sends an alert, QoS 1.
func (p *RealPublisher) PublishAlert(a Alert) error {
	payload, err := FormatAlert(a)
	if err != nil {
		return fmt.Errorf("format alert payload: %w", err)
	}
	p.publish(TopicAlert, 1, false, payload)
	return nil
}

// PublishSystem sends a system lifecycle event, QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	p.publish(TopicSystem, 1, event.Retained, payload)
	return nil
}

// IsConnected reports whether the connection to the broker is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
