package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const outboxCapacity = 64

// RealPublisher publishes to an actual MQTT broker. Messages sent
// while the connection is down are queued and replayed on reconnect.
type RealPublisher struct {
	client paho.Client

	mu     sync.Mutex
	queued *outbox
}

// NewRealPublisher creates a publisher connected to the given broker.
func NewRealPublisher(broker string) (*RealPublisher, error) {
	p := &RealPublisher{queued: newOutbox(outboxCapacity)}

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("co2-monitor").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return p, nil
}

// onConnect replays any messages queued while disconnected.
func (p *RealPublisher) onConnect(client paho.Client) {
	p.mu.Lock()
	msgs := p.queued.drain()
	p.mu.Unlock()
	if len(msgs) == 0 {
		return
	}

	log.Printf("mqtt: reconnected, replaying %d queued messages", len(msgs))
	for _, m := range msgs {
		token := client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(5 * time.Second) {
			log.Printf("mqtt: replay timeout on %s", m.topic)
			return
		}
		if err := token.Error(); err != nil {
			log.Printf("mqtt: replay on %s: %v", m.topic, err)
			return
		}
	}
}

func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	if !p.client.IsConnected() {
		p.mu.Lock()
		p.queued.add(queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained})
		p.mu.Unlock()
		return nil
	}

	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// PublishSample sends a telemetry sample at QoS 0; a lost sample is
// superseded by the next one.
func (p *RealPublisher) PublishSample(s Sample) error {
	payload, err := FormatSample(s)
	if err != nil {
		return fmt.Errorf("format sample: %w", err)
	}
	return p.publish(TopicSample, 0, false, payload)
}

// PublishAlert sends an alert transition at QoS 1.
func (p *RealPublisher) PublishAlert(e AlertEvent) error {
	payload, err := FormatAlert(e)
	if err != nil {
		return fmt.Errorf("format alert: %w", err)
	}
	return p.publish(TopicAlert, 1, false, payload)
}

// PublishSystem sends a system lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(e SystemEvent) error {
	payload, err := FormatSystem(e)
	if err != nil {
		return fmt.Errorf("format system: %w", err)
	}
	return p.publish(TopicSystem, 1, e.Retained, payload)
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
