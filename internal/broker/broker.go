// FilePath: internal/broker/broker.go
package broker

import (
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/itsatony/telemhub/internal/config"
	"github.com/itsatony/telemhub/internal/errors"
	nuts "github.com/vaudience/go-nuts"
)

// MessageHandler processes one raw payload delivered on a topic.
type MessageHandler func(topic string, payload []byte)

// Client wraps the upstream MQTT connection. While the broker is down the
// client retries on a fixed period and ingestion simply pauses; messages
// published meanwhile are lost, which is the at-most-once contract. On every
// reconnect the active subscription is re-established before message
// handling resumes.
type Client struct {
	client mqtt.Client
	cfg    config.MQTTConfig

	mu      sync.Mutex
	topic   string
	handler MessageHandler
}

// Connect dials the broker. The returned client keeps itself connected until
// Disconnect is called.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{cfg: cfg}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetKeepAlive(cfg.KeepAlive)
	opts.SetConnectTimeout(cfg.ConnectTimeout)
	opts.SetOrderMatters(true)

	// Fixed-period reconnection, both for the initial dial and after a
	// connection loss.
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(cfg.ReconnectInterval)
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(cfg.ReconnectInterval)

	opts.SetOnConnectHandler(c.onConnect)
	opts.SetConnectionLostHandler(c.onConnectionLost)

	c.client = mqtt.NewClient(opts)
	if token := c.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.NewBrokerError("failed to connect to MQTT broker", token.Error())
	}
	return c, nil
}

// Subscribe registers the handler for the topic filter. The subscription
// survives reconnects via the OnConnect hook.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	c.mu.Lock()
	c.topic = topic
	c.handler = handler
	c.mu.Unlock()

	return c.subscribe(topic, handler)
}

func (c *Client) subscribe(topic string, handler MessageHandler) error {
	token := c.client.Subscribe(topic, c.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return errors.NewBrokerError("failed to subscribe to "+topic, token.Error())
	}
	nuts.L.Infof("[Broker] Subscribed to %s", topic)
	return nil
}

func (c *Client) onConnect(_ mqtt.Client) {
	nuts.L.Infof("[Broker] Connected to %s", c.cfg.BrokerURL)

	c.mu.Lock()
	topic, handler := c.topic, c.handler
	c.mu.Unlock()

	if topic == "" {
		return
	}
	if err := c.subscribe(topic, handler); err != nil {
		nuts.L.Errorf("[Broker] Resubscribe failed: %v", err)
	}
}

func (c *Client) onConnectionLost(_ mqtt.Client, err error) {
	nuts.L.Warnf("[Broker] Connection lost: %v, retrying every %v", err, c.cfg.ReconnectInterval)
}

// IsConnected reports whether the broker link is currently up.
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}

// Disconnect closes the broker connection deliberately; no reconnection
// follows.
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}
