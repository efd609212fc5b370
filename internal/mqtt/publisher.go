package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"linky-monitor/internal/snapshot"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var publishFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "linky_mqtt_publish_failures_total",
	Help: "Publishes that failed or timed out waiting for the broker ack.",
})

// Publisher delivers snapshots to the broker as retained QoS 1 messages.
// The paho client owns the connection event loop; every publish is a
// blocking rendezvous bounded by the configured timeout.
type Publisher struct {
	client         mqtt.Client
	stateTopic     string
	discoveryTopic string
	veilleTopic    string
	timeout        time.Duration
	enabled        bool
}

type PublisherConfig struct {
	Broker         string
	ClientID       string
	Username       string
	Password       string
	StateTopic     string
	DiscoveryTopic string
	VeilleTopic    string
	PublishTimeout time.Duration
	Enabled        bool
}

func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if !cfg.Enabled {
		return &Publisher{enabled: false}, nil
	}

	timeout := cfg.PublishTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			log.Printf("MQTT connection lost: %v", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Println("MQTT connected")
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	// Without a broker no snapshot can ever be delivered; the caller
	// treats this error as fatal at startup.
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("timed out connecting to MQTT broker %s", cfg.Broker)
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{
		client:         client,
		stateTopic:     cfg.StateTopic,
		discoveryTopic: cfg.DiscoveryTopic,
		veilleTopic:    cfg.VeilleTopic,
		timeout:        timeout,
		enabled:        true,
	}, nil
}

// PublishSnapshot sends the full record to the state topic. An ack timeout
// is logged and reported; the next cycle is the retry.
func (p *Publisher) PublishSnapshot(snap *snapshot.Snapshot) error {
	if !p.enabled {
		return nil
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	return p.publish(p.stateTopic, payload)
}

// PublishVeille sends yesterday's total consumption to its own sensor topic.
func (p *Publisher) PublishVeille(kwh float64) error {
	if !p.enabled {
		return nil
	}
	return p.publish(p.veilleTopic+"/state", []byte(strconv.FormatFloat(kwh, 'f', 2, 64)))
}

// PublishDiscovery announces both sensors to Home Assistant. Retained, so a
// restarting Home Assistant picks them up again.
func (p *Publisher) PublishDiscovery() error {
	if !p.enabled {
		return nil
	}

	device := map[string]interface{}{
		"identifiers":  []string{"linky"},
		"name":         "Compteur Linky",
		"manufacturer": "Enedis",
		"model":        "Linky",
	}

	main := map[string]interface{}{
		"name":                  "Linky",
		"state_topic":           p.stateTopic,
		"value_template":        "{{ value_json.current_year }}",
		"json_attributes_topic": p.stateTopic,
		"unit_of_measurement":   "kWh",
		"device_class":          "energy",
		"icon":                  "mdi:counter",
		"unique_id":             "linky_sensor",
		"device":                device,
	}
	payload, err := json.Marshal(main)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery config: %w", err)
	}
	if err := p.publish(p.discoveryTopic, payload); err != nil {
		return err
	}

	veille := map[string]interface{}{
		"name":                "Consommation veille Linky",
		"state_topic":         p.veilleTopic + "/state",
		"unit_of_measurement": "kWh",
		"icon":                "mdi:flash",
		"unique_id":           "linky_veille_sensor",
		"device":              device,
	}
	payload, err = json.Marshal(veille)
	if err != nil {
		return fmt.Errorf("failed to marshal veille discovery config: %w", err)
	}
	return p.publish(p.veilleTopic+"/config", payload)
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 1, true, payload)
	if !token.WaitTimeout(p.timeout) {
		publishFailuresTotal.Inc()
		return fmt.Errorf("publish to %s timed out after %s", topic, p.timeout)
	}
	if token.Error() != nil {
		publishFailuresTotal.Inc()
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
