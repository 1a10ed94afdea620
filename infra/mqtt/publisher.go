// Package mqtt publishes dispatch schedules to a home-automation broker so
// downstream controllers can pick up the planned battery flows.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kwhlab/battsim/core/model"
)

// Config defines the broker connection and target topic.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Topic    string `json:"topic"`
	QoS      byte   `json:"qos"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "battsim"
	}
	if c.Topic == "" {
		c.Topic = "battsim/schedule"
	}
}

// Publisher pushes simulation results to interested subscribers.
type Publisher interface {
	PublishSchedule(simModel string, res *model.DispatchResult) error
	Close()
}

// PahoPublisher implements Publisher over an MQTT broker.
type PahoPublisher struct {
	client paho.Client
	topic  string
	qos    byte
}

// NewPahoPublisher connects to the broker and returns a ready publisher.
func NewPahoPublisher(cfg Config) (*PahoPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(5 * time.Second).
		SetAutoReconnect(true)

	client := paho.NewClient(opts)
	token := client.Connect()
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &PahoPublisher{client: client, topic: cfg.Topic, qos: cfg.QoS}, nil
}

type schedulePayload struct {
	Model         string    `json:"model"`
	GridDrawWh    []float64 `json:"grid_draw_wh"`
	BatteryFlowWh []float64 `json:"battery_flow_wh"`
	SoCWh         []float64 `json:"soc_wh"`
	TotalCostEur  float64   `json:"total_cost_eur"`
}

// PublishSchedule publishes the result as JSON on the configured topic.
func (p *PahoPublisher) PublishSchedule(simModel string, res *model.DispatchResult) error {
	payload, err := json.Marshal(schedulePayload{
		Model:         simModel,
		GridDrawWh:    res.GridDrawWh,
		BatteryFlowWh: res.BatteryFlowWh,
		SoCWh:         res.SoCWh,
		TotalCostEur:  res.TotalCostEur,
	})
	if err != nil {
		return err
	}
	token := p.client.Publish(p.topic, p.qos, false, payload)
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (p *PahoPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
