// mqtt.go - MQTT client used to broadcast rating and catalog events

package mqtt // Declares the package name

import ( // Import required packages
	"context"       // Sink signature
	"encoding/json" // Event payloads are JSON
	"fmt"           // Topic formatting and errors
	"time"          // Publish timeouts

	"go-ratings-backend/events" // Domain events

	paho "github.com/eclipse/paho.mqtt.golang" // MQTT client library
)

const publishTimeout = 5 * time.Second

// publisher is the part of paho.Client the sink needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Client publishes domain events to an MQTT broker.
type Client struct {
	conn   publisher
	prefix string // Topic prefix, e.g. "ratings"
}

// Connect dials broker (e.g. "tcp://localhost:1883") and returns a ready client.
func Connect(broker, clientID string) (*Client, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	c := paho.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt: connect to %s timed out", broker)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("mqtt: connect to %s: %w", broker, err)
	}
	return &Client{conn: c, prefix: "ratings"}, nil
}

// Publish sends payload to topic with QoS 1. Non-byte payloads are JSON encoded.
func (c *Client) Publish(topic string, payload interface{}) error {
	body, ok := payload.([]byte)
	if !ok {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return err
		}
	}
	tok := c.conn.Publish(topic, 1, false, body)
	if !tok.WaitTimeout(publishTimeout) {
		return fmt.Errorf("mqtt: publish to %s timed out", topic)
	}
	return tok.Error()
}

// Deliver implements events.Sink. Topics look like ratings/stores/12/rating.submitted.
func (c *Client) Deliver(_ context.Context, e events.Event) error {
	return c.Publish(Topic(c.prefix, e), e)
}

// Close disconnects from the broker, waiting briefly for in-flight messages.
func (c *Client) Close() {
	if pc, ok := c.conn.(paho.Client); ok {
		pc.Disconnect(250)
	}
}

// Topic names the MQTT topic an event is published on.
func Topic(prefix string, e events.Event) string {
	switch e.Type {
	case events.UserDeleted:
		return fmt.Sprintf("%s/users/%d/%s", prefix, e.UserID, e.Type)
	default:
		return fmt.Sprintf("%s/stores/%d/%s", prefix, e.StoreID, e.Type)
	}
}
