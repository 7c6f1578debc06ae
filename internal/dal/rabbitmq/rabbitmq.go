package rabbitmq

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"sync"

	"github.com/spf13/viper"
	"github.com/streadway/amqp"
)

// Client owns one AMQP connection and the channel every publisher shares.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	mu      sync.Mutex
}

// MustNewClient dials the broker configured under rabbitmq.* and opens a channel.
func MustNewClient() *Client {
	addr := brokerURL(
		viper.GetString("rabbitmq.host"),
		viper.GetInt("rabbitmq.port"),
		os.Getenv("RABBITMQ_DEFAULT_USER"),
		os.Getenv("RABBITMQ_DEFAULT_PASS"),
	)

	conn, err := amqp.Dial(addr.String())
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to RabbitMQ at %s: %v", addr.Redacted(), err))
	}

	channel, err := conn.Channel()
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			panic(fmt.Sprintf("Failed to close a connection: %v", closeErr))
		}
		panic(fmt.Sprintf("Failed to open a channel: %v", err))
	}

	slog.Info("RabbitMQ connected", "addr", addr.Redacted())

	return &Client{
		conn:    conn,
		channel: channel,
	}
}

func brokerURL(host string, port int, user, password string) *url.URL {
	if host == "" {
		host = "rabbitmq"
	}
	if port == 0 {
		port = 5672
	}

	return &url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(user, password),
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/",
	}
}

// DeclareDurableQueue makes sure the named queue exists and survives broker restarts.
func (r *Client) DeclareDurableQueue(name string) (amqp.Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.QueueDeclare(name, true, false, false, false, nil)
}

// Publish sends msg through the shared channel. Calls are serialized.
func (r *Client) Publish(exchange, routingKey string, msg amqp.Publishing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.channel.Publish(exchange, routingKey, false, false, msg)
}

func (r *Client) Close() error {
	if r.channel != nil {
		if err := r.channel.Close(); err != nil {
			return err
		}
	}
	if r.conn != nil {
		return r.conn.Close()
	}

	return nil
}
