package queue

import (
	"fmt"
	"time"

	"github.com/isEarth/earth-api/internal/util"
	"github.com/isEarth/earth-api/pkg/logger"

	"github.com/rabbitmq/amqp091-go"
)

// TranscriptQueue carries submitted transcript runs waiting to be processed.
const TranscriptQueue = "transcript_queue"

func Init() *amqp091.Connection {
	user := util.GetEnv("RABBITMQ_USER")
	pass := util.GetEnv("RABBITMQ_PASSWORD")
	host := util.GetEnv("RABBITMQ_HOST")
	port := util.GetEnv("RABBITMQ_PORT")

	connURL := fmt.Sprintf(
		"amqp://%s:%s@%s:%s/",
		user,
		pass,
		host,
		port,
	)

	conn, err := amqp091.Dial(connURL)
	if err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", "err", err)
	}

	return conn
}

// SetupQueues declares each named queue together with its dead-letter and
// retry companions. Messages parked on the retry queue expire after 10s and
// are routed back onto the main queue.
func SetupQueues(ch *amqp091.Channel, queueNames []string) error {
	for _, name := range queueNames {
		_, err := ch.QueueDeclare(
			name,
			true,  // durable
			false, // autoDelete
			false, // exclusive
			false, // noWait
			nil,   // args
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", name, "err", err)
		}

		dlqName := name + "_dlq"
		_, err = ch.QueueDeclare(
			dlqName,
			true,
			false,
			false,
			false,
			nil,
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", dlqName, "err", err)
		}

		retryName := name + "_retry"
		_, err = ch.QueueDeclare(
			retryName,
			true,
			false,
			false,
			false,
			amqp091.Table{
				"x-message-ttl":             int32(10000),
				"x-dead-letter-exchange":    "",
				"x-dead-letter-routing-key": name,
			},
		)
		if err != nil {
			logger.Fatal("QueueDeclare failed", "queue", retryName, "err", err)
		}
	}

	return nil
}

func PublishFIFO(ch *amqp091.Channel, queueName string, data []byte) error {
	q, err := ch.QueueDeclare(
		queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		Body:         data,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
	}

	err = ch.Publish(
		"",
		q.Name,
		false,
		false,
		publishing,
	)
	if err != nil {
		return err
	}

	return nil
}
