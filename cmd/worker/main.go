package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isEarth/earth-api/internal/db"
	"github.com/isEarth/earth-api/internal/queue"
	"github.com/isEarth/earth-api/internal/storage"
	"github.com/isEarth/earth-api/internal/util"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/isEarth/earth-api/pkg/ai"
	oai "github.com/isEarth/earth-api/pkg/ai/ollama"
	gai "github.com/isEarth/earth-api/pkg/ai/openai"
	"github.com/isEarth/earth-api/pkg/classify"
	"github.com/isEarth/earth-api/pkg/logger"
	"github.com/isEarth/earth-api/pkg/logger/console"
	"github.com/isEarth/earth-api/pkg/nlp"
	"github.com/isEarth/earth-api/pkg/pipeline"
	neostore "github.com/isEarth/earth-api/pkg/store/neo4j"
	"github.com/isEarth/earth-api/pkg/topic"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkoukk/tiktoken-go"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	// Init s3 client
	s3Client := storage.NewS3Client(ctx)

	// GraphAiClient
	adapter := util.GetEnv("AI_ADAPTER")
	var aiClient ai.GraphAIClient

	switch adapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			BaseURL: util.GetEnv("AI_CHAT_URL"),
			ApiKey:  util.GetEnv("AI_CHAT_KEY"),

			EmbedDimensions:       util.GetEnvInt("AI_EMBED_DIM", 0),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
		if err != nil {
			logger.Fatal("Could not create Ollama client", "err", err)
		}
		aiClient = client
	default:
		aiClient = gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel:      util.GetEnv("AI_CHAT_MODEL"),
			EmbeddingModel: util.GetEnv("AI_EMBED_MODEL"),

			ChatURL:      util.GetEnv("AI_CHAT_URL"),
			ChatKey:      util.GetEnv("AI_CHAT_KEY"),
			EmbeddingURL: util.GetEnv("AI_EMBED_URL"),
			EmbeddingKey: util.GetEnv("AI_EMBED_KEY"),

			EmbedDimensions:       util.GetEnvInt("AI_EMBED_DIM", 0),
			MaxConcurrentRequests: int64(util.GetEnvNumeric("AI_PARALLEL_REQ", 15)),
		})
	}

	// Korean analyzer and sentence classifier sidecars
	analyzer, err := nlp.NewClient(ctx, nlp.NewClientParams{
		BaseURL: util.GetEnv("NLP_URL"),
	})
	if err != nil {
		logger.Fatal("Could not reach analyzer", "err", err)
	}

	classifier, err := classify.NewClient(ctx, classify.NewClientParams{
		BaseURL: util.GetEnv("CLASSIFIER_URL"),
	})
	if err != nil {
		logger.Fatal("Could not reach classifier", "err", err)
	}

	// Topic model artifact
	topics, err := topic.LoadModel(util.GetEnvString("TOPIC_MODEL_PATH", "assets/topic_model.json"))
	if err != nil {
		logger.Fatal("Could not load topic model", "err", err)
	}

	// Graph store
	graphStore, err := neostore.NewGraphNeo4jStore(neostore.NewGraphNeo4jStoreParams{
		URI:      util.GetEnv("NEO4J_URI"),
		Username: util.GetEnv("NEO4J_USERNAME"),
		Password: util.GetEnv("NEO4J_PASSWORD"),
		Database: util.GetEnv("NEO4J_DATABASE"),
	})
	if err != nil {
		logger.Fatal("Could not create graph store", "err", err)
	}
	defer graphStore.Close(ctx)
	if err := graphStore.VerifyConnectivity(ctx); err != nil {
		logger.Fatal("Could not reach graph store", "err", err)
	}

	// Token accounting encoding, fetched once so a broken cache fails here
	// and not mid-run
	if _, err := tiktoken.GetEncoding("o200k_base"); err != nil {
		logger.Fatal("Could not load token encoding", "err", err)
	}

	pl := pipeline.NewPipeline(pipeline.NewPipelineParams{
		AIClient:            aiClient,
		Analyzer:            analyzer,
		Classifier:          classifier,
		Topics:              topics,
		Store:               graphStore,
		CompletionModel:     util.GetEnv("AI_CHAT_MODEL"),
		MaxParallel:         util.GetEnvInt("AI_PARALLEL_REQ", 0),
		SimilarityThreshold: util.GetEnvNumeric("GROUP_SIMILARITY", 0),
	})

	// Init pgx client
	databaseURL := util.GetEnv("DATABASE_URL")
	migrationsPath := util.GetEnvString("MIGRATIONS_PATH", "file://internal/db/migrations")
	if err := db.Migrate(databaseURL, migrationsPath); err != nil {
		logger.Fatal("Failed to run migrations", "err", err)
	}
	pgConn, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		logger.Fatal("Unable to connect to database", "err", err)
	}
	defer pgConn.Close()

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	// Init rabbitmq queues if not exist
	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	queues := []string{queue.TranscriptQueue}
	queue.SetupQueues(ch, queues)

	if err := queue.RecoverStaleRuns(ctx, pgConn); err != nil {
		logger.Warn("Failed to recover stale runs", "err", err)
	}

	logger.Info("Listening for messages")

	// Create a single consumer channel with prefetch=1
	// This ensures only ONE message is delivered at a time across all queues
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	err = consumerCh.Qos(1, 0, true)
	if err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	type queuedMessage struct {
		msg       amqp.Delivery
		queueName string
	}

	messageChan := make(chan queuedMessage)

	for _, queueName := range queues {
		go func(qName string) {
			consumerTag := fmt.Sprintf("%s_consumer", qName)
			msgs, err := consumerCh.Consume(
				qName,
				consumerTag,
				false, // autoAck
				false, // exclusive
				false, // noLocal
				false, // noWait
				nil,   // args
			)
			if err != nil {
				logger.Fatal("Failed to start consuming", "queue", qName, "err", err)
			}

			for {
				select {
				case <-ctx.Done():
					logger.Info("Stopping consumer", "queue", qName)
					return
				case msg, ok := <-msgs:
					if !ok {
						logger.Info("Message channel closed", "queue", qName)
						return
					}
					messageChan <- queuedMessage{msg: msg, queueName: qName}
				}
			}
		}(queueName)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				logger.Info("Stopping message processor")
				return
			case qm := <-messageChan:
				startTime := time.Now()
				logger.Info("Received message", "queue", qm.queueName)

				var processingErr error
				switch qm.queueName {
				case queue.TranscriptQueue:
					processingErr = queue.ProcessTranscript(ctx, s3Client, pl, ch, pgConn, string(qm.msg.Body))
				}

				// If there was an error send to retry or dead-letter, otherwise ack the message
				if processingErr != nil {
					logger.Error("Error processing message", "queue", qm.queueName, "err", processingErr)
					handleProcessingError(consumerCh, qm.msg, qm.queueName)
				} else {
					err = qm.msg.Ack(false)
					if err != nil {
						logger.Error("Failed to ack message", "err", err)
					}
					logger.Info("Message processed successfully", "queue", qm.queueName)
				}

				metrics := aiClient.GetMetrics()
				aiDuration := time.Duration(metrics.DurationMs) * time.Millisecond
				aiHours := int(aiDuration.Hours())
				aiMinutes := int(aiDuration.Minutes()) % 60
				aiSeconds := int(aiDuration.Seconds()) % 60
				logger.Info(
					"AI Metrics",
					"input_tokens", metrics.InputTokens,
					"output_tokens", metrics.OutputTokens,
					"total_tokens", metrics.TotalTokens,
					"duration", fmt.Sprintf("%02d:%02d:%02d", aiHours, aiMinutes, aiSeconds),
				)

				processingDuration := time.Since(startTime)
				hours := int(processingDuration.Hours())
				minutes := int(processingDuration.Minutes()) % 60
				seconds := int(processingDuration.Seconds()) % 60
				logger.Info(
					"Processing time",
					"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
				)
				logger.Info("Waiting for next message")
				aiClient.ResetMetrics()
			}
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received, exiting...")
}

func handleProcessingError(ch *amqp.Channel, msg amqp.Delivery, queueName string) {
	retries := 0
	if val, ok := msg.Headers["x-retries"]; ok {
		if v, ok := val.(int32); ok {
			retries = int(v)
		}
	}

	// If message has been retried 10 times, send to dead-letter
	if retries >= 10 {
		dlqName := queueName + "_dlq"
		logger.Info("Sending message to DLQ", "dlq", dlqName)
		pubErr := ch.Publish(
			"",
			dlqName,
			false,
			false,
			amqp.Publishing{
				ContentType: "application/json",
				Body:        msg.Body,
				Headers:     msg.Headers,
			},
		)
		if pubErr != nil {
			logger.Error("Failed to publish to DLQ", "dlq", dlqName, "err", pubErr)
			msg.Nack(false, true)
			return
		}
		msg.Ack(false)
		return
	}

	retryName := queueName + "_retry"
	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers["x-retries"] = retries + 1

	pubErr := ch.Publish(
		"",
		retryName,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        msg.Body,
			Headers:     headers,
		},
	)
	if pubErr != nil {
		logger.Error("Failed to publish to retry queue", "retry_queue", retryName, "err", pubErr)
		msg.Nack(false, true)
		return
	}
	msg.Ack(false)
}
