package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thep200/github-recommender/cfg"
	"github.com/thep200/github-recommender/internal/model"
	"github.com/thep200/github-recommender/pkg/db"
	"github.com/thep200/github-recommender/pkg/kafka"
	"github.com/thep200/github-recommender/pkg/log"
)

func main() {
	// Load configuration
	loader, _ := cfg.NewViperLoader()
	config, err := loader.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, _ := log.NewCslLogger()

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup database
	mysql, _ := db.NewMysql(config)
	recommendationModel, _ := model.NewRecommendation(config, logger, mysql)
	if err := mysql.Migrate(recommendationModel); err != nil {
		logger.Error(ctx, "Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := startRecommendationConsumer(ctx, config, logger, recommendationModel); err != nil {
		logger.Error(ctx, "Failed to start consumer: %v", err)
		os.Exit(1)
	}

	// Wait for termination signal
	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
	cancel()
}

func startRecommendationConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, recommendationModel *model.Recommendation) error {
	consumer, err := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicRecommendation, "recommendation-consumer-group")
	if err != nil {
		return err
	}

	// Channel for collecting messages in batches
	batchSize := 100
	batchTimeout := 5 * time.Second
	messages := make(chan model.RecommendationMessage, batchSize*2)

	// Batch processor
	go processBatchedRecommendations(ctx, messages, batchSize, batchTimeout, logger, recommendationModel)

	// Register handler for recommendation messages
	consumer.RegisterHandler("recommendation", func(data []byte) error {
		var msg model.RecommendationMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal recommendation message: %w", err)
		}

		select {
		case messages <- msg:
			// Message added to batch
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	// Start consumer in a goroutine
	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Recommendation consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "Recommendation consumer started successfully")
	return nil
}

func processBatchedRecommendations(ctx context.Context, messages <-chan model.RecommendationMessage, batchSize int,
	batchTimeout time.Duration, logger log.Logger, recommendationModel *model.Recommendation) {

	var batch []model.RecommendationMessage
	timer := time.NewTimer(batchTimeout)

	for {
		select {
		case <-ctx.Done():
			// Process remaining messages before exiting
			if len(batch) > 0 {
				saveBatch(ctx, batch, logger, recommendationModel)
			}
			return

		case msg := <-messages:
			batch = append(batch, msg)

			// Process batch when it reaches the desired size
			if len(batch) >= batchSize {
				saveBatch(ctx, batch, logger, recommendationModel)
				batch = nil
				timer.Reset(batchTimeout)
			}

		case <-timer.C:
			if len(batch) > 0 {
				saveBatch(ctx, batch, logger, recommendationModel)
				batch = nil
			}
			timer.Reset(batchTimeout)
		}
	}
}

func saveBatch(ctx context.Context, batch []model.RecommendationMessage, logger log.Logger, recommendationModel *model.Recommendation) {
	if len(batch) == 0 {
		return
	}

	logger.Info(ctx, "Processing batch of %d recommendations", len(batch))

	if err := recommendationModel.CreateBatch(batch); err != nil {
		logger.Error(ctx, "Failed to save batch of recommendations: %v", err)
	} else {
		logger.Info(ctx, "Successfully saved batch of %d recommendations", len(batch))
	}
}
