package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/docbot-ai/docbot/internal/config"
	"github.com/docbot-ai/docbot/internal/rag"
	"github.com/docbot-ai/docbot/internal/store/rabbitmq"
)

func workerConcurrency() int {
	v := os.Getenv("WORKER_CONCURRENCY")
	if v == "" {
		return 2
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 2
	}
	if n > 50 {
		return 50
	}
	return n
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	client := rag.NewClient(cfg.RAGBaseURL, cfg.RAGAPIKey)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal("rabbit dial", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("rabbit channel", zap.Error(err))
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.RabbitQueue, true, false, false, false, nil); err != nil {
		log.Fatal("queue declare", zap.Error(err))
	}

	concurrency := workerConcurrency()
	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal("qos", zap.Error(err))
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal("consume", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("worker started",
		zap.String("queue", cfg.RabbitQueue),
		zap.Int("concurrency", concurrency),
	)

	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				var m rabbitmq.IngestMessage
				if err := json.Unmarshal(d.Body, &m); err != nil || m.JobID == "" {
					log.Error("bad message", zap.Int("worker", workerID), zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}

				start := time.Now()
				if err := client.TriggerIngest(ctx); err != nil {
					log.Error("ingest failed",
						zap.Int("worker", workerID),
						zap.String("job_id", m.JobID),
						zap.Duration("cost", time.Since(start)),
						zap.Error(err),
					)
					_ = d.Nack(false, false)
					continue
				}

				log.Info("ingest done",
					zap.Int("worker", workerID),
					zap.String("job_id", m.JobID),
					zap.Uint64("requested_by", m.RequestedBy),
					zap.Duration("cost", time.Since(start)),
				)
				if err := d.Ack(false); err != nil {
					log.Error("ack failed", zap.String("job_id", m.JobID), zap.Error(err))
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn("delivery channel closed")
				time.Sleep(1 * time.Second)
				continue
			}
			jobs <- d
		}
	}
}
