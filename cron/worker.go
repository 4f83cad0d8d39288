package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"frontdesk/config"
	bookingsRepo "frontdesk/database/repository/bookings"
	"frontdesk/models"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const TypeReminderSend = "reminder:send"

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	}
}

// NewReminderTask builds the asynq task for an appointment reminder.
func NewReminderTask(p models.ReminderPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReminderSend, payload), nil
}

// EnqueueReminder schedules a reminder to fire leadTime before the
// appointment starts. Appointments already inside the lead window get
// no reminder.
func EnqueueReminder(p models.ReminderPayload, leadTime time.Duration) error {
	fireAt := p.Start.Add(-leadTime)
	if !fireAt.After(time.Now()) {
		log.Printf("[ReminderWorker] appointment %s starts too soon, skipping reminder", p.BookingID)
		return nil
	}

	task, err := NewReminderTask(p)
	if err != nil {
		return err
	}

	client := asynq.NewClient(redisOpts())
	defer client.Close()

	_, err = client.Enqueue(task, asynq.ProcessAt(fireAt))
	return err
}

// InitReminderWorker runs the async worker in background.
func InitReminderWorker(repo bookingsRepo.BookingRepository) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeReminderSend, handleReminderTask(repo))

	// Start Redis health monitor
	go monitorRedisConnection()

	// Start async worker with retry logic
	go func() {
		log.Println("[ReminderWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ReminderWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ReminderWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleReminderTask(repo bookingsRepo.BookingRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p models.ReminderPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[ReminderHandler] Invalid payload: %v", err)
			return err
		}

		record, err := repo.GetByID(ctx, p.BookingID)
		if err != nil {
			log.Printf("[ReminderHandler] Booking %s not found, dropping reminder: %v", p.BookingID, err)
			return nil
		}
		if record.Reminded {
			return nil
		}

		log.Printf("[ReminderHandler] Reminder for %s <%s>: %s at %s",
			p.CallerName, p.Email, p.Summary, p.Start.Format(time.RFC1123))

		if err := repo.MarkReminded(ctx, p.BookingID); err != nil {
			log.Printf("[ReminderHandler] Failed to mark booking %s reminded: %v", p.BookingID, err)
			return err
		}
		return nil
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[ReminderWorker] Redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
