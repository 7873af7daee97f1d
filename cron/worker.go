package cron

import (
	"context"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"bookwise/config"
	"bookwise/services/dialogue"
)

const TypeSessionSweep = "session:sweep"

// InitSessionSweeper runs the async worker that expires idle sessions. A
// scheduler enqueues a sweep task every few minutes; the handler walks the
// session store and flips anything idle past the timeout into the expired
// state.
func InitSessionSweeper(svc dialogue.DialogueService) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSessionSweep, handleSweepTask(svc))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register("@every 5m", asynq.NewTask(TypeSessionSweep, nil)); err != nil {
		log.Fatalf("[SessionSweeper] failed to register sweep schedule: %v", err)
	}

	go func() {
		log.Println("[SessionSweeper] starting async worker...")
		const maxAttempts = 5
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[SessionSweeper] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)
				if attempts == maxAttempts {
					log.Fatal("[SessionSweeper] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()

	go func() {
		if err := scheduler.Run(); err != nil {
			log.Printf("[SessionSweeper] scheduler stopped: %v", err)
		}
	}()
}

func handleSweepTask(svc dialogue.DialogueService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		expired, err := svc.ExpireInactive(ctx)
		if err != nil {
			log.Printf("[SessionSweeper] sweep failed: %v", err)
			return err
		}
		if expired > 0 {
			log.Printf("[SessionSweeper] expired %d idle sessions", expired)
		}
		return nil
	}
}
