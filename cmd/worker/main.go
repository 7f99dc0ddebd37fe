package main

import (
	"context"
	"log"
	"os"

	"github.com/M2YTech/libaas-backend/dbhelper"
	"github.com/M2YTech/libaas-backend/services"
	"github.com/M2YTech/libaas-backend/tasks"

	firebase "firebase.google.com/go/v4"
	"github.com/hibiken/asynq"
)

func runScheduler() {

	scheduler := asynq.NewScheduler(asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")}, &asynq.SchedulerOpts{
		LogLevel: asynq.InfoLevel,
	})

	styleTipTask, err := tasks.NewStyleTipFanoutTask()
	if err != nil {
		log.Fatalf("Failed to build style tip task: %v", err)
	}
	scheduled := []struct {
		cron string
		task *asynq.Task
		desc string
	}{
		{
			cron: "0 9 * * *", // 9:00 AM daily
			task: styleTipTask,
			desc: "Daily style tip notifications",
		},
	}

	for _, t := range scheduled {
		entryID, err := scheduler.Register(t.cron, t.task, asynq.Queue("analyze"))
		if err != nil {
			log.Fatalf("Failed to register task '%s': %v", t.desc, err)
		}
		log.Printf("Registered task '%s' with ID: %s, cron: %s", t.desc, entryID, t.cron)
	}

	log.Println("Starting scheduler...")
	if err := scheduler.Run(); err != nil {
		log.Fatalf("Scheduler failed: %v", err)
	}
}

func main() {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: map[string]int{
			"analyze": 6,
			"process": 4,
		}},
	)
	awsService := &services.AWSService{}
	err := awsService.InitPresignClient(context.Background())
	if err != nil {
		log.Fatal("[Queue] Failed to initialize AWS provider: S3")
	}
	app, err := firebase.NewApp(context.Background(), nil)
	if err != nil {
		log.Fatalf("error initializing firebase app: %v\n", err)
		return
	}
	visionLLM := services.NewVisionService(os.Getenv("OPENAI_API_KEY"))
	tipService := services.NewGoogleTipService(os.Getenv("GOOGLE_API_KEY"))

	mux := asynq.NewServeMux()
	db := dbhelper.SetupDB()
	mux.HandleFunc(tasks.TypeAnalyzeProfilePhoto, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleAnalyzeProfilePhotoTask(ctx, t, db, visionLLM, awsService, app)
	})
	mux.HandleFunc(tasks.TypeProcessWardrobeImage, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleProcessWardrobeImageTask(ctx, t, db, awsService)
	})
	mux.HandleFunc(tasks.TypeNotifyStyleTip, func(ctx context.Context, t *asynq.Task) error {
		return tasks.HandleStyleTipFanoutTask(ctx, t, db, tipService, app)
	})

	go runScheduler()
	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
