package main

import (
	"log"
	"os"

	"closetapi/dbhelper"
	"closetapi/recommendation"
	"closetapi/services"
	"closetapi/tasks"

	"github.com/hibiken/asynq"
)

func main() {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: os.Getenv("ASYNC_BROKER_ADDRESS")},
		asynq.Config{Concurrency: 10, Queues: map[string]int{
			"preferences": 7,
		}},
	)

	db := dbhelper.SetupDB()
	oracle := &services.GoogleTextOracle{Model: services.Flash25}
	engine, err := recommendation.NewEngine(db, oracle, recommendation.TrendsFromEnv())
	if err != nil {
		log.Fatalf("[Queue] Failed to initialize recommendation engine: %v", err)
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePreferenceRefresh, tasks.HandlePreferenceRefreshTask(db, engine))

	if err := srv.Run(mux); err != nil {
		log.Fatal(err)
	}
}
