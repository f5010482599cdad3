package main

import (
	"context"
	"flag"

	"task_tracker/internal/config"
	"task_tracker/internal/logger"
	"task_tracker/internal/service"
	"task_tracker/internal/store"
)

func main() {
	email := flag.String("email", "tester@example.com", "email of the user to create")
	withTask := flag.Bool("task", true, "also create a sample task for the user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", "error", err)
	}
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("open store", "error", err)
	}
	defer st.Close()

	users := service.NewUserService(st)
	u, created, err := users.Create(ctx, *email)
	if err != nil {
		logger.Fatal("create user failed", "error", err)
	}
	if created {
		logger.Info("user created", "id", u.ID, "email", u.Email)
	} else {
		logger.Info("user already exists", "id", u.ID, "email", u.Email)
	}

	// verify read
	u2, err := users.GetByEmail(ctx, u.Email)
	if err != nil {
		logger.Fatal("get by email failed", "error", err)
	}
	logger.Info("fetched user", "id", u2.ID, "email", u2.Email)

	if !*withTask {
		return
	}
	desc := "created by create_test_user"
	t, err := service.NewTaskService(st).Create(ctx, service.CreateTaskInput{
		Title:       "Sample task",
		Description: &desc,
		UserID:      u2.ID,
	})
	if err != nil {
		logger.Fatal("create task failed", "error", err)
	}
	logger.Info("task created", "id", t.ID, "user_id", t.UserID)
}
