package worker

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"
)

// Server runs the asynq worker that delivers notifications and emails.
type Server struct {
	srv *asynq.Server
	mux *asynq.ServeMux
	log *logrus.Logger
}

func NewServer(redisOpt asynq.RedisClientOpt, concurrency int, handlers *Handlers, log *logrus.Logger) *Server {
	if concurrency <= 0 {
		concurrency = 10
	}
	srv := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
		Logger:          log,
		ShutdownTimeout: 10 * time.Second,
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, t *asynq.Task, err error) {
			log.Warnf("Task %s failed: %+v", t.Type(), err)
		}),
	})

	mux := asynq.NewServeMux()
	handlers.Register(mux)

	return &Server{srv: srv, mux: mux, log: log}
}

// Start begins processing in background goroutines.
func (s *Server) Start() error {
	s.log.Info("Starting task worker")
	return s.srv.Start(s.mux)
}

func (s *Server) Shutdown() {
	s.srv.Shutdown()
	s.log.Info("Task worker stopped")
}
