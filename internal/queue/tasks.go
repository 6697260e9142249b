package queue

import (
  "encoding/json"
  "fmt"

  "github.com/hibiken/asynq"
)

const (
  CleanupQueue          = "cleanupQueue"
  TypeDeleteUnverified  = "delete-unverified"
)

type CleanupPayload struct {
  Email     string    `json:"email"`
}

func NewDeleteUnverifiedTask(email string, opts ...asynq.Option) (*asynq.Task, error) {
  payload, err := json.Marshal(CleanupPayload{Email: email})
  if err != nil {
    return nil, fmt.Errorf("encode cleanup payload: %w", err)
  }
  return asynq.NewTask(TypeDeleteUnverified, payload, opts...), nil
}

func ParseCleanupPayload(t *asynq.Task) (CleanupPayload, error) {
  var p CleanupPayload
  if err := json.Unmarshal(t.Payload(), &p); err != nil {
    return p, fmt.Errorf("decode cleanup payload: %w", err)
  }
  if p.Email == "" {
    return p, fmt.Errorf("cleanup payload has no email")
  }
  return p, nil
}

func redisOpt(addr, password string, db int) asynq.RedisClientOpt {
  return asynq.RedisClientOpt{Addr: addr, Password: password, DB: db}
}
