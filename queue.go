/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package reachout

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/blnkfinance/reachout/config"
	redis_db "github.com/blnkfinance/reachout/internal/redis-db"
	"github.com/hibiken/asynq"
)

// Queue carries outbound webhook tasks to the workers process.
type Queue struct {
	Client       *asynq.Client
	Inspector    *asynq.Inspector
	webhookQueue string
}

func NewQueue(conf *config.Configuration) (*Queue, error) {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	return &Queue{
		Client:       asynq.NewClient(queueOptions),
		Inspector:    asynq.NewInspector(queueOptions),
		webhookQueue: conf.Queue.WebhookQueue,
	}, nil
}

// EnqueueWebhook schedules hook for delivery.
func (q *Queue) EnqueueWebhook(hook NewWebhook) error {
	payload, err := json.Marshal(hook)
	if err != nil {
		return err
	}

	task := asynq.NewTask(q.webhookQueue, payload, asynq.Queue(q.webhookQueue), asynq.MaxRetry(5))
	info, err := q.Client.Enqueue(task)
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued webhook: %s", hook.Event)
	return nil
}

// WebhookBacklog reports how many webhook tasks are waiting or retrying.
func (q *Queue) WebhookBacklog() (int, error) {
	info, err := q.Inspector.GetQueueInfo(q.webhookQueue)
	if err != nil {
		return 0, err
	}
	return info.Pending + info.Retry + info.Scheduled, nil
}

func (q *Queue) Close() error {
	if err := q.Inspector.Close(); err != nil {
		return err
	}
	return q.Client.Close()
}
