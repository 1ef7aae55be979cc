package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	AppVersion             = "v1.0.0"
	AppPort                = "3000"
	AppDebug               = false
	AppBasicAuthCredential []string
	AppBasePath            = ""

	PathStorages = "storages"

	DBDriver = "sqlite"
	DBURI    = "storages/telegram-chat.db"

	// Dispatcher settings. The poll interval bounds scheduling precision;
	// the delivery timeout bounds a single adapter call.
	DispatchInterval = 60 * time.Second
	DeliveryTimeout  = 30 * time.Second

	// RecurrenceHorizonDays caps how far ahead the rule expander materializes
	// occurrences for recurrences without an end date.
	RecurrenceHorizonDays = 90

	// TelegramBridgeURL points at the MTProto gateway that performs the
	// actual protocol work (auth handshake, message delivery).
	TelegramBridgeURL = "http://localhost:8089"

	// ValkeyAddress enables the distributed dispatch lock when set, so
	// multiple dispatcher replicas can share one schedule store.
	ValkeyAddress   = ""
	ValkeyPassword  = ""
	ValkeyDB        = 0
	ValkeyKeyPrefix = "tgchat"

	// OpenAIAPIKey enables AI conversation generation. Without it the
	// generator falls back to the built-in templates.
	OpenAIAPIKey string
	OpenAIModel  = "gpt-4o-mini"

	// Send worker pool settings. Workers serialize deliveries per account.
	SendWorkerPoolSize  = 8
	SendWorkerQueueSize = 256
)

func init() {
	if v := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); v != "" {
		OpenAIAPIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("OPENAI_MODEL")); v != "" {
		OpenAIModel = v
	}
	if v := strings.TrimSpace(os.Getenv("DISPATCH_INTERVAL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			DispatchInterval = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("DELIVERY_TIMEOUT_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			DeliveryTimeout = time.Duration(n) * time.Second
		}
	}
	if v := strings.TrimSpace(os.Getenv("RECURRENCE_HORIZON_DAYS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			RecurrenceHorizonDays = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SEND_WORKER_POOL_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			SendWorkerPoolSize = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("SEND_WORKER_QUEUE_SIZE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			SendWorkerQueueSize = n
		}
	}
}

// RecurrenceHorizon returns the configured horizon as a duration.
func RecurrenceHorizon() time.Duration {
	return time.Duration(RecurrenceHorizonDays) * 24 * time.Hour
}
