package instance

import "github.com/angelmondragon/entrydesk-backend/pkg/env"

// GetID identifies this process when it holds locks or consumes events.
// WORKER_ID wins over HOSTNAME so local runs can pin a stable name.
func GetID() string {
	return env.GetFirst("worker-0", "WORKER_ID", "HOSTNAME")
}
