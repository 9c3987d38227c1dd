package instance

import "github.com/angelmondragon/storefront-backend/pkg/env"

// GetID identifies the running process in logs. STOREFRONT_INSTANCE_ID wins
// over the platform DYNO name.
func GetID() string {
	if id := env.First("STOREFRONT_INSTANCE_ID", "DYNO"); id != "" {
		return id
	}
	return "local"
}
