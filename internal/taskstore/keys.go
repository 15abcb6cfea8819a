package taskstore

import (
	"fmt"
	"time"
)

// TaskTTL is the expiry set on a task record each time it is written
// (on create and on every update), so a record survives TaskTTL after its
// last write.
const TaskTTL = 24 * time.Hour

// TaskIndexKey is the set holding every live task id.
const TaskIndexKey = "task-index"

// APIKeyIndexKey is the set holding every live API-key id. No credential
// issuance is implemented (see spec.md non-goals); the key exists so a real
// auth provider can share this store's index convention.
const APIKeyIndexKey = "api-key-index"

// TaskKey returns the storage key for a task record.
func TaskKey(id string) string {
	return fmt.Sprintf("task:%s", id)
}

// AuthTokenKey returns the storage key for a bearer-token user-info record.
func AuthTokenKey(token string) string {
	return fmt.Sprintf("auth-token:%s", token)
}

// APIKeyKey returns the storage key for an API-key credential record.
func APIKeyKey(keyID string) string {
	return fmt.Sprintf("api-key:%s", keyID)
}
