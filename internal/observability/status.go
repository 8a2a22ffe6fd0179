package observability

import (
	"sync"
	"time"
)

type Role string

const (
	RoleIdle        Role = "IDLE"
	RoleCoordinator Role = "COORDINATOR"
	RoleAgent       Role = "AGENT"
)

type SystemStatus struct {
	mu            sync.RWMutex
	CurrentRole   Role
	ActiveTask    string
	LastHeartbeat time.Time
}

// StatusSnapshot is a point-in-time copy of the system status.
type StatusSnapshot struct {
	Role          Role      `json:"role"`
	ActiveTask    string    `json:"active_task"`
	LastHeartbeat time.Time `json:"last_heartbeat"`
	Uptime        string    `json:"uptime"`
}

var startTime = time.Now()

var globalStatus = &SystemStatus{
	CurrentRole:   RoleIdle,
	LastHeartbeat: time.Now(),
}

// SetStatus updates the global system status.
func SetStatus(role Role, task string) {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.CurrentRole = role
	globalStatus.ActiveTask = task
}

// GetStatus retrieves a copy of the global system status.
func GetStatus() StatusSnapshot {
	globalStatus.mu.RLock()
	defer globalStatus.mu.RUnlock()
	return StatusSnapshot{
		Role:          globalStatus.CurrentRole,
		ActiveTask:    globalStatus.ActiveTask,
		LastHeartbeat: globalStatus.LastHeartbeat,
		Uptime:        time.Since(startTime).Round(time.Second).String(),
	}
}

// Heartbeat updates the last heartbeat time.
func Heartbeat() {
	globalStatus.mu.Lock()
	defer globalStatus.mu.Unlock()
	globalStatus.LastHeartbeat = time.Now()
}
