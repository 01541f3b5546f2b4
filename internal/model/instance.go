package model

import "time"

// Instance lifecycle statuses.
const (
	StatusRunning = "running"
	StatusStopped = "stopped"
)

// Instance is the durable record of a provisioned container. Resource fields
// are copied from the plan at creation time, so later catalog edits never
// change an already provisioned instance.
type Instance struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AccountID     uint   `gorm:"index;not null" json:"account_id"`
	ContainerName string `gorm:"uniqueIndex;not null;size:100" json:"container_name"`
	Plan          string `gorm:"not null;size:50" json:"plan"`
	MemoryMB      int    `gorm:"not null" json:"memory_mb"`
	CPUs          int    `gorm:"not null" json:"cpus"`
	StorageGB     int    `gorm:"not null" json:"storage_gb"`
	Processor     string `gorm:"size:20" json:"processor"`
	Status        string `gorm:"size:20;default:'stopped'" json:"status"`
}

// TableName sets the table name.
func (Instance) TableName() string {
	return "instances"
}

// InstanceSequence issues per-owner container name numbers. The counter only
// moves forward, so a destroyed instance never frees its number for reuse.
type InstanceSequence struct {
	AccountID uint `gorm:"primarykey" json:"account_id"`
	Next      uint `gorm:"not null" json:"next"`
}

// TableName sets the table name.
func (InstanceSequence) TableName() string {
	return "instance_sequences"
}
