package model

import "time"

// ProvisionIntent is the durable marker of a create operation in flight. The
// row is written in the same transaction as the debit and removed once the
// instance record lands (or the debit is compensated), so any row left behind
// after a crash marks an orphaned debit for the startup reconciliation pass.
type ProvisionIntent struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	AccountID     uint   `gorm:"index;not null" json:"account_id"`
	ContainerName string `gorm:"not null;size:100" json:"container_name"`
	Plan          string `gorm:"not null;size:50" json:"plan"`
	Processor     string `gorm:"not null;size:20" json:"processor"`
	Price         int    `gorm:"not null" json:"price"`

	// Resource allocation frozen at create time, so reconciliation never
	// depends on the catalog the daemon restarts with.
	MemoryMB  int `gorm:"not null" json:"memory_mb"`
	CPUs      int `gorm:"not null" json:"cpus"`
	StorageGB int `gorm:"not null" json:"storage_gb"`
}

// TableName sets the table name.
func (ProvisionIntent) TableName() string {
	return "provision_intents"
}
