// Package registry is the durable record of provisioned instances. It does
// no access control; ownership checks belong to the lifecycle controller.
package registry

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/model"
)

// ErrNotFound reports a lookup of an instance that does not exist.
var ErrNotFound = errors.New("instance not found")

// Registry stores instance records.
type Registry struct {
	db *gorm.DB
}

// New creates a registry over db.
func New(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

// Create persists a new instance record. The container name carries a unique
// index; a collision means broken sequence bookkeeping and surfaces as an
// error rather than silently overwriting.
func (r *Registry) Create(inst *model.Instance) error {
	return r.CreateTx(r.db, inst)
}

// CreateTx is Create inside an existing transaction.
func (r *Registry) CreateTx(tx *gorm.DB, inst *model.Instance) error {
	return tx.Create(inst).Error
}

// Get returns the instance with the given id.
func (r *Registry) Get(id uint) (*model.Instance, error) {
	var inst model.Instance
	if err := r.db.First(&inst, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// GetByContainerName returns the instance with the given container name.
func (r *Registry) GetByContainerName(name string) (*model.Instance, error) {
	var inst model.Instance
	if err := r.db.Where("container_name = ?", name).First(&inst).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &inst, nil
}

// ListByOwner returns every instance owned by the account, oldest first.
func (r *Registry) ListByOwner(accountID uint) ([]model.Instance, error) {
	var instances []model.Instance
	err := r.db.Where("account_id = ?", accountID).Order("id").Find(&instances).Error
	return instances, err
}

// ListAll returns every instance in the system, oldest first.
func (r *Registry) ListAll() ([]model.Instance, error) {
	var instances []model.Instance
	err := r.db.Order("id").Find(&instances).Error
	return instances, err
}

// UpdateStatus sets the recorded lifecycle status of the instance.
func (r *Registry) UpdateStatus(id uint, status string) error {
	res := r.db.Model(&model.Instance{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the instance record.
func (r *Registry) Delete(id uint) error {
	res := r.db.Delete(&model.Instance{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// NextContainerName issues the next container name for the owner from a
// durable per-owner sequence. Unlike deriving the number from the current
// instance count, the sequence survives deletes and concurrent creates, so
// two creates by one owner can never collide on a name.
func (r *Registry) NextContainerName(ownerID uint) (string, error) {
	var n uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var seq model.InstanceSequence
		err := tx.Where("account_id = ?", ownerID).First(&seq).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			seq = model.InstanceSequence{AccountID: ownerID, Next: 1}
			if err := tx.Create(&seq).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			seq.Next++
			if err := tx.Save(&seq).Error; err != nil {
				return err
			}
		}
		n = seq.Next
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("vps-%d-%d", ownerID, n), nil
}
