// Package controller orchestrates the instance lifecycle: plan resolution,
// credit accounting, runtime invocations and registry reconciliation. It is
// the only component that touches more than one collaborator, so all
// ordering and compensation logic lives here.
package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/catalog"
	"github.com/opsre/gvmd/internal/ledger"
	"github.com/opsre/gvmd/internal/lxc"
	"github.com/opsre/gvmd/internal/model"
	"github.com/opsre/gvmd/internal/registry"
)

// Runtime is the container runtime surface the controller drives.
type Runtime interface {
	Launch(ctx context.Context, name string, memoryMB, cpus int) error
	Start(ctx context.Context, name string) error
	Stop(ctx context.Context, name string) error
	Restart(ctx context.Context, name string) error
	Delete(ctx context.Context, name string) error
	Inspect(ctx context.Context, name string) (*lxc.ContainerState, error)
}

// Caller identifies the authenticated account an operation runs on behalf
// of. It is always passed explicitly; the controller holds no ambient
// session state.
type Caller struct {
	AccountID uint
	Admin     bool
}

// Controller coordinates catalog, ledger, registry and runtime.
type Controller struct {
	db       *gorm.DB
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	registry *registry.Registry
	runtime  Runtime
	log      *zap.SugaredLogger
	locks    keyedMutex
}

// New creates a controller.
func New(db *gorm.DB, cat *catalog.Catalog, led *ledger.Ledger, reg *registry.Registry, rt Runtime, log *zap.SugaredLogger) *Controller {
	return &Controller{
		db:       db,
		catalog:  cat,
		ledger:   led,
		registry: reg,
		runtime:  rt,
		log:      log,
	}
}

// Create provisions a new instance for the caller. The debit and the intent
// row commit together before the runtime is touched, so the operation is
// recoverable no matter where it is interrupted: a leftover intent row always
// marks a debit the reconciliation pass can resolve. On runtime failure the
// full price is credited back and no instance record is created.
func (c *Controller) Create(ctx context.Context, caller Caller, planName, processor string) (*model.Instance, error) {
	plan, ok := c.catalog.Resolve(planName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlan, planName)
	}
	price, ok := c.catalog.PriceFor(planName, processor)
	if !ok {
		return nil, fmt.Errorf("%w: plan %q has no %q pricing", ErrInvalidPlan, planName, processor)
	}

	name, err := c.registry.NextContainerName(caller.AccountID)
	if err != nil {
		return nil, err
	}

	intent := &model.ProvisionIntent{
		ID:            uuid.NewString(),
		AccountID:     caller.AccountID,
		ContainerName: name,
		Plan:          plan.Name,
		Processor:     processor,
		Price:         price,
		MemoryMB:      plan.MemoryMB,
		CPUs:          plan.CPUs,
		StorageGB:     plan.StorageGB,
	}
	err = c.db.Transaction(func(tx *gorm.DB) error {
		if err := c.ledger.DebitTx(tx, caller.AccountID, price); err != nil {
			return err
		}
		return tx.Create(intent).Error
	})
	if err != nil {
		// Nothing external has happened yet; the rejection needs no
		// compensation.
		return nil, err
	}

	if err := c.runtime.Launch(ctx, name, plan.MemoryMB, plan.CPUs); err != nil {
		c.compensate(intent)
		return nil, err
	}

	inst := &model.Instance{
		AccountID:     caller.AccountID,
		ContainerName: name,
		Plan:          plan.Name,
		MemoryMB:      plan.MemoryMB,
		CPUs:          plan.CPUs,
		StorageGB:     plan.StorageGB,
		Processor:     processor,
		Status:        model.StatusRunning,
	}
	err = c.db.Transaction(func(tx *gorm.DB) error {
		if err := c.registry.CreateTx(tx, inst); err != nil {
			return err
		}
		return tx.Delete(&model.ProvisionIntent{}, "id = ?", intent.ID).Error
	})
	if err != nil {
		// The container launched but the record did not land. Tear the
		// container back down and refund. The request context may already
		// be canceled here; the teardown gets a fresh one, bounded by the
		// gateway's own timeout.
		c.log.Errorf("registry write for %s failed, rolling back: %v", name, err)
		if derr := c.runtime.Delete(context.Background(), name); derr != nil {
			c.log.Errorf("rollback delete of %s failed: %v", name, derr)
		}
		c.compensate(intent)
		return nil, err
	}

	c.log.Infof("provisioned %s for account %d, plan %s/%s, price %d",
		name, caller.AccountID, plan.Name, processor, price)
	return inst, nil
}

// compensate credits the intent's price back and removes the intent row.
func (c *Controller) compensate(intent *model.ProvisionIntent) {
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := c.ledger.CreditTx(tx, intent.AccountID, intent.Price); err != nil {
			return err
		}
		return tx.Delete(&model.ProvisionIntent{}, "id = ?", intent.ID).Error
	})
	if err != nil {
		c.log.Errorf("compensation for intent %s (account %d, price %d) failed: %v",
			intent.ID, intent.AccountID, intent.Price, err)
	}
}

// authorize rejects callers that neither own the instance nor are admins.
func authorize(caller Caller, inst *model.Instance) error {
	if inst.AccountID != caller.AccountID && !caller.Admin {
		return ErrAccessDenied
	}
	return nil
}

// instanceOp runs one runtime call against an owned instance under the
// per-instance lock, then records newStatus when it is non-empty.
func (c *Controller) instanceOp(ctx context.Context, caller Caller, id uint, call func(context.Context, string) error, newStatus string) error {
	inst, err := c.registry.Get(id)
	if err != nil {
		return err
	}
	if err := authorize(caller, inst); err != nil {
		return err
	}

	unlock := c.locks.lock(id)
	defer unlock()

	if err := call(ctx, inst.ContainerName); err != nil {
		// Recorded status stays untouched; the gateway error goes back
		// to the caller verbatim.
		return err
	}
	if newStatus != "" {
		return c.registry.UpdateStatus(id, newStatus)
	}
	return nil
}

// Start starts the instance's container and records it as running.
func (c *Controller) Start(ctx context.Context, caller Caller, id uint) error {
	return c.instanceOp(ctx, caller, id, c.runtime.Start, model.StatusRunning)
}

// Stop stops the instance's container and records it as stopped.
func (c *Controller) Stop(ctx context.Context, caller Caller, id uint) error {
	return c.instanceOp(ctx, caller, id, c.runtime.Stop, model.StatusStopped)
}

// Restart restarts the instance's container. The recorded status is left
// unchanged: the instance's logical state is the same after a restart.
func (c *Controller) Restart(ctx context.Context, caller Caller, id uint) error {
	return c.instanceOp(ctx, caller, id, c.runtime.Restart, "")
}

// Destroy removes the instance's container and, only once the runtime delete
// succeeded, its registry record. A failed delete leaves the record intact so
// the caller can retry. Destruction never refunds the purchase price.
func (c *Controller) Destroy(ctx context.Context, caller Caller, id uint) error {
	inst, err := c.registry.Get(id)
	if err != nil {
		return err
	}
	if err := authorize(caller, inst); err != nil {
		return err
	}

	unlock := c.locks.lock(id)
	defer unlock()

	if err := c.runtime.Delete(ctx, inst.ContainerName); err != nil {
		return err
	}
	if err := c.registry.Delete(id); err != nil {
		return err
	}

	c.log.Infof("destroyed %s (instance %d, account %d)", inst.ContainerName, id, inst.AccountID)
	return nil
}

// List returns the caller's own instances.
func (c *Controller) List(caller Caller) ([]model.Instance, error) {
	return c.registry.ListByOwner(caller.AccountID)
}

// ListAll returns every instance in the system. Administrator only.
func (c *Controller) ListAll(caller Caller) ([]model.Instance, error) {
	if !caller.Admin {
		return nil, ErrAccessDenied
	}
	return c.registry.ListAll()
}

// InstanceStats is advisory runtime usage for one instance. Status is
// "unknown" when the runtime could not be queried.
type InstanceStats struct {
	Status         string  `json:"status"`
	MemoryUsageMB  float64 `json:"memory_mb"`
	CPUTimeSeconds float64 `json:"cpu_seconds"`
}

// Stats inspects the instance's container. Stats are advisory, not
// safety-critical: runtime failures are logged and degrade to an unknown
// result instead of failing the request.
func (c *Controller) Stats(ctx context.Context, caller Caller, id uint) (*InstanceStats, error) {
	inst, err := c.registry.Get(id)
	if err != nil {
		return nil, err
	}
	if err := authorize(caller, inst); err != nil {
		return nil, err
	}

	state, err := c.runtime.Inspect(ctx, inst.ContainerName)
	if err != nil {
		c.log.Warnf("inspect %s: %v", inst.ContainerName, err)
		return &InstanceStats{Status: "unknown"}, nil
	}
	return &InstanceStats{
		Status:         strings.ToLower(state.Status),
		MemoryUsageMB:  float64(state.MemoryUsageBytes) / (1024 * 1024),
		CPUTimeSeconds: state.CPUTimeSeconds,
	}, nil
}

// RemoveAccountInstances deletes every instance owned by the account,
// best effort: runtime failures are logged, not surfaced, and the records
// are removed regardless, since the account itself is going away.
func (c *Controller) RemoveAccountInstances(ctx context.Context, accountID uint) error {
	instances, err := c.registry.ListByOwner(accountID)
	if err != nil {
		return err
	}

	for i := range instances {
		inst := &instances[i]
		unlock := c.locks.lock(inst.ID)
		if err := c.runtime.Delete(ctx, inst.ContainerName); err != nil {
			c.log.Errorf("cleanup delete of %s failed: %v", inst.ContainerName, err)
		}
		if err := c.registry.Delete(inst.ID); err != nil && !errors.Is(err, ErrNotFound) {
			c.log.Errorf("removing record of %s failed: %v", inst.ContainerName, err)
		}
		unlock()
	}
	return nil
}
