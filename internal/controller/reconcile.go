package controller

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/opsre/gvmd/internal/lxc"
	"github.com/opsre/gvmd/internal/model"
)

// Reconcile resolves provision intents left behind by a crash between the
// debit and the registry write. Run once at startup, before the server
// accepts requests. For each orphaned intent: if the container made it into
// the runtime the instance record is recreated from the intent; if it did
// not, the debit is credited back. Either way the intent is removed.
func (c *Controller) Reconcile(ctx context.Context) error {
	var intents []model.ProvisionIntent
	if err := c.db.Find(&intents).Error; err != nil {
		return err
	}

	for i := range intents {
		intent := &intents[i]
		c.log.Warnf("%v: orphaned provision intent %s (account %d, container %s)",
			ErrRegistryInconsistency, intent.ID, intent.AccountID, intent.ContainerName)

		if _, err := c.registry.GetByContainerName(intent.ContainerName); err == nil {
			// The instance record landed after all; the intent is stale.
			c.dropIntent(intent)
			continue
		}

		state, err := c.runtime.Inspect(ctx, intent.ContainerName)
		switch {
		case err == nil:
			c.adopt(intent, state)
		case errors.Is(err, lxc.ErrNotFound):
			// Debited, but the container never materialized: refund.
			c.log.Infof("refunding %d credits to account %d for %s",
				intent.Price, intent.AccountID, intent.ContainerName)
			c.compensate(intent)
		default:
			// Runtime unreachable; keep the intent for the next startup.
			c.log.Errorf("reconcile inspect %s: %v", intent.ContainerName, err)
		}
	}
	return nil
}

// adopt recreates the instance record for a container that launched but
// never reached the registry. The allocation comes from the intent, frozen
// at create time: the catalog may have been edited since, and the record
// must describe the limits the container was actually launched with.
func (c *Controller) adopt(intent *model.ProvisionIntent, state *lxc.ContainerState) {
	status := model.StatusStopped
	if state.Status == "Running" {
		status = model.StatusRunning
	}
	inst := &model.Instance{
		AccountID:     intent.AccountID,
		ContainerName: intent.ContainerName,
		Plan:          intent.Plan,
		MemoryMB:      intent.MemoryMB,
		CPUs:          intent.CPUs,
		StorageGB:     intent.StorageGB,
		Processor:     intent.Processor,
		Status:        status,
	}
	err := c.db.Transaction(func(tx *gorm.DB) error {
		if err := c.registry.CreateTx(tx, inst); err != nil {
			return err
		}
		return tx.Delete(&model.ProvisionIntent{}, "id = ?", intent.ID).Error
	})
	if err != nil {
		c.log.Errorf("adopting %s failed: %v", intent.ContainerName, err)
		return
	}
	c.log.Infof("adopted %s as instance %d (%s)", intent.ContainerName, inst.ID, status)
}

// dropIntent removes a stale intent row.
func (c *Controller) dropIntent(intent *model.ProvisionIntent) {
	if err := c.db.Delete(&model.ProvisionIntent{}, "id = ?", intent.ID).Error; err != nil {
		c.log.Errorf("dropping intent %s failed: %v", intent.ID, err)
	}
}
