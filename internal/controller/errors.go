package controller

import (
	"errors"

	"github.com/opsre/gvmd/internal/ledger"
	"github.com/opsre/gvmd/internal/registry"
)

// Caller errors. Each is rejected before any runtime side effect and is safe
// to retry after correcting the request. Runtime failures surface as the
// gateway's own typed errors (lxc.TimeoutError, lxc.CommandError).
var (
	// ErrInvalidPlan rejects an unknown plan name or processor family.
	ErrInvalidPlan = errors.New("invalid plan")
	// ErrInsufficientCredits rejects a create the caller cannot pay for.
	ErrInsufficientCredits = ledger.ErrInsufficientCredits
	// ErrAccessDenied rejects a caller that neither owns the instance nor
	// holds the administrator role.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound reports an operation against a missing instance.
	ErrNotFound = registry.ErrNotFound
	// ErrRegistryInconsistency tags ledger/registry disagreements found by
	// the startup reconciliation pass.
	ErrRegistryInconsistency = errors.New("registry inconsistency")
)
