package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/reclaim/internal/assetclass"
	"github.com/zjrosen/reclaim/internal/recycling"
)

// Admin is the administrative identity used by builder fixtures.
const Admin = recycling.Identity("admin:test")

// Fixture bundles a configured service with handles to its in-memory
// asset classes so tests can mint, inspect, and destroy units directly.
type Fixture struct {
	Service *recycling.Service
	Classes map[string]*assetclass.Memory
}

// Class returns the in-memory collaborator registered under classID.
func (f *Fixture) Class(classID string) *assetclass.Memory {
	return f.Classes[classID]
}

// Builder accumulates classes and units and registers them in order.
type Builder struct {
	t       *testing.T
	opts    recycling.Options
	classes []classData
}

// NewBuilder creates a builder producing a service administered by Admin.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, opts: recycling.Options{Admin: Admin}}
}

// WithOptions replaces the service options. The Admin identity is kept
// unless the options set their own Admin or Authorizer.
func (b *Builder) WithOptions(opts recycling.Options) *Builder {
	if opts.Admin == "" && opts.Authorizer == nil {
		opts.Admin = Admin
	}
	b.opts = opts
	return b
}

// WithDedupWindow enables the duplicate-request guard on the fixture.
func (b *Builder) WithDedupWindow(window time.Duration) *Builder {
	b.opts.DedupWindow = window
	return b
}

// WithClass adds a class registered at the given rate, with optional
// configuration.
func (b *Builder) WithClass(classID string, rate uint64, opts ...ClassOption) *Builder {
	class := defaultClass(classID, rate)
	for _, opt := range opts {
		opt(&class)
	}
	b.classes = append(b.classes, class)
	return b
}

// WithUnits mints units into an already-added class for the given owner.
func (b *Builder) WithUnits(classID string, owner recycling.Identity, unitIDs ...string) *Builder {
	for i := range b.classes {
		if b.classes[i].id == classID {
			for _, unitID := range unitIDs {
				b.classes[i].units = append(b.classes[i].units, unitData{id: unitID, owner: owner})
			}
			return b
		}
	}
	b.t.Fatalf("WithUnits: class %q not added", classID)
	return b
}

// Build registers all accumulated classes and mints their units.
func (b *Builder) Build() *Fixture {
	b.t.Helper()

	svc := recycling.NewService(b.opts)
	fixture := &Fixture{Service: svc, Classes: make(map[string]*assetclass.Memory)}

	admin := Admin
	if b.opts.Admin != "" {
		admin = b.opts.Admin
	}

	for _, class := range b.classes {
		memory := assetclass.NewMemory()
		for _, unit := range class.units {
			memory.Mint(unit.id, unit.owner)
		}

		_, err := svc.Register(admin, class.id, memory, class.rate)
		require.NoError(b.t, err, "failed to register class %q", class.id)

		if !class.active {
			_, err := svc.SetActive(admin, class.id, false)
			require.NoError(b.t, err, "failed to deactivate class %q", class.id)
		}
		fixture.Classes[class.id] = memory
	}
	return fixture
}
