package addressspace

import (
	"sync"

	"go.uber.org/zap"

	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/infra/auditlog"
	"github.com/opcfoundry/addrspace/internal/infra/nodestore"
	"github.com/opcfoundry/addrspace/internal/typesystem"
)

// ExternalNamespace routes mutations whose source namespace matches its
// index to a foreign handler (spec §6 "Extension point"). A conforming
// implementation may omit this extension entirely.
type ExternalNamespace interface {
	AddNodes(items []AddNodesItem) []AddNodesResult
	AddReferences(items []AddReferencesItem) []error
	DeleteNodes(items []DeleteNodesItem) []error
	DeleteReferences(items []DeleteReferencesItem) []error
}

// Options configures a new AddressSpace. Namespaces defaults to a table
// with only the OPC UA namespace (index 0) registered.
type Options struct {
	Namespaces *nodeid.NamespaceTable
	Audit      auditlog.Sink
	Log        *zap.Logger

	// ExternalNamespaces maps namespace index -> foreign handler (spec §6).
	// Indices absent from this map are handled locally.
	ExternalNamespaces map[uint16]ExternalNamespace
}

func (o *Options) setDefaults() {
	if o.Namespaces == nil {
		o.Namespaces = nodeid.NewNamespaceTable()
	}
	if o.Audit == nil {
		o.Audit = auditlog.Nop{}
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	if o.ExternalNamespaces == nil {
		o.ExternalNamespaces = make(map[uint16]ExternalNamespace)
	}
}

// AddressSpace is the orchestrator described by spec §4.7-§4.9: the
// single-threaded-cooperative writer boundary (spec §5) around a
// NodeStore, the hierarchy walker, and the reference/type validators.
//
// Public methods (AddNode, AddReference, DeleteNode, DeleteReference, ...)
// acquire mu; every unexported helper assumes it is already held. This
// split exists so instantiation — which recursively calls back into the
// node adder to add mandated children — never re-enters the writer lock
// (spec §5's reentrancy rule).
type AddressSpace struct {
	mu sync.Mutex

	store  nodestore.Store
	walker *typesystem.HierarchyWalker
	refVal *typesystem.ReferenceValidator
	typeCk *typesystem.TypeChecker

	opts Options
	log  *zap.Logger
}

// New constructs an AddressSpace over store with the given options.
func New(store nodestore.Store, opts Options) *AddressSpace {
	opts.setDefaults()
	walker := typesystem.NewHierarchyWalker(store)
	return &AddressSpace{
		store:  store,
		walker: walker,
		refVal: typesystem.NewReferenceValidator(store, walker),
		typeCk: typesystem.NewTypeChecker(store, walker, opts.Log),
		opts:   opts,
		log:    opts.Log.Named("addressspace"),
	}
}

// Store exposes the backing NodeStore for read-only external callers
// (e.g. the diagnostics surface and the Browse/Read services this core
// does not itself implement — spec §1 out of scope).
func (a *AddressSpace) Store() nodestore.Store { return a.store }

// Namespaces exposes the namespace table.
func (a *AddressSpace) Namespaces() *nodeid.NamespaceTable { return a.opts.Namespaces }
