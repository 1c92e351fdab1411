package addressspace

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/opcfoundry/addrspace/internal/domain/status"
	"github.com/opcfoundry/addrspace/internal/infra/auditlog"
)

// AddNodes is the AddNodes service (spec §6): routes each item to the
// ExternalNamespace registered for its requested namespace index, if any,
// otherwise handles it locally. Per-item results preserve request order
// (spec §5 "within one request, per-item results appear in request
// order"). Every call is journaled via the audit sink. An empty request
// yields status.ErrNothingToDo at the top level (spec §6) rather than an
// empty result slice, since this method is the dispatch surface the policy
// is defined at.
func (a *AddressSpace) AddNodes(items []AddNodesItem) []AddNodesResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(items) == 0 {
		a.audit("AddNodes", "", status.ErrNothingToDo)
		return []AddNodesResult{{Err: status.ErrNothingToDo}}
	}

	results := make([]AddNodesResult, len(items))
	local, foreign := partitionByNamespace(items, func(it AddNodesItem) uint16 { return it.RequestedNodeId.NamespaceIndex }, a.opts.ExternalNamespaces)

	for _, i := range local {
		id, err := a.addNode(items[i], nil)
		results[i] = AddNodesResult{AssignedNodeId: id, Err: err}
		a.audit("AddNodes", items[i].BrowseName.String(), err)
	}
	for ns, idxs := range foreign {
		ext := a.opts.ExternalNamespaces[ns]
		sub := make([]AddNodesItem, len(idxs))
		for k, i := range idxs {
			sub[k] = items[i]
		}
		subResults := ext.AddNodes(sub)
		for k, i := range idxs {
			var itemErr error
			if k < len(subResults) {
				results[i] = subResults[k]
				itemErr = subResults[k].Err
			}
			a.audit("AddNodes", items[i].BrowseName.String(), itemErr)
		}
	}
	return results
}

// AddReferences is the AddReferences service, routed by each item's source
// namespace index. An empty request yields status.ErrNothingToDo at the
// top level (spec §6), same convention as AddNodes.
func (a *AddressSpace) AddReferences(items []AddReferencesItem) []error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(items) == 0 {
		a.audit("AddReferences", "", status.ErrNothingToDo)
		return []error{status.ErrNothingToDo}
	}

	results := make([]error, len(items))
	local, foreign := partitionByNamespace(items, func(it AddReferencesItem) uint16 { return it.SourceId.NamespaceIndex }, a.opts.ExternalNamespaces)

	for _, i := range local {
		err := a.addReference(items[i])
		results[i] = err
		a.audit("AddReferences", items[i].SourceId.String(), err)
	}
	for ns, idxs := range foreign {
		ext := a.opts.ExternalNamespaces[ns]
		sub := make([]AddReferencesItem, len(idxs))
		for k, i := range idxs {
			sub[k] = items[i]
		}
		subResults := ext.AddReferences(sub)
		for k, i := range idxs {
			var itemErr error
			if k < len(subResults) {
				results[i] = subResults[k]
				itemErr = subResults[k]
			}
			a.audit("AddReferences", items[i].SourceId.String(), itemErr)
		}
	}
	return results
}

// DeleteNodes is the DeleteNodes service, routed by each item's node
// namespace index. An empty request yields status.ErrNothingToDo at the
// top level (spec §6), same convention as AddNodes.
func (a *AddressSpace) DeleteNodes(items []DeleteNodesItem) []error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(items) == 0 {
		a.audit("DeleteNodes", "", status.ErrNothingToDo)
		return []error{status.ErrNothingToDo}
	}

	results := make([]error, len(items))
	local, foreign := partitionByNamespace(items, func(it DeleteNodesItem) uint16 { return it.NodeId.NamespaceIndex }, a.opts.ExternalNamespaces)

	for _, i := range local {
		err := a.deleteNode(items[i].NodeId, items[i].DeleteTargetReferences)
		results[i] = err
		a.audit("DeleteNodes", items[i].NodeId.String(), err)
	}
	for ns, idxs := range foreign {
		ext := a.opts.ExternalNamespaces[ns]
		sub := make([]DeleteNodesItem, len(idxs))
		for k, i := range idxs {
			sub[k] = items[i]
		}
		subResults := ext.DeleteNodes(sub)
		for k, i := range idxs {
			var itemErr error
			if k < len(subResults) {
				results[i] = subResults[k]
				itemErr = subResults[k]
			}
			a.audit("DeleteNodes", items[i].NodeId.String(), itemErr)
		}
	}
	return results
}

// DeleteReferences is the DeleteReferences service, routed by each item's
// source namespace index. An empty request yields status.ErrNothingToDo at
// the top level (spec §6), same convention as AddNodes.
func (a *AddressSpace) DeleteReferences(items []DeleteReferencesItem) []error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(items) == 0 {
		a.audit("DeleteReferences", "", status.ErrNothingToDo)
		return []error{status.ErrNothingToDo}
	}

	results := make([]error, len(items))
	local, foreign := partitionByNamespace(items, func(it DeleteReferencesItem) uint16 { return it.SourceId.NamespaceIndex }, a.opts.ExternalNamespaces)

	for _, i := range local {
		err := a.deleteReference(items[i])
		results[i] = err
		a.audit("DeleteReferences", items[i].SourceId.String(), err)
	}
	for ns, idxs := range foreign {
		ext := a.opts.ExternalNamespaces[ns]
		sub := make([]DeleteReferencesItem, len(idxs))
		for k, i := range idxs {
			sub[k] = items[i]
		}
		subResults := ext.DeleteReferences(sub)
		for k, i := range idxs {
			var itemErr error
			if k < len(subResults) {
				results[i] = subResults[k]
				itemErr = subResults[k]
			}
			a.audit("DeleteReferences", items[i].SourceId.String(), itemErr)
		}
	}
	return results
}

// partitionByNamespace splits items' indices into the ones this server
// handles locally and the ones routed to a registered ExternalNamespace,
// keyed by the index each namespaceOf(item) names.
func partitionByNamespace[T any](items []T, namespaceOf func(T) uint16, externals map[uint16]ExternalNamespace) (local []int, foreign map[uint16][]int) {
	foreign = make(map[uint16][]int)
	for i, it := range items {
		ns := namespaceOf(it)
		if _, ok := externals[ns]; ok {
			foreign[ns] = append(foreign[ns], i)
			continue
		}
		local = append(local, i)
	}
	return local, foreign
}

// audit appends one entry to the configured sink (spec SPEC_FULL
// supplemental feature 3), identified by a fresh request id. Failures in
// the sink itself are swallowed by auditlog.Sink's own contract.
func (a *AddressSpace) audit(operation, detail string, err error) {
	a.opts.Audit.Append(context.Background(), auditlog.Entry{
		RequestID: uuid.NewString(),
		At:        time.Now(),
		Operation: operation,
		Detail:    detail,
		Status:    status.FromError(err).String(),
	})
}
