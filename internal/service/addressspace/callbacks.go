package addressspace

import (
	"fmt"

	"github.com/opcfoundry/addrspace/internal/domain/node"
	"github.com/opcfoundry/addrspace/internal/domain/nodeid"
	"github.com/opcfoundry/addrspace/internal/domain/status"
)

// SetVariableNodeValueCallback registers a write callback on a Variable's
// inline DataValue (setVariableNode_valueCallback, spec §6): the write path
// calls it with the old and new values before storing, and its error aborts
// the write. An empty inline DataValue is created if the node holds none;
// switching the node to a DataSource afterwards clears any callback set
// here.
func (a *AddressSpace) SetVariableNodeValueCallback(id nodeid.NodeId, cb func(old, new node.Variant) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, ok := a.store.Get(id)
	if !ok {
		return fmt.Errorf("addressspace: %s: %w", id, status.ErrNodeIdUnknown)
	}
	vl, ok := n.VariableLike()
	if !ok {
		return fmt.Errorf("addressspace: %s is not a Variable/VariableType: %w", id, status.ErrNodeClassInvalid)
	}
	if vl.Value == nil {
		vl.Value = &node.DataValue{}
	}
	vl.Value.WriteCallback = cb
	return nil
}

// SetVariableNodeDataSource switches a Variable to external-callback value
// storage (setVariableNode_dataSource, spec §3's ValueSourceDataSource),
// discarding any inline value and write callback it previously held.
func (a *AddressSpace) SetVariableNodeDataSource(id nodeid.NodeId, source node.DataSource) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, ok := a.store.Get(id)
	if !ok {
		return fmt.Errorf("addressspace: %s: %w", id, status.ErrNodeIdUnknown)
	}
	vl, ok := n.VariableLike()
	if !ok {
		return fmt.Errorf("addressspace: %s is not a Variable/VariableType: %w", id, status.ErrNodeClassInvalid)
	}
	vl.ValueSource = node.ValueSourceDataSource
	vl.Value = nil
	src := source
	vl.Source = &src
	return nil
}

// SetObjectTypeNodeLifecycleManagement registers the constructor/destructor
// pair an ObjectType runs on instance add/delete (spec §3, §4.6 step 4,
// §4.9).
func (a *AddressSpace) SetObjectTypeNodeLifecycleManagement(id nodeid.NodeId, lc node.LifecycleManagement) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, ok := a.store.Get(id)
	if !ok {
		return fmt.Errorf("addressspace: %s: %w", id, status.ErrNodeIdUnknown)
	}
	if n.Class != node.ClassObjectType {
		return fmt.Errorf("addressspace: %s is not an ObjectType: %w", id, status.ErrNodeClassInvalid)
	}
	lcCopy := lc
	n.ObjectType.Lifecycle = &lcCopy
	return nil
}

// SetMethodNodeCallback registers the user handler a Method invokes on call
// (setMethodNode_callback, spec §3's "method-call feature enabled").
func (a *AddressSpace) SetMethodNodeCallback(id nodeid.NodeId, handle any, cb node.MethodCallback) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, ok := a.store.Get(id)
	if !ok {
		return fmt.Errorf("addressspace: %s: %w", id, status.ErrNodeIdUnknown)
	}
	if n.Class != node.ClassMethod {
		return fmt.Errorf("addressspace: %s is not a Method: %w", id, status.ErrNodeClassInvalid)
	}
	n.Method.Handle = handle
	n.Method.Callback = cb
	return nil
}

// CallMethod invokes the registered callback on methodId with inputArgs,
// passing objectId as the calling object, synchronously inside the writer
// section (spec §5's suspension-point contract: the callback must not
// re-enter this API).
func (a *AddressSpace) CallMethod(objectId, methodId nodeid.NodeId, inputArgs []node.Variant) ([]node.Variant, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n, ok := a.store.Get(methodId)
	if !ok {
		return nil, fmt.Errorf("addressspace: %s: %w", methodId, status.ErrNodeIdUnknown)
	}
	if n.Class != node.ClassMethod {
		return nil, fmt.Errorf("addressspace: %s is not a Method: %w", methodId, status.ErrNodeClassInvalid)
	}
	if !n.Method.Executable || n.Method.Callback == nil {
		return nil, fmt.Errorf("addressspace: %s has no callback registered: %w", methodId, status.ErrNotImplemented)
	}
	return n.Method.Callback(objectId, methodId, n.Method.Handle, inputArgs)
}

// AddDataSourceVariableNode is a convenience wrapper combining addNode with
// an immediate switch to DataSource-backed value storage (spec §6's
// "addDataSourceVariableNode"), avoiding a window where the node briefly
// holds an inline value no caller ever reads.
func (a *AddressSpace) AddDataSourceVariableNode(item AddNodesItem, source node.DataSource) (nodeid.NodeId, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	item.NodeClass = node.ClassVariable
	item.AttributesClass = node.ClassVariable

	id, err := a.addNode(item, nil)
	if err != nil {
		return nodeid.NodeId{}, err
	}

	n, ok := a.store.Get(id)
	if !ok {
		return nodeid.NodeId{}, fmt.Errorf("addressspace: %s vanished after add: %w", id, status.ErrInternalError)
	}
	vl, _ := n.VariableLike()
	vl.ValueSource = node.ValueSourceDataSource
	vl.Value = nil
	src := source
	vl.Source = &src
	return id, nil
}

// AddMethodNode is a convenience wrapper combining addNode with immediate
// callback registration (spec §6's "addMethodNode (when enabled)").
func (a *AddressSpace) AddMethodNode(item AddNodesItem, handle any, cb node.MethodCallback) (nodeid.NodeId, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	item.NodeClass = node.ClassMethod
	item.AttributesClass = node.ClassMethod

	id, err := a.addNode(item, nil)
	if err != nil {
		return nodeid.NodeId{}, err
	}

	n, ok := a.store.Get(id)
	if !ok {
		return nodeid.NodeId{}, fmt.Errorf("addressspace: %s vanished after add: %w", id, status.ErrInternalError)
	}
	n.Method.Handle = handle
	n.Method.Callback = cb
	return id, nil
}
