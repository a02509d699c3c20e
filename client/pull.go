package client

import (
	"context"
	"sync"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/wbemerrors"
	"github.com/tony23/pywbem/xmlcodec"
)

// pullShape distinguishes the three result shapes DSP0200's pull-operation
// family returns, since the same state machine drives all of them.
type pullShape int

const (
	shapeNamedInstances pullShape = iota
	shapeInstanceNames
	shapeInstances
)

// pullState is the idle/open/closed lifecycle of an EnumerationContext:
// once closed, any further Pull/Close is a local failure raised without a
// transport call.
type pullState int

const (
	pullOpen pullState = iota
	pullClosed
)

// EnumerationContext is a handle to a server-side pull enumeration opened
// by one of the Open* methods. It is not safe for concurrent use from
// multiple goroutines, matching Connection's own single-operation-at-a-time
// contract.
type EnumerationContext struct {
	mu sync.Mutex

	conn       *Connection
	namespace  string
	context    string
	shape      pullShape
	state      pullState
	registered bool
}

// setOpen marks the context open and registers it with the Connection so
// non-pull operations fail locally while the server holds an enumeration
// context.
func (ec *EnumerationContext) setOpen() {
	if !ec.registered {
		ec.conn.enumOpened()
		ec.registered = true
	}
	ec.state = pullOpen
}

func (ec *EnumerationContext) setClosed() {
	if ec.registered {
		ec.conn.enumClosed()
		ec.registered = false
	}
	ec.state = pullClosed
}

// PullResult is the batch returned by Pull, shaped according to the kind
// of enumeration that was opened. Exactly one of Instances/InstanceNames/
// NamedInstances is populated.
type PullResult struct {
	Instances      []*cim.Instance
	InstanceNames  []*cim.InstanceName
	NamedInstances []xmlcodec.NamedInstance
	EndOfSequence  bool
}

// errClosedEnumeration is returned by Pull/Close once a context has
// already reached the closed state, without attempting a transport call.
func errClosedEnumeration() error {
	return &wbemerrors.ModelError{Msg: "pull enumeration is already closed"}
}

func (ec *EnumerationContext) resultOf(ret *xmlcodec.ReturnValue) PullResult {
	if ret.EndOfSequence {
		ec.setClosed()
	} else {
		ec.context = ret.EnumerationContext
		ec.setOpen()
	}
	return PullResult{
		Instances:      ret.Instances,
		InstanceNames:  ret.InstanceNames,
		NamedInstances: ret.NamedInstances,
		EndOfSequence:  ret.EndOfSequence,
	}
}

// Pull retrieves the next batch of at most maxObjectCount objects. Once a
// response reports EndOfSequence, the context transitions to closed and
// subsequent Pull/Close calls fail locally without contacting the server.
func (ec *EnumerationContext) Pull(ctx context.Context, maxObjectCount uint32) (PullResult, error) {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if ec.state == pullClosed {
		return PullResult{}, errClosedEnumeration()
	}

	method := pullMethodName(ec.shape)
	params := []xmlcodec.Param{
		{Name: "EnumerationContext", Value: xmlcodec.ScalarParam(cim.String(ec.context))},
		{Name: "MaxObjectCount", Value: xmlcodec.ScalarParam(cim.Uint32(maxObjectCount))},
	}
	ret, err := ec.conn.doIntrinsic(ctx, method, ec.namespace, params)
	if err != nil {
		return PullResult{}, err
	}
	return ec.resultOf(ret), nil
}

// Close abandons the enumeration. Calling Close on an already-closed
// context (including one that reached end-of-sequence) fails locally
// without a transport call.
func (ec *EnumerationContext) Close(ctx context.Context) error {
	ec.mu.Lock()
	defer ec.mu.Unlock()

	if ec.state == pullClosed {
		return errClosedEnumeration()
	}
	params := []xmlcodec.Param{
		{Name: "EnumerationContext", Value: xmlcodec.ScalarParam(cim.String(ec.context))},
	}
	_, err := ec.conn.doIntrinsic(ctx, "CloseEnumeration", ec.namespace, params)
	if err != nil {
		return err
	}
	ec.setClosed()
	return nil
}

func pullMethodName(shape pullShape) string {
	switch shape {
	case shapeInstanceNames:
		return "PullInstancePaths"
	case shapeInstances:
		return "PullInstances"
	default:
		return "PullInstancesWithPath"
	}
}

func openParams(target []xmlcodec.Param, maxObjectCount uint32) []xmlcodec.Param {
	return append(target,
		boolParam("ContinueOnError", false),
		xmlcodec.Param{Name: "MaxObjectCount", Value: xmlcodec.ScalarParam(cim.Uint32(maxObjectCount))},
	)
}

func (c *Connection) newEnumerationContext(ns string, shape pullShape) *EnumerationContext {
	return &EnumerationContext{conn: c, namespace: ns, shape: shape}
}

// OpenEnumerateInstances opens a pull enumeration over the instances of
// className in ns, returning the first batch alongside the context used
// for subsequent Pull calls.
func (c *Connection) OpenEnumerateInstances(ctx context.Context, ns, className string, opts EnumerationOptions, maxObjectCount uint32) (*EnumerationContext, PullResult, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, PullResult{}, err
	}
	params := []xmlcodec.Param{
		{Name: "ClassName", Value: xmlcodec.ClassNameParam(className)},
		boolParam("DeepInheritance", opts.DeepInheritance),
		boolParam("IncludeClassOrigin", opts.IncludeClassOrigin),
		stringArrayParam("PropertyList", opts.PropertyList),
	}
	params = openParams(params, maxObjectCount)

	ret, err := c.doIntrinsic(ctx, "OpenEnumerateInstances", ns, params)
	if err != nil {
		return nil, PullResult{}, err
	}
	ec := c.newEnumerationContext(ns, shapeNamedInstances)
	return ec, ec.resultOf(ret), nil
}

// OpenEnumerateInstancePaths opens a pull enumeration over the object
// paths of className's instances.
func (c *Connection) OpenEnumerateInstancePaths(ctx context.Context, ns, className string, maxObjectCount uint32) (*EnumerationContext, PullResult, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, PullResult{}, err
	}
	params := openParams([]xmlcodec.Param{
		{Name: "ClassName", Value: xmlcodec.ClassNameParam(className)},
	}, maxObjectCount)

	ret, err := c.doIntrinsic(ctx, "OpenEnumerateInstancePaths", ns, params)
	if err != nil {
		return nil, PullResult{}, err
	}
	ec := c.newEnumerationContext(ns, shapeInstanceNames)
	return ec, ec.resultOf(ret), nil
}

// OpenAssociatorInstances opens a pull enumeration over the instances
// associated with path.
func (c *Connection) OpenAssociatorInstances(ctx context.Context, path *cim.InstanceName, opts AssociationOptions, maxObjectCount uint32) (*EnumerationContext, PullResult, error) {
	ns, err := c.resolveNamespace("", path.Namespace)
	if err != nil {
		return nil, PullResult{}, err
	}
	target := cloneInstanceNameWithNamespace(path, ns)
	params := []xmlcodec.Param{
		{Name: "InstancePath", Value: xmlcodec.InstanceNameParam(target)},
		stringParam("AssocClass", opts.AssocClass),
		stringParam("ResultClass", opts.ResultClass),
		stringParam("Role", opts.Role),
		stringParam("ResultRole", opts.ResultRole),
		boolParam("IncludeClassOrigin", opts.IncludeResult.IncludeClassOrigin),
		stringArrayParam("PropertyList", opts.IncludeResult.PropertyList),
	}
	params = openParams(params, maxObjectCount)

	ret, err := c.doIntrinsic(ctx, "OpenAssociatorInstances", ns, params)
	if err != nil {
		return nil, PullResult{}, err
	}
	ec := c.newEnumerationContext(ns, shapeNamedInstances)
	return ec, ec.resultOf(ret), nil
}

// OpenReferenceInstances opens a pull enumeration over the association
// instances referencing path.
func (c *Connection) OpenReferenceInstances(ctx context.Context, path *cim.InstanceName, opts AssociationOptions, maxObjectCount uint32) (*EnumerationContext, PullResult, error) {
	ns, err := c.resolveNamespace("", path.Namespace)
	if err != nil {
		return nil, PullResult{}, err
	}
	target := cloneInstanceNameWithNamespace(path, ns)
	params := []xmlcodec.Param{
		{Name: "InstancePath", Value: xmlcodec.InstanceNameParam(target)},
		stringParam("ResultClass", opts.ResultClass),
		stringParam("Role", opts.Role),
		boolParam("IncludeClassOrigin", opts.IncludeResult.IncludeClassOrigin),
		stringArrayParam("PropertyList", opts.IncludeResult.PropertyList),
	}
	params = openParams(params, maxObjectCount)

	ret, err := c.doIntrinsic(ctx, "OpenReferenceInstances", ns, params)
	if err != nil {
		return nil, PullResult{}, err
	}
	ec := c.newEnumerationContext(ns, shapeNamedInstances)
	return ec, ec.resultOf(ret), nil
}

// OpenQueryInstances opens a pull enumeration over the instances matching
// a query. Results carry no path, matching ExecQuery's
// shape.
func (c *Connection) OpenQueryInstances(ctx context.Context, ns, query, queryLanguage string, maxObjectCount uint32) (*EnumerationContext, PullResult, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, PullResult{}, err
	}
	params := openParams([]xmlcodec.Param{
		{Name: "FilterQueryLanguage", Value: xmlcodec.ScalarParam(cim.String(queryLanguage))},
		{Name: "FilterQuery", Value: xmlcodec.ScalarParam(cim.String(query))},
	}, maxObjectCount)

	ret, err := c.doIntrinsic(ctx, "OpenQueryInstances", ns, params)
	if err != nil {
		return nil, PullResult{}, err
	}
	ec := c.newEnumerationContext(ns, shapeInstances)
	return ec, ec.resultOf(ret), nil
}
