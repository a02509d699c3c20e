package client

import (
	"context"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/xmlcodec"
)

// InvokeMethod calls an extrinsic CIM method on the instance named by
// path, passing inParams in the order given. Use
// InvokeClassMethod for a static method invoked against a class rather
// than an instance.
func (c *Connection) InvokeMethod(ctx context.Context, path *cim.InstanceName, methodName string, inParams []xmlcodec.Param) (cim.TypedValue, map[string]cim.TypedValue, error) {
	ns, err := c.resolveNamespace("", path.Namespace)
	if err != nil {
		return nil, nil, err
	}
	target := cloneInstanceNameWithNamespace(path, ns)

	ret, err := c.doExtrinsic(ctx, methodName, target, nil, inParams)
	if err != nil {
		return nil, nil, err
	}
	return ret.MethodReturnValue, ret.OutputParams, nil
}

// InvokeClassMethod calls a static extrinsic method against className
// rather than an instance.
func (c *Connection) InvokeClassMethod(ctx context.Context, ns, className, methodName string, inParams []xmlcodec.Param) (cim.TypedValue, map[string]cim.TypedValue, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, nil, err
	}
	target := cloneClassNameWithNamespace(className, ns)

	ret, err := c.doExtrinsic(ctx, methodName, nil, target, inParams)
	if err != nil {
		return nil, nil, err
	}
	return ret.MethodReturnValue, ret.OutputParams, nil
}
