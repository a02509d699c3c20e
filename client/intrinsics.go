package client

import (
	"context"
	"fmt"

	"github.com/tony23/pywbem/cim"
	"github.com/tony23/pywbem/xmlcodec"
)

// boolParam builds a named scalar boolean request parameter.
func boolParam(name string, v bool) xmlcodec.Param {
	return xmlcodec.Param{Name: name, Value: xmlcodec.ScalarParam(cim.Boolean(v))}
}

// stringArrayParam builds a named string-array parameter, or an absent
// parameter when list is nil. Nil and empty-but-non-nil are distinct: for
// PropertyList, nil means "return all" and empty means "return none".
func stringArrayParam(name string, list []string) xmlcodec.Param {
	if list == nil {
		return xmlcodec.Param{Name: name, Value: xmlcodec.AbsentParam()}
	}
	elems := make([]cim.TypedValue, len(list))
	for i, s := range list {
		elems[i] = cim.String(s)
	}
	return xmlcodec.Param{Name: name, Value: xmlcodec.ArrayParam(cim.Array{ElementType: cim.TypeString, Elements: elems})}
}

// stringParam builds a named scalar string parameter, or an absent
// parameter when s is empty.
func stringParam(name, s string) xmlcodec.Param {
	if s == "" {
		return xmlcodec.Param{Name: name, Value: xmlcodec.AbsentParam()}
	}
	return xmlcodec.Param{Name: name, Value: xmlcodec.ScalarParam(cim.String(s))}
}

// cloneInstanceNameWithNamespace returns a shallow copy of path with its
// Namespace replaced by ns, used once the operation engine has resolved
// the effective namespace.
func cloneInstanceNameWithNamespace(path *cim.InstanceName, ns string) *cim.InstanceName {
	clone := *path
	clone.Namespace = ns
	return &clone
}

func cloneClassNameWithNamespace(name string, ns string) *cim.ClassName {
	return &cim.ClassName{Name: name, Namespace: ns}
}

// GetInstanceOptions controls the optional IPARAMVALUEs of GetInstance.
type GetInstanceOptions struct {
	LocalOnly          bool
	IncludeQualifiers  bool
	IncludeClassOrigin bool
	// PropertyList, when non-nil, restricts the returned properties. A
	// non-nil empty slice requests no properties at all.
	PropertyList []string
}

// GetInstance retrieves a single instance by path.
func (c *Connection) GetInstance(ctx context.Context, path *cim.InstanceName, opts GetInstanceOptions) (*cim.Instance, error) {
	ns, err := c.resolveNamespace("", path.Namespace)
	if err != nil {
		return nil, err
	}
	target := cloneInstanceNameWithNamespace(path, ns)

	params := []xmlcodec.Param{
		{Name: "InstanceName", Value: xmlcodec.InstanceNameParam(target)},
		boolParam("LocalOnly", opts.LocalOnly),
		boolParam("IncludeQualifiers", opts.IncludeQualifiers),
		boolParam("IncludeClassOrigin", opts.IncludeClassOrigin),
		stringArrayParam("PropertyList", opts.PropertyList),
	}

	ret, err := c.doIntrinsic(ctx, "GetInstance", ns, params)
	if err != nil {
		return nil, err
	}
	if len(ret.Instances) != 1 {
		return nil, fmt.Errorf("client: GetInstance returned %d instances, expected 1", len(ret.Instances))
	}
	return ret.Instances[0], nil
}

// EnumerationOptions controls the optional IPARAMVALUEs of
// EnumerateInstances and OpenEnumerateInstances; the association
// operations use its IncludeQualifiers, IncludeClassOrigin and
// PropertyList fields through AssociationOptions.IncludeResult.
type EnumerationOptions struct {
	DeepInheritance    bool
	LocalOnly          bool
	IncludeQualifiers  bool
	IncludeClassOrigin bool
	PropertyList       []string
}

// EnumerateInstances returns every instance of className (and its
// subclasses, per DeepInheritance) in ns.
func (c *Connection) EnumerateInstances(ctx context.Context, ns, className string, opts EnumerationOptions) ([]*cim.Instance, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, err
	}
	params := []xmlcodec.Param{
		{Name: "ClassName", Value: xmlcodec.ClassNameParam(className)},
		boolParam("DeepInheritance", opts.DeepInheritance),
		boolParam("LocalOnly", opts.LocalOnly),
		boolParam("IncludeQualifiers", opts.IncludeQualifiers),
		boolParam("IncludeClassOrigin", opts.IncludeClassOrigin),
		stringArrayParam("PropertyList", opts.PropertyList),
	}
	ret, err := c.doIntrinsic(ctx, "EnumerateInstances", ns, params)
	if err != nil {
		return nil, err
	}
	return ret.Instances, nil
}

// EnumerateInstanceNames returns the object paths of every instance of
// className.
func (c *Connection) EnumerateInstanceNames(ctx context.Context, ns, className string) ([]*cim.InstanceName, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, err
	}
	params := []xmlcodec.Param{
		{Name: "ClassName", Value: xmlcodec.ClassNameParam(className)},
	}
	ret, err := c.doIntrinsic(ctx, "EnumerateInstanceNames", ns, params)
	if err != nil {
		return nil, err
	}
	return ret.InstanceNames, nil
}

// CreateInstance creates inst in ns and returns the server-assigned
// object path.
func (c *Connection) CreateInstance(ctx context.Context, ns string, inst *cim.Instance) (*cim.InstanceName, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, err
	}
	params := []xmlcodec.Param{
		{Name: "NewInstance", Value: xmlcodec.InstanceParam(inst)},
	}
	ret, err := c.doIntrinsic(ctx, "CreateInstance", ns, params)
	if err != nil {
		return nil, err
	}
	if len(ret.InstanceNames) != 1 {
		return nil, fmt.Errorf("client: CreateInstance returned %d paths, expected 1", len(ret.InstanceNames))
	}
	return ret.InstanceNames[0], nil
}

// ModifyInstance updates an existing instance in place. inst.Path must be
// set.
func (c *Connection) ModifyInstance(ctx context.Context, inst *cim.Instance, propertyList []string) error {
	if inst.Path == nil {
		return fmt.Errorf("client: ModifyInstance requires inst.Path")
	}
	ns, err := c.resolveNamespace("", inst.Path.Namespace)
	if err != nil {
		return err
	}
	named := &xmlcodec.NamedInstanceParam{Name: cloneInstanceNameWithNamespace(inst.Path, ns), Instance: inst}
	params := []xmlcodec.Param{
		{Name: "ModifiedInstance", Value: xmlcodec.ParamValue{NamedInstance: named}},
		stringArrayParam("PropertyList", propertyList),
	}
	_, err = c.doIntrinsic(ctx, "ModifyInstance", ns, params)
	return err
}

// DeleteInstance removes the instance named by path.
func (c *Connection) DeleteInstance(ctx context.Context, path *cim.InstanceName) error {
	ns, err := c.resolveNamespace("", path.Namespace)
	if err != nil {
		return err
	}
	target := cloneInstanceNameWithNamespace(path, ns)
	params := []xmlcodec.Param{
		{Name: "InstanceName", Value: xmlcodec.InstanceNameParam(target)},
	}
	_, err = c.doIntrinsic(ctx, "DeleteInstance", ns, params)
	return err
}

// AssociationOptions controls the optional IPARAMVALUEs of
// Associators/AssociatorNames/References/ReferenceNames.
type AssociationOptions struct {
	AssocClass    string
	ResultClass   string
	Role          string
	ResultRole    string
	IncludeResult EnumerationOptions
}

// Associators returns the instances associated with path via any
// association matching the filters.
func (c *Connection) Associators(ctx context.Context, path *cim.InstanceName, opts AssociationOptions) ([]xmlcodec.NamedInstance, error) {
	ns, err := c.resolveNamespace("", path.Namespace)
	if err != nil {
		return nil, err
	}
	target := cloneInstanceNameWithNamespace(path, ns)
	params := []xmlcodec.Param{
		{Name: "ObjectName", Value: xmlcodec.InstanceNameParam(target)},
		stringParam("AssocClass", opts.AssocClass),
		stringParam("ResultClass", opts.ResultClass),
		stringParam("Role", opts.Role),
		stringParam("ResultRole", opts.ResultRole),
		boolParam("IncludeQualifiers", opts.IncludeResult.IncludeQualifiers),
		boolParam("IncludeClassOrigin", opts.IncludeResult.IncludeClassOrigin),
		stringArrayParam("PropertyList", opts.IncludeResult.PropertyList),
	}
	ret, err := c.doIntrinsic(ctx, "Associators", ns, params)
	if err != nil {
		return nil, err
	}
	return ret.NamedInstances, nil
}

// AssociatorNames returns the object paths of instances associated with
// path.
func (c *Connection) AssociatorNames(ctx context.Context, path *cim.InstanceName, opts AssociationOptions) ([]*cim.InstanceName, error) {
	ns, err := c.resolveNamespace("", path.Namespace)
	if err != nil {
		return nil, err
	}
	target := cloneInstanceNameWithNamespace(path, ns)
	params := []xmlcodec.Param{
		{Name: "ObjectName", Value: xmlcodec.InstanceNameParam(target)},
		stringParam("AssocClass", opts.AssocClass),
		stringParam("ResultClass", opts.ResultClass),
		stringParam("Role", opts.Role),
		stringParam("ResultRole", opts.ResultRole),
	}
	ret, err := c.doIntrinsic(ctx, "AssociatorNames", ns, params)
	if err != nil {
		return nil, err
	}
	return ret.InstanceNames, nil
}

// References returns the association instances that reference path.
func (c *Connection) References(ctx context.Context, path *cim.InstanceName, opts AssociationOptions) ([]xmlcodec.NamedInstance, error) {
	ns, err := c.resolveNamespace("", path.Namespace)
	if err != nil {
		return nil, err
	}
	target := cloneInstanceNameWithNamespace(path, ns)
	params := []xmlcodec.Param{
		{Name: "ObjectName", Value: xmlcodec.InstanceNameParam(target)},
		stringParam("ResultClass", opts.ResultClass),
		stringParam("Role", opts.Role),
		boolParam("IncludeQualifiers", opts.IncludeResult.IncludeQualifiers),
		boolParam("IncludeClassOrigin", opts.IncludeResult.IncludeClassOrigin),
		stringArrayParam("PropertyList", opts.IncludeResult.PropertyList),
	}
	ret, err := c.doIntrinsic(ctx, "References", ns, params)
	if err != nil {
		return nil, err
	}
	return ret.NamedInstances, nil
}

// ReferenceNames returns the object paths of association instances that
// reference path.
func (c *Connection) ReferenceNames(ctx context.Context, path *cim.InstanceName, opts AssociationOptions) ([]*cim.InstanceName, error) {
	ns, err := c.resolveNamespace("", path.Namespace)
	if err != nil {
		return nil, err
	}
	target := cloneInstanceNameWithNamespace(path, ns)
	params := []xmlcodec.Param{
		{Name: "ObjectName", Value: xmlcodec.InstanceNameParam(target)},
		stringParam("ResultClass", opts.ResultClass),
		stringParam("Role", opts.Role),
	}
	ret, err := c.doIntrinsic(ctx, "ReferenceNames", ns, params)
	if err != nil {
		return nil, err
	}
	return ret.InstanceNames, nil
}

// ExecQuery runs a query in queryLanguage (e.g. "WQL" or "CQL") against
// ns.
func (c *Connection) ExecQuery(ctx context.Context, ns, query, queryLanguage string) ([]*cim.Instance, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, err
	}
	params := []xmlcodec.Param{
		{Name: "QueryLanguage", Value: xmlcodec.ScalarParam(cim.String(queryLanguage))},
		{Name: "Query", Value: xmlcodec.ScalarParam(cim.String(query))},
	}
	ret, err := c.doIntrinsic(ctx, "ExecQuery", ns, params)
	if err != nil {
		return nil, err
	}
	return ret.Instances, nil
}

// GetClass retrieves a single class definition.
func (c *Connection) GetClass(ctx context.Context, ns, className string, opts GetInstanceOptions) (*cim.Class, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, err
	}
	params := []xmlcodec.Param{
		{Name: "ClassName", Value: xmlcodec.ClassNameParam(className)},
		boolParam("LocalOnly", opts.LocalOnly),
		boolParam("IncludeQualifiers", opts.IncludeQualifiers),
		boolParam("IncludeClassOrigin", opts.IncludeClassOrigin),
		stringArrayParam("PropertyList", opts.PropertyList),
	}
	ret, err := c.doIntrinsic(ctx, "GetClass", ns, params)
	if err != nil {
		return nil, err
	}
	if len(ret.Classes) != 1 {
		return nil, fmt.Errorf("client: GetClass returned %d classes, expected 1", len(ret.Classes))
	}
	return ret.Classes[0], nil
}

// EnumerateClasses returns the subclass tree rooted at className, or the
// whole schema when className is empty.
func (c *Connection) EnumerateClasses(ctx context.Context, ns, className string, deepInheritance bool) ([]*cim.Class, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, err
	}
	params := []xmlcodec.Param{
		stringParam("ClassName", className),
		boolParam("DeepInheritance", deepInheritance),
	}
	ret, err := c.doIntrinsic(ctx, "EnumerateClasses", ns, params)
	if err != nil {
		return nil, err
	}
	return ret.Classes, nil
}

// EnumerateClassNames returns class names only.
func (c *Connection) EnumerateClassNames(ctx context.Context, ns, className string, deepInheritance bool) ([]*cim.ClassName, error) {
	ns, err := c.resolveNamespace(ns, "")
	if err != nil {
		return nil, err
	}
	params := []xmlcodec.Param{
		stringParam("ClassName", className),
		boolParam("DeepInheritance", deepInheritance),
	}
	ret, err := c.doIntrinsic(ctx, "EnumerateClassNames", ns, params)
	if err != nil {
		return nil, err
	}
	return ret.ClassNames, nil
}
