package analysis

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-ast/component"
	"github.com/wippyai/wasm-ast/core"
)

type componentStackItem struct {
	component *component.Component
	idx       *component.ComponentIdx
}

type resourceKey struct {
	path    string
	typeIdx component.ComponentTypeIdx
}

// analysisState is shared between a context and every context derived from
// it, so warnings and resource ids accumulate across the whole walk.
type analysisState struct {
	warnings    []AnalysisWarning
	resourceIDs map[resourceKey]AnalysedResourceId
}

// AnalysisContext walks a parsed component and recovers the fully typed
// shape of its exports. A context is cheap to copy; derived contexts created
// during resolution share the same warning and resource-id state.
type AnalysisContext struct {
	stack []componentStackItem
	state *analysisState
}

// NewAnalysisContext initializes an analyzer for a component.
func NewAnalysisContext(c *component.Component) *AnalysisContext {
	return &AnalysisContext{
		stack: []componentStackItem{{component: c}},
		state: &analysisState{resourceIDs: make(map[resourceKey]AnalysedResourceId)},
	}
}

// GetTopLevelExports resolves every top-level export of the component into
// an AnalysedExport with full type information. Function and instance
// exports are analysed; other export kinds produce warnings.
func (ctx *AnalysisContext) GetTopLevelExports() ([]AnalysedExport, error) {
	c := ctx.component()
	var result []AnalysedExport
	for _, export := range c.Exports() {
		switch export.Kind {
		case component.KindFunc:
			function, err := ctx.analyseFuncExport(export.Name, export.Idx)
			if err != nil {
				return nil, err
			}
			result = append(result, *function)
		case component.KindInstance:
			instance, err := ctx.analyseInstanceExport(export.Name, export.Idx)
			if err != nil {
				return nil, err
			}
			result = append(result, *instance)
		default:
			ctx.warn(UnsupportedExportWarning{Kind: export.Kind, Name: export.Name})
		}
	}
	return result, nil
}

// GetAllMemories collects the memories (not just exported ones) declared by
// every module in the component tree. The returned nodes are shared with
// the AST and must not be mutated.
func (ctx *AnalysisContext) GetAllMemories() []*core.Mem {
	var result []*core.Mem
	stack := []*component.Component{ctx.component()}
	for len(stack) > 0 {
		c := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, module := range c.Modules() {
			result = append(result, module.Mems()...)
		}
		stack = append(stack, c.Components()...)
	}
	return result
}

// Warnings returns the warnings collected so far.
func (ctx *AnalysisContext) Warnings() []AnalysisWarning {
	return ctx.state.warnings
}

func (ctx *AnalysisContext) warn(warning AnalysisWarning) {
	Logger().Debug("analysis warning", zap.String("warning", warning.Warning()))
	ctx.state.warnings = append(ctx.state.warnings, warning)
}

func (ctx *AnalysisContext) component() *component.Component {
	return ctx.stack[len(ctx.stack)-1].component
}

func (ctx *AnalysisContext) pushComponent(c *component.Component, idx component.ComponentIdx) *AnalysisContext {
	stack := make([]componentStackItem, len(ctx.stack), len(ctx.stack)+1)
	copy(stack, ctx.stack)
	stack = append(stack, componentStackItem{component: c, idx: &idx})
	return ctx.withStack(stack)
}

func (ctx *AnalysisContext) withStack(stack []componentStackItem) *AnalysisContext {
	return &AnalysisContext{stack: stack, state: ctx.state}
}

// resourceID returns a run-unique id for the resource type at the given
// index, keyed by the component path leading to it.
func (ctx *AnalysisContext) resourceID(typeIdx component.ComponentTypeIdx) AnalysedResourceId {
	path := ""
	for _, item := range ctx.stack {
		if item.idx != nil {
			path += fmt.Sprintf("/%d", *item.idx)
		}
	}
	key := resourceKey{path: path, typeIdx: typeIdx}
	if id, ok := ctx.state.resourceIDs[key]; ok {
		return id
	}
	id := AnalysedResourceId(len(ctx.state.resourceIDs))
	ctx.state.resourceIDs[key] = id
	return id
}

func (ctx *AnalysisContext) analyseFuncExport(name string, idx component.ComponentFuncIdx) (*AnalysedFunction, error) {
	functionSection, next, err := ctx.getFinalReferenced(
		fmt.Sprintf("component function %d", idx),
		func(c *component.Component) (component.ComponentSection, bool) { return c.GetComponentFunc(idx) })
	if err != nil {
		return nil, err
	}

	var typeSection component.ComponentSection
	switch s := functionSection.(type) {
	case *component.CanonLift:
		typeSection, next, err = next.getFinalReferenced(
			fmt.Sprintf("component function type %d", s.FunctionType),
			func(c *component.Component) (component.ComponentSection, bool) {
				return c.GetComponentType(s.FunctionType)
			})
	case *component.Import:
		funcRef, ok := s.Desc.(component.TypeRefFunc)
		if !ok {
			return nil, failed("Expected function import, but got %#v instead", s.Desc)
		}
		typeSection, next, err = next.getFinalReferenced(
			fmt.Sprintf("component function type %d", funcRef.TypeIdx),
			func(c *component.Component) (component.ComponentSection, bool) {
				return c.GetComponentType(funcRef.TypeIdx)
			})
	default:
		return nil, failed("Expected canonical lift function or function import, but got %T instead", functionSection)
	}
	if err != nil {
		return nil, err
	}

	funcType, ok := typeSection.(*component.FuncType)
	if !ok {
		return nil, failed("Expected function type, but got %T instead", typeSection)
	}
	return next.analyseComponentFuncType(name, funcType)
}

func (ctx *AnalysisContext) analyseComponentFuncType(name string, funcType *component.FuncType) (*AnalysedFunction, error) {
	params := make([]AnalysedFunctionParameter, 0, len(funcType.Params))
	for _, param := range funcType.Params {
		typ, err := ctx.analyseComponentValType(param.Type)
		if err != nil {
			return nil, err
		}
		params = append(params, AnalysedFunctionParameter{Name: param.Name, Typ: typ})
	}

	var results []AnalysedFunctionResult
	switch {
	case funcType.Result.Named != nil:
		for _, named := range funcType.Result.Named {
			typ, err := ctx.analyseComponentValType(named.Type)
			if err != nil {
				return nil, err
			}
			name := named.Name
			results = append(results, AnalysedFunctionResult{Name: &name, Typ: typ})
		}
	case funcType.Result.Unnamed != nil:
		typ, err := ctx.analyseComponentValType(funcType.Result.Unnamed)
		if err != nil {
			return nil, err
		}
		results = append(results, AnalysedFunctionResult{Typ: typ})
	}

	return &AnalysedFunction{Name: name, Parameters: params, Results: results}, nil
}

func (ctx *AnalysisContext) analyseComponentValType(vt component.ComponentValType) (AnalysedType, error) {
	switch t := vt.(type) {
	case component.PrimitiveValueType:
		return analysePrimitive(t)
	case component.DefinedValType:
		return ctx.analyseComponentTypeIdx(component.ComponentTypeIdx(t), nil)
	}
	return nil, failed("Unexpected value type %T", vt)
}

func analysePrimitive(t component.PrimitiveValueType) (AnalysedType, error) {
	switch t {
	case component.PrimBool:
		return TypeBool{}, nil
	case component.PrimS8:
		return TypeS8{}, nil
	case component.PrimU8:
		return TypeU8{}, nil
	case component.PrimS16:
		return TypeS16{}, nil
	case component.PrimU16:
		return TypeU16{}, nil
	case component.PrimS32:
		return TypeS32{}, nil
	case component.PrimU32:
		return TypeU32{}, nil
	case component.PrimS64:
		return TypeS64{}, nil
	case component.PrimU64:
		return TypeU64{}, nil
	case component.PrimF32:
		return TypeF32{}, nil
	case component.PrimF64:
		return TypeF64{}, nil
	case component.PrimChr:
		return TypeChr{}, nil
	case component.PrimStr:
		return TypeStr{}, nil
	}
	return nil, failed("Unexpected primitive value type 0x%02x", byte(t))
}

func (ctx *AnalysisContext) analyseComponentTypeIdx(idx component.ComponentTypeIdx, mode *AnalysedResourceMode) (AnalysedType, error) {
	typeSection, next, err := ctx.getFinalReferenced(
		fmt.Sprintf("component type %d", idx),
		func(c *component.Component) (component.ComponentSection, bool) { return c.GetComponentType(idx) })
	if err != nil {
		return nil, err
	}

	switch s := typeSection.(type) {
	case *component.FuncType:
		return nil, failed("Passing functions in exported functions is not supported")
	case component.ComponentTypeDecls:
		return nil, failed("Passing components in exported functions is not supported")
	case component.InstanceTypeDecls:
		return nil, failed("Passing instances in exported functions is not supported")
	case *component.ResourceType:
		return nil, failed("Passing resources in exported functions is not supported")
	case *component.Import:
		switch desc := s.Desc.(type) {
		case component.TypeRefType:
			switch bounds := desc.Bounds.(type) {
			case component.TypeBoundsEq:
				return ctx.analyseComponentTypeIdx(bounds.TypeIdx, mode)
			case component.TypeBoundsSubResource:
				if mode == nil {
					return nil, failed("Reached a sub-resource type bound without a surrounding borrowed/owned resource type")
				}
				return TypeHandle{ResourceID: next.resourceID(idx), Mode: *mode}, nil
			}
		}
		return nil, failed("Import %#v is not supported as a defined type", s.Desc)
	case component.ComponentDefinedType:
		return next.analyseDefinedType(s)
	}
	return nil, failed("Expected component type, but got %T instead", typeSection)
}

func (ctx *AnalysisContext) analyseDefinedType(defined component.ComponentDefinedType) (AnalysedType, error) {
	switch t := defined.(type) {
	case component.PrimitiveValueType:
		return analysePrimitive(t)
	case *component.RecordType:
		fields := make([]NameTypePair, 0, len(t.Fields))
		for _, field := range t.Fields {
			typ, err := ctx.analyseComponentValType(field.Type)
			if err != nil {
				return nil, err
			}
			fields = append(fields, NameTypePair{Name: field.Name, Typ: typ})
		}
		return &TypeRecord{Fields: fields}, nil
	case *component.VariantType:
		cases := make([]NameOptionTypePair, 0, len(t.Cases))
		for _, variantCase := range t.Cases {
			pair := NameOptionTypePair{Name: variantCase.Name}
			if variantCase.Type != nil {
				typ, err := ctx.analyseComponentValType(variantCase.Type)
				if err != nil {
					return nil, err
				}
				pair.Typ = typ
			}
			cases = append(cases, pair)
		}
		return &TypeVariant{Cases: cases}, nil
	case *component.ListType:
		inner, err := ctx.analyseComponentValType(t.Elem)
		if err != nil {
			return nil, err
		}
		return &TypeList{Inner: inner}, nil
	case *component.TupleType:
		items := make([]AnalysedType, 0, len(t.Elems))
		for _, elem := range t.Elems {
			typ, err := ctx.analyseComponentValType(elem)
			if err != nil {
				return nil, err
			}
			items = append(items, typ)
		}
		return &TypeTuple{Items: items}, nil
	case *component.FlagsType:
		return &TypeFlags{Names: t.Names}, nil
	case *component.EnumType:
		return &TypeEnum{Cases: t.Names}, nil
	case *component.OptionType:
		inner, err := ctx.analyseComponentValType(t.Type)
		if err != nil {
			return nil, err
		}
		return &TypeOption{Inner: inner}, nil
	case *component.ResultType:
		result := &TypeResult{}
		if t.Ok != nil {
			ok, err := ctx.analyseComponentValType(t.Ok)
			if err != nil {
				return nil, err
			}
			result.Ok = ok
		}
		if t.Err != nil {
			errArm, err := ctx.analyseComponentValType(t.Err)
			if err != nil {
				return nil, err
			}
			result.Err = errArm
		}
		return result, nil
	case *component.OwnedType:
		mode := ResourceModeOwned
		return ctx.analyseComponentTypeIdx(t.TypeIdx, &mode)
	case *component.BorrowedType:
		mode := ResourceModeBorrowed
		return ctx.analyseComponentTypeIdx(t.TypeIdx, &mode)
	}
	return nil, failed("Unexpected defined type %T", defined)
}

func (ctx *AnalysisContext) analyseInstanceExport(name string, idx component.InstanceIdx) (*AnalysedInstance, error) {
	instanceSection, next, err := ctx.getFinalReferenced(
		fmt.Sprintf("instance %d", idx),
		func(c *component.Component) (component.ComponentSection, bool) { return c.GetInstanceWrapped(idx) })
	if err != nil {
		return nil, err
	}

	switch s := instanceSection.(type) {
	case *component.Instantiate:
		componentSection, next, err := next.getFinalReferenced(
			fmt.Sprintf("component %d", s.ComponentIdx),
			func(c *component.Component) (component.ComponentSection, bool) { return c.GetComponent(s.ComponentIdx) })
		if err != nil {
			return nil, err
		}
		referenced, ok := componentSection.(*component.Component)
		if !ok {
			return nil, failed("Expected component, but got %T instead", componentSection)
		}

		next = next.pushComponent(referenced, s.ComponentIdx)
		var funcs []AnalysedFunction
		for _, export := range referenced.Exports() {
			if export.Kind != component.KindFunc {
				next.warn(UnsupportedExportWarning{Kind: export.Kind, Name: export.Name})
				continue
			}
			function, err := next.analyseFuncExport(export.Name, export.Idx)
			if err != nil {
				return nil, err
			}
			funcs = append(funcs, *function)
		}
		return &AnalysedInstance{Name: name, Functions: funcs}, nil
	case *component.InstanceFromExports:
		return nil, failed("Instance defined directly from exports are not supported")
	}
	return nil, failed("Expected instance, but got %T instead", instanceSection)
}

// getFinalReferenced resolves a direct section reference and then chases
// export, alias and import-type redirects until reaching a definition.
func (ctx *AnalysisContext) getFinalReferenced(description string, f func(*component.Component) (component.ComponentSection, bool)) (component.ComponentSection, *AnalysisContext, error) {
	section, ok := f(ctx.component())
	if !ok {
		return nil, nil, failed("Failed to find %s", description)
	}
	return ctx.followRedirects(section)
}

func (ctx *AnalysisContext) followRedirects(section component.ComponentSection) (component.ComponentSection, *AnalysisContext, error) {
	c := ctx.component()
	switch s := section.(type) {
	case *component.Export:
		var next component.ComponentSection
		var ok bool
		switch s.Kind {
		case component.KindModule:
			next, ok = c.GetModule(s.Idx)
		case component.KindFunc:
			next, ok = c.GetComponentFunc(s.Idx)
		case component.KindValue:
			next, ok = c.GetValue(s.Idx)
		case component.KindType:
			next, ok = c.GetComponentType(s.Idx)
		case component.KindInstance:
			next, ok = c.GetInstanceWrapped(s.Idx)
		case component.KindComponent:
			next, ok = c.GetComponent(s.Idx)
		}
		if !ok {
			return nil, nil, failed("Failed to find %s %d", s.Kind, s.Idx)
		}
		return ctx.followRedirects(next)
	case *component.AliasInstanceExport:
		instanceSection, next, err := ctx.getFinalReferenced(
			fmt.Sprintf("instance %d", s.InstanceIdx),
			func(c *component.Component) (component.ComponentSection, bool) {
				return c.GetInstanceWrapped(s.InstanceIdx)
			})
		if err != nil {
			return nil, nil, err
		}
		return next.findInstanceExport(instanceSection, s.Name)
	case *component.Import:
		if desc, ok := s.Desc.(component.TypeRefType); ok {
			if bounds, ok := desc.Bounds.(component.TypeBoundsEq); ok {
				typeSection, ok := c.GetComponentType(bounds.TypeIdx)
				if !ok {
					return nil, nil, failed("Failed to find type %d", bounds.TypeIdx)
				}
				return ctx.followRedirects(typeSection)
			}
		}
		return section, ctx, nil
	case *component.AliasOuter:
		if int(s.Count)+1 > len(ctx.stack) {
			return nil, nil, failed("Component stack underflow (count=%d, size=%d)", s.Count, len(ctx.stack))
		}
		referenced := ctx.stack[:len(ctx.stack)-int(s.Count)]
		target := referenced[len(referenced)-1].component
		next := ctx.withStack(referenced)
		switch s.Kind {
		case component.OuterAliasKindCoreModule:
			return nil, nil, failed("Core module aliases are not supported")
		case component.OuterAliasKindCoreType:
			return nil, nil, failed("Core type aliases are not supported")
		case component.OuterAliasKindType:
			typeSection, ok := target.GetComponentType(s.Index)
			if !ok {
				return nil, nil, failed("Failed to find type %d", s.Index)
			}
			return next.followRedirects(typeSection)
		case component.OuterAliasKindComponent:
			componentSection, ok := target.GetComponent(s.Index)
			if !ok {
				return nil, nil, failed("Failed to find component %d", s.Index)
			}
			return next.followRedirects(componentSection)
		}
		return nil, nil, failed("Unexpected outer alias kind %v", s.Kind)
	}
	return section, ctx, nil
}

func (ctx *AnalysisContext) findInstanceExport(instanceSection component.ComponentSection, name string) (component.ComponentSection, *AnalysisContext, error) {
	switch s := instanceSection.(type) {
	case component.Instance:
		export, next, err := ctx.findExportByName(s, name)
		if err != nil {
			return nil, nil, err
		}
		if export == nil {
			return nil, nil, failed("Missing aliased instance export %s from instance", name)
		}
		return next.followRedirects(export)
	case *component.Import:
		instanceRef, ok := s.Desc.(component.TypeRefInstance)
		if !ok {
			return nil, nil, failed("Expected instance or imported instance, but got import %#v instead", s.Desc)
		}
		typeSection, ok := ctx.component().GetComponentType(instanceRef.TypeIdx)
		if !ok {
			return nil, nil, failed("Failed to find type %d", instanceRef.TypeIdx)
		}
		resolved, next, err := ctx.followRedirects(typeSection)
		if err != nil {
			return nil, nil, err
		}
		return next.findInstanceExport(resolved, name)
	case component.InstanceTypeDecls:
		return ctx.findInstanceTypeExport(s, name)
	}
	return nil, nil, failed("Expected instance or imported instance, but got %T instead", instanceSection)
}

func (ctx *AnalysisContext) findInstanceTypeExport(decls component.InstanceTypeDecls, name string) (component.ComponentSection, *AnalysisContext, error) {
	desc, found := decls.FindExport(name)
	if !found {
		return nil, nil, failed("Could not find exported element %s in instance type declaration", name)
	}

	resolveType := func(typeIdx component.ComponentTypeIdx) (component.ComponentSection, *AnalysisContext, error) {
		typeSection, ok := ctx.component().GetComponentType(typeIdx)
		if !ok {
			return nil, nil, failed("Failed to find type %d", typeIdx)
		}
		return ctx.followRedirects(typeSection)
	}

	switch d := desc.(type) {
	case component.TypeRefModule:
		return resolveType(d.TypeIdx)
	case component.TypeRefFunc:
		return resolveType(d.TypeIdx)
	case component.TypeRefInstance:
		return resolveType(d.TypeIdx)
	case component.TypeRefComponent:
		return resolveType(d.TypeIdx)
	case component.TypeRefType:
		switch bounds := d.Bounds.(type) {
		case component.TypeBoundsEq:
			decl, ok := decls.GetComponentType(bounds.TypeIdx)
			if !ok {
				return nil, nil, failed("Failed to find type %d", bounds.TypeIdx)
			}
			switch inner := decl.(type) {
			case component.DeclCoreType:
				return nil, nil, failed("Core type aliases are not supported")
			case component.DeclType:
				return inner.Type, ctx, nil
			case component.DeclAlias:
				item := ctx.stack[len(ctx.stack)-1]
				if item.idx == nil {
					return nil, nil, failed("Instance type alias resolution requires an enclosing component")
				}
				// Duplicate the current component on the stack to emulate
				// the inner scope the declaration list forms.
				next := ctx.pushComponent(ctx.component(), *item.idx)
				return next.followRedirects(inner.Alias)
			default:
				return nil, nil, failed("Unexpected instance type declaration %T", decl)
			}
		case component.TypeBoundsSubResource:
			return nil, nil, failed("Reached a sub-resource type bound without a surrounding borrowed/owned resource type in findInstanceExport")
		}
		return nil, nil, failed("Unexpected type bounds %T", d.Bounds)
	case component.TypeRefVal:
		return nil, nil, failed("Value exports in instance type declarations are not supported")
	}
	return nil, nil, failed("Unexpected export descriptor %T", desc)
}

func (ctx *AnalysisContext) findExportByName(instance component.Instance, name string) (component.ComponentSection, *AnalysisContext, error) {
	switch s := instance.(type) {
	case *component.Instantiate:
		componentSection, next, err := ctx.getFinalReferenced(
			fmt.Sprintf("component %d", s.ComponentIdx),
			func(c *component.Component) (component.ComponentSection, bool) { return c.GetComponent(s.ComponentIdx) })
		if err != nil {
			return nil, nil, err
		}
		referenced, ok := componentSection.(*component.Component)
		if !ok {
			return nil, nil, failed("Expected component, but got %T instead", componentSection)
		}
		for _, export := range referenced.Exports() {
			if export.Name == name {
				return export, next.pushComponent(referenced, s.ComponentIdx), nil
			}
		}
		return nil, next.pushComponent(referenced, s.ComponentIdx), nil
	case *component.InstanceFromExports:
		for _, export := range s.Exports {
			if export.Name == name {
				return export, ctx, nil
			}
		}
		return nil, ctx, nil
	}
	return nil, nil, failed("Unexpected instance node %T", instance)
}
