package multicast

import (
	"go.uber.org/zap"

	"github.com/linkypi/PostSharp-1.5-sub005/internal/codemodel"
	"github.com/linkypi/PostSharp-1.5-sub005/internal/diagnostics"
)

// Usage is the usage contract of an annotation type, folded over the usage
// declarations of its inheritance chain
type Usage struct {
	Type                    *codemodel.Type
	ValidOn                 Targets
	AllowMultiple           bool
	AllowExternalAssemblies bool
	PersistMetaData         bool
	TypeAttributes          Attributes
	MemberAttributes        Attributes
	ParameterAttributes     Attributes
	Inheritance             Inheritance
	// InheritanceSet records that some level fixed the inheritance mode
	InheritanceSet bool
}

// usageLevel is one usage declaration. Nil pointers are unspecified values.
type usageLevel struct {
	owner         *codemodel.Type
	validOn       *Targets
	allowMultiple *bool
	allowExternal *bool
	persist       *bool
	typeAttrs     Attributes
	memberAttrs   Attributes
	paramAttrs    Attributes
	inheritance   *Inheritance
}

type usageResult struct {
	usage *Usage
	ok    bool
}

// resolveUsage returns the usage contract of t. Results, failures included,
// are memoized for the lifetime of the engine.
func (e *Engine) resolveUsage(t *codemodel.Type) (*Usage, bool) {
	if r, ok := e.usages[t]; ok {
		return r.usage, r.ok
	}
	u, ok := e.computeUsage(t)
	e.usages[t] = usageResult{usage: u, ok: ok}
	return u, ok
}

func (e *Engine) computeUsage(t *codemodel.Type) (*Usage, bool) {
	failed := false

	// Collect declarations from the most derived level up to the root
	var levels []usageLevel
	for cur := t; cur != nil; cur = baseOf(cur) {
		decls := e.usageDeclarations(cur)
		if len(decls) > 1 {
			e.report(diagnostics.NewDuplicateUsage(cur.Name(), len(decls)))
			failed = true
		}
		if len(decls) > 0 {
			levels = append(levels, e.readUsageLevel(cur, decls[0]))
		}
		if cur == e.root {
			break
		}
	}

	if len(levels) == 0 {
		e.report(diagnostics.NewMissingUsage(t.Name()))
		return nil, false
	}

	// Fold from the root down; derived levels may only narrow
	root := levels[len(levels)-1]
	u := &Usage{
		Type:                t,
		ValidOn:             TargetsAll,
		TypeAttributes:      root.typeAttrs,
		MemberAttributes:    root.memberAttrs,
		ParameterAttributes: root.paramAttrs,
	}
	if root.validOn != nil {
		u.ValidOn = *root.validOn
	}
	// Flags left unset by every level above do not constrain the next one
	multipleSet, externalSet := root.allowMultiple != nil, root.allowExternal != nil
	if multipleSet {
		u.AllowMultiple = *root.allowMultiple
	}
	if externalSet {
		u.AllowExternalAssemblies = *root.allowExternal
	}
	if root.persist != nil {
		u.PersistMetaData = *root.persist
	}
	if root.inheritance != nil {
		u.Inheritance = *root.inheritance
		u.InheritanceSet = true
	}

	for i := len(levels) - 2; i >= 0; i-- {
		l := levels[i]
		name := t.Name()

		if l.validOn != nil {
			if *l.validOn&^u.ValidOn != 0 {
				e.report(diagnostics.NewUsageTargetsWidened(name, u.ValidOn.String(), l.validOn.String()))
				failed = true
			} else {
				u.ValidOn = *l.validOn
			}
		}
		if l.allowMultiple != nil {
			if multipleSet && *l.allowMultiple && !u.AllowMultiple {
				e.report(diagnostics.NewUsageMultipleWidened(name))
				failed = true
			} else {
				u.AllowMultiple = *l.allowMultiple
				multipleSet = true
			}
		}
		if l.allowExternal != nil {
			if externalSet && *l.allowExternal && !u.AllowExternalAssemblies {
				e.report(diagnostics.NewUsageExternalWidened(name))
				failed = true
			} else {
				u.AllowExternalAssemblies = *l.allowExternal
				externalSet = true
			}
		}
		if l.persist != nil {
			u.PersistMetaData = *l.persist
		}
		if l.inheritance != nil {
			if u.InheritanceSet {
				e.report(diagnostics.NewUsageInheritanceRedefined(name))
				failed = true
			} else {
				u.Inheritance = *l.inheritance
				u.InheritanceSet = true
			}
		}

		u.TypeAttributes = l.typeAttrs.MergeUnset(u.TypeAttributes)
		u.MemberAttributes = l.memberAttrs.MergeUnset(u.MemberAttributes)
		u.ParameterAttributes = l.paramAttrs.MergeUnset(u.ParameterAttributes)
	}

	if failed {
		return nil, false
	}
	return u, true
}

// usageDeclarations returns the usage declarations attached to one level
func (e *Engine) usageDeclarations(level *codemodel.Type) []*codemodel.Annotation {
	if e.usageType == nil {
		return nil
	}
	e.repo.ScanDeclaration(level)
	return e.repo.OnTargetOfType(level, e.usageType)
}

func (e *Engine) readUsageLevel(owner *codemodel.Type, a *codemodel.Annotation) usageLevel {
	l := usageLevel{owner: owner}

	warn := func(property string, err error) {
		e.logger.Warn("ignoring malformed usage property",
			zap.String("type", owner.Name()),
			zap.String("property", property),
			zap.Error(err))
	}

	if len(a.Args) > 0 {
		if v, err := targetsValue(a.Args[0]); err != nil {
			warn(UsageValidOn, err)
		} else {
			l.validOn = &v
		}
	}
	if arg, ok := a.Get(UsageValidOn); ok {
		if v, err := targetsValue(arg); err != nil {
			warn(UsageValidOn, err)
		} else {
			l.validOn = &v
		}
	}
	l.allowMultiple = boolArg(a, UsageAllowMultiple)
	l.allowExternal = boolArg(a, UsageAllowExternalAssemblies)
	l.persist = boolArg(a, UsagePersistMetaData)

	for _, p := range []struct {
		name string
		dst  *Attributes
	}{
		{UsageTargetTypeAttributes, &l.typeAttrs},
		{UsageTargetMemberAttributes, &l.memberAttrs},
		{UsageTargetParameterAttributes, &l.paramAttrs},
	} {
		if arg, ok := a.Get(p.name); ok {
			v, err := attributesValue(arg)
			if err != nil {
				warn(p.name, err)
				continue
			}
			*p.dst = v
		}
	}

	if arg, ok := a.Get(UsageInheritance); ok {
		if v, err := inheritanceValue(arg); err != nil {
			warn(UsageInheritance, err)
		} else {
			l.inheritance = &v
		}
	}
	return l
}

func boolArg(a *codemodel.Annotation, name string) *bool {
	v, ok := a.Get(name)
	if !ok || v.Kind != codemodel.ValueBool {
		return nil
	}
	b := v.Bool
	return &b
}

func baseOf(t *codemodel.Type) *codemodel.Type {
	if t.BaseType == nil || t.BaseType.Kind != codemodel.SigDefinition {
		return nil
	}
	return t.BaseType.Type
}
