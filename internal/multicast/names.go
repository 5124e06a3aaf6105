package multicast

// Well-known type names
const (
	RootTypeName              = "PostSharp.Extensibility.MulticastAttribute"
	UsageTypeName             = "PostSharp.Extensibility.MulticastAttributeUsageAttribute"
	HasInheritedAttributeName = "PostSharp.Extensibility.HasInheritedAttributeAttribute"
	InheritedRefAttributeName = "PostSharp.Extensibility.InheritedAttributeRefAttribute"
	PoolTypeName              = "<>z__MulticastAttributePool"
)

// Named arguments of multicast annotation instances
const (
	PropTargetElements            = "AttributeTargetElements"
	PropTargetAssemblies          = "AttributeTargetAssemblies"
	PropTargetTypes               = "AttributeTargetTypes"
	PropTargetTypeAttributes      = "AttributeTargetTypeAttributes"
	PropTargetMembers             = "AttributeTargetMembers"
	PropTargetMemberAttributes    = "AttributeTargetMemberAttributes"
	PropTargetParameters          = "AttributeTargetParameters"
	PropTargetParameterAttributes = "AttributeTargetParameterAttributes"
	PropExclude                   = "AttributeExclude"
	PropReplace                   = "AttributeReplace"
	PropPriority                  = "AttributePriority"
	PropInheritance               = "AttributeInheritance"
	PropID                        = "AttributeId"
)

// Named arguments of usage declarations. The valid targets are the first
// constructor argument or the ValidOn named argument.
const (
	UsageValidOn                   = "ValidOn"
	UsageAllowMultiple             = "AllowMultiple"
	UsageAllowExternalAssemblies   = "AllowExternalAssemblies"
	UsagePersistMetaData           = "PersistMetaData"
	UsageTargetTypeAttributes      = "TargetTypeAttributes"
	UsageTargetMemberAttributes    = "TargetMemberAttributes"
	UsageTargetParameterAttributes = "TargetParameterAttributes"
	UsageInheritance               = "Inheritance"
)
