package ltdplan

import "fmt"

// Value is a property value that is only known at provisioning time.
type Value interface {
	fmt.Stringer
	isValue()
}

// Ref is the "Ref" intrinsic of a resource.
type Ref struct {
	Stack    string
	Resource string
}

// GetAtt reads an attribute of a resource.
type GetAtt struct {
	Stack     string
	Resource  string
	Attribute string
}

// ImportValue reads a named export of some other, externally owned, stack.
type ImportValue struct {
	Name string
}

// Join concatenates parts with a delimiter. Parts are strings or Values.
type Join struct {
	Delimiter string
	Parts     []any
}

// Pseudo is a CloudFormation pseudo parameter.
type Pseudo string

const (
	Region    Pseudo = "AWS::Region"
	AccountID Pseudo = "AWS::AccountId"
	Partition Pseudo = "AWS::Partition"
	URLSuffix Pseudo = "AWS::URLSuffix"
)

func (Ref) isValue()         {}
func (GetAtt) isValue()      {}
func (ImportValue) isValue() {}
func (Join) isValue()        {}
func (Pseudo) isValue()      {}

func (v Ref) String() string         { return fmt.Sprintf("!Ref %s/%s", v.Stack, v.Resource) }
func (v GetAtt) String() string      { return fmt.Sprintf("!GetAtt %s/%s.%s", v.Stack, v.Resource, v.Attribute) }
func (v ImportValue) String() string { return fmt.Sprintf("!ImportValue %s", v.Name) }
func (v Pseudo) String() string      { return fmt.Sprintf("!Ref %s", string(v)) }

func (v Join) String() string {
	return fmt.Sprintf("!Join [%q, %v]", v.Delimiter, v.Parts)
}

// Joinf is a shorthand for a Join with an empty delimiter.
func Joinf(parts ...any) Join {
	return Join{Parts: parts}
}

// Values converts a list of Values into a property list.
func Values[V Value](vs ...V) []any {
	out := make([]any, len(vs))
	for i, v := range vs {
		out[i] = v
	}
	return out
}
