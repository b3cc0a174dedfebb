package ltdplan

// Props are resource properties. Leaves are strings, numbers, booleans or
// Values; inner nodes are Props, map[string]any, []any or []string.
type Props map[string]any

// DeletionPolicy is the CloudFormation deletion policy of a resource.
type DeletionPolicy string

const (
	DeletionPolicyDefault  DeletionPolicy = ""
	DeletionPolicyDelete   DeletionPolicy = "Delete"
	DeletionPolicyRetain   DeletionPolicy = "Retain"
	DeletionPolicySnapshot DeletionPolicy = "Snapshot"
)

// Resource describes a single CloudFormation resource.
type Resource struct {
	ID             string
	Type           string
	Properties     Props
	DeletionPolicy DeletionPolicy
	// DependsOn lists logical IDs in the same stack.
	DependsOn []string

	stack *Stack
}

// Stack returns the stack the resource was added to.
func (r *Resource) Stack() *Stack { return r.stack }

// Ref returns the "Ref" value of the resource.
func (r *Resource) Ref() Ref {
	return Ref{Stack: r.stack.Name, Resource: r.ID}
}

// GetAtt returns a reference to one of the resource's attributes.
func (r *Resource) GetAtt(attr string) GetAtt {
	return GetAtt{Stack: r.stack.Name, Resource: r.ID, Attribute: attr}
}
