package ltdplan

import (
	"fmt"

	"github.com/samber/lo"
)

// Export is a stack output published under a well-known export name.
type Export struct {
	Key         string
	Name        string
	Description string
	Value       any
}

// NoteLevel is the severity of a Note.
type NoteLevel string

const (
	NoteInfo    NoteLevel = "info"
	NoteWarning NoteLevel = "warning"
)

// Note is a synthesis-time message attached to a stack.
type Note struct {
	Level   NoteLevel
	ID      string
	Message string
}

// Stack is an independently deployable set of resources.
type Stack struct {
	Name        string
	Description string
	Transforms  []string
	Resources   []*Resource
	Exports     []*Export
	Notes       []Note

	dependsOn []string
	reasons   map[string]string
	graph     *Graph
}

// Add adds a resource to the stack. It panics when the logical ID is already
// taken, just like duplicate construct IDs do.
func (s *Stack) Add(r *Resource) *Resource {
	if s.Resource(r.ID) != nil {
		panic(fmt.Sprintf("ltdplan: duplicate resource %q in stack %q", r.ID, s.Name))
	}
	if r.Properties == nil {
		r.Properties = Props{}
	}
	r.stack = s
	s.Resources = append(s.Resources, r)
	return r
}

// Resource returns the resource with the given logical ID, or nil.
func (s *Stack) Resource(id string) *Resource {
	r, _ := lo.Find(s.Resources, func(r *Resource) bool { return r.ID == id })
	return r
}

// ResourcesOfType returns every resource of the given CloudFormation type.
func (s *Stack) ResourcesOfType(typ string) []*Resource {
	return lo.Filter(s.Resources, func(r *Resource, _ int) bool { return r.Type == typ })
}

// Export publishes value as "<stackName>-<key>".
func (s *Stack) Export(key, description string, value any) *Export {
	e := &Export{
		Key:         key,
		Name:        s.Name + "-" + key,
		Description: description,
		Value:       value,
	}
	s.Exports = append(s.Exports, e)
	return e
}

// AddTransform adds a CloudFormation macro to the stack, once.
func (s *Stack) AddTransform(name string) {
	if !lo.Contains(s.Transforms, name) {
		s.Transforms = append(s.Transforms, name)
	}
}

// Note attaches a message that renderers surface during synthesis.
func (s *Stack) Note(level NoteLevel, id, message string) {
	s.Notes = append(s.Notes, Note{Level: level, ID: id, Message: message})
}

// DependOn records that s must be deployed after the named stack.
func (s *Stack) DependOn(stackName, reason string) {
	if stackName == s.Name || lo.Contains(s.dependsOn, stackName) {
		return
	}
	s.dependsOn = append(s.dependsOn, stackName)
	s.reasons[stackName] = reason
}

// Dependencies returns the explicitly recorded dependencies of s.
func (s *Stack) Dependencies() []string {
	return append([]string(nil), s.dependsOn...)
}

// DependencyReason returns why s depends on the named stack.
func (s *Stack) DependencyReason(stackName string) string {
	return s.reasons[stackName]
}
