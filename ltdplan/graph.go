package ltdplan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// Graph is the ordered set of stacks that make up a deployment.
type Graph struct {
	stacks []*Stack
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// NewStack adds a stack to the graph. It panics on a duplicate name.
func (g *Graph) NewStack(name, description string) *Stack {
	if g.Stack(name) != nil {
		panic(fmt.Sprintf("ltdplan: duplicate stack %q", name))
	}
	s := &Stack{
		Name:        name,
		Description: description,
		reasons:     map[string]string{},
		graph:       g,
	}
	g.stacks = append(g.stacks, s)
	return s
}

// Stack returns the stack with the given name, or nil.
func (g *Graph) Stack(name string) *Stack {
	s, _ := lo.Find(g.stacks, func(s *Stack) bool { return s.Name == name })
	return s
}

// Stacks returns the stacks in the order they were added.
func (g *Graph) Stacks() []*Stack {
	return append([]*Stack(nil), g.stacks...)
}

// Imports returns the sorted, de-duplicated names of every ImportValue
// referenced anywhere in the graph.
func (g *Graph) Imports() []string {
	var names []string
	g.eachValue(func(_ *Stack, _ string, v Value) {
		if iv, ok := v.(ImportValue); ok {
			names = append(names, iv.Name)
		}
	})
	names = lo.Uniq(names)
	sort.Strings(names)
	return names
}

// Order returns the stacks in a deployable order: every stack comes after all
// stacks it depends on. Stacks without mutual constraints keep insertion
// order.
func (g *Graph) Order() ([]*Stack, error) {
	indegree := make(map[string]int, len(g.stacks))
	dependents := make(map[string][]string, len(g.stacks))
	for _, s := range g.stacks {
		indegree[s.Name] = len(s.dependsOn)
		for _, dep := range s.dependsOn {
			if g.Stack(dep) == nil {
				return nil, errors.Newf("stack %q depends on unknown stack %q", s.Name, dep)
			}
			dependents[dep] = append(dependents[dep], s.Name)
		}
	}

	order := make([]*Stack, 0, len(g.stacks))
	for len(order) < len(g.stacks) {
		next := lo.Filter(g.stacks, func(s *Stack, _ int) bool {
			return indegree[s.Name] == 0 && !lo.Contains(order, s)
		})
		if len(next) == 0 {
			remaining := lo.FilterMap(g.stacks, func(s *Stack, _ int) (string, bool) {
				return s.Name, !lo.Contains(order, s)
			})
			return nil, errors.Newf("dependency cycle between stacks: %s", strings.Join(remaining, ", "))
		}
		for _, s := range next {
			order = append(order, s)
			for _, d := range dependents[s.Name] {
				indegree[d]--
			}
		}
	}
	return order, nil
}

// Validate checks that every reference resolves, every cross-stack reference
// is backed by a recorded stack dependency, export names are unique and the
// dependencies are acyclic.
func (g *Graph) Validate() error {
	var problems []string

	g.eachValue(func(s *Stack, path string, v Value) {
		var target, resource string
		switch tv := v.(type) {
		case Ref:
			target, resource = tv.Stack, tv.Resource
		case GetAtt:
			target, resource = tv.Stack, tv.Resource
		default:
			return
		}

		ts := g.Stack(target)
		switch {
		case ts == nil:
			problems = append(problems, fmt.Sprintf("%s: %s references unknown stack %q", s.Name, path, target))
		case ts.Resource(resource) == nil:
			problems = append(problems, fmt.Sprintf("%s: %s references unknown resource %q in %q", s.Name, path, resource, target))
		case target != s.Name && !lo.Contains(s.dependsOn, target):
			problems = append(problems, fmt.Sprintf("%s: %s references %q without depending on it", s.Name, path, target))
		}
	})

	exportNames := map[string]string{}
	for _, s := range g.stacks {
		for _, r := range s.Resources {
			for _, dep := range r.DependsOn {
				if s.Resource(dep) == nil {
					problems = append(problems, fmt.Sprintf("%s: %s depends on unknown resource %q", s.Name, r.ID, dep))
				}
			}
		}
		for _, e := range s.Exports {
			if other, ok := exportNames[e.Name]; ok {
				problems = append(problems, fmt.Sprintf("%s: export %q already declared by %q", s.Name, e.Name, other))
			}
			exportNames[e.Name] = s.Name
		}
	}

	if _, err := g.Order(); err != nil {
		problems = append(problems, err.Error())
	}

	if len(problems) > 0 {
		return errors.Newf("invalid plan:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func (g *Graph) eachValue(fn func(s *Stack, path string, v Value)) {
	for _, s := range g.stacks {
		for _, r := range s.Resources {
			Walk(r.Properties, func(path string, v Value) {
				fn(s, r.ID+"."+path, v)
			})
		}
		for _, e := range s.Exports {
			Walk([]any{e.Value}, func(_ string, v Value) {
				fn(s, "export "+e.Key, v)
			})
		}
	}
}
