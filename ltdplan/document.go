package ltdplan

import (
	"github.com/iancoleman/strcase"
	"github.com/samber/lo"
)

// Document returns a CloudFormation-shaped tree of the stack for previews.
// References into other stacks are qualified as "<stack>/<resource>".
func Document(s *Stack) map[string]any {
	doc := map[string]any{}
	if s.Description != "" {
		doc["Description"] = s.Description
	}
	if len(s.Transforms) > 0 {
		doc["Transform"] = lo.ToAnySlice(s.Transforms)
	}
	if len(s.dependsOn) > 0 {
		doc["Metadata"] = map[string]any{"DependsOnStacks": lo.ToAnySlice(s.dependsOn)}
	}

	resources := map[string]any{}
	for _, r := range s.Resources {
		res := map[string]any{"Type": r.Type}
		if len(r.Properties) > 0 {
			res["Properties"] = documentValue(s, r.Properties)
		}
		if r.DeletionPolicy != DeletionPolicyDefault {
			res["DeletionPolicy"] = string(r.DeletionPolicy)
			res["UpdateReplacePolicy"] = string(r.DeletionPolicy)
		}
		if len(r.DependsOn) > 0 {
			res["DependsOn"] = lo.ToAnySlice(r.DependsOn)
		}
		resources[r.ID] = res
	}
	doc["Resources"] = resources

	if len(s.Exports) > 0 {
		outputs := map[string]any{}
		for _, e := range s.Exports {
			out := map[string]any{
				"Value":  documentValue(s, e.Value),
				"Export": map[string]any{"Name": e.Name},
			}
			if e.Description != "" {
				out["Description"] = e.Description
			}
			outputs[strcase.ToCamel(e.Key)] = out
		}
		doc["Outputs"] = outputs
	}
	return doc
}

// DocumentGraph returns the documents of all stacks in deployment order.
func DocumentGraph(g *Graph) ([]map[string]any, error) {
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	docs := make([]map[string]any, 0, len(order))
	for _, s := range order {
		docs = append(docs, map[string]any{
			"StackName": s.Name,
			"Template":  Document(s),
		})
	}
	return docs, nil
}

func documentValue(s *Stack, v any) any {
	switch tv := v.(type) {
	case Ref:
		return map[string]any{"Ref": qualify(s, tv.Stack, tv.Resource)}
	case GetAtt:
		return map[string]any{"Fn::GetAtt": []any{qualify(s, tv.Stack, tv.Resource), tv.Attribute}}
	case ImportValue:
		return map[string]any{"Fn::ImportValue": tv.Name}
	case Pseudo:
		return map[string]any{"Ref": string(tv)}
	case Join:
		return map[string]any{"Fn::Join": []any{tv.Delimiter, documentValue(s, tv.Parts)}}
	case Props:
		return documentMap(s, tv)
	case map[string]any:
		return documentMap(s, tv)
	case []any:
		return lo.Map(tv, func(e any, _ int) any { return documentValue(s, e) })
	case []string:
		return lo.ToAnySlice(tv)
	default:
		return v
	}
}

func documentMap(s *Stack, m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, e := range m {
		out[k] = documentValue(s, e)
	}
	return out
}

func qualify(s *Stack, stack, resource string) string {
	if stack == s.Name {
		return resource
	}
	return stack + "/" + resource
}
