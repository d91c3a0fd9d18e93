package util

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/oliveagle/jsonpath"
)

var tokenRe = regexp.MustCompile(`\{\{([^}]*)\}\}`)

// ResolveParams resolves every templated value in a node config against the
// accumulated run data. Keys are preserved; values the data does not know
// about keep their original {{token}} text.
func ResolveParams(params map[string]any, data map[string]any) map[string]any {
	output := make(map[string]any, len(params))
	for k, v := range params {
		output[k] = Resolve(v, data)
	}
	return output
}

// Resolve substitutes {{identifier}} tokens in a string, recurses into maps
// and lists, and returns any other value unchanged. Identifiers starting
// with $ are treated as jsonpath expressions over the data map.
func Resolve(value any, data map[string]any) any {
	switch v := value.(type) {
	case string:
		return resolveString(v, data)
	case map[string]any:
		return ResolveParams(v, data)
	case []any:
		output := make([]any, 0, len(v))
		for _, item := range v {
			output = append(output, Resolve(item, data))
		}
		return output
	default:
		return value
	}
}

func resolveString(s string, data map[string]any) string {
	return tokenRe.ReplaceAllStringFunc(s, func(token string) string {
		name := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(token, "{{"), "}}"))
		value, ok := lookup(name, data)
		if !ok {
			return token
		}
		return stringify(value)
	})
}

func lookup(name string, data map[string]any) (any, bool) {
	if strings.HasPrefix(name, "$") {
		value, err := jsonpath.JsonPathLookup(data, name)
		if err != nil {
			return nil, false
		}
		return value, true
	}
	value, ok := data[name]
	return value, ok
}

func stringify(value any) string {
	switch value.(type) {
	case map[string]any, []any:
		res, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprintf("%v", value)
		}
		return string(res)
	default:
		return fmt.Sprintf("%v", value)
	}
}
