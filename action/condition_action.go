package action

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oliveagle/jsonpath"
)

type conditionConfig struct {
	variable  string
	operator  string
	threshold any
}

var validOperators = []string{">", "<", "==", "!=", "contains"}

func parseConditionConfig(config map[string]any) (*conditionConfig, error) {
	variable, _ := config["variable"].(string)
	if len(variable) == 0 {
		return nil, fmt.Errorf("condition config is missing 'variable'")
	}
	operator, _ := config["operator"].(string)
	valid := false
	for _, op := range validOperators {
		if op == operator {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid condition operator %q", operator)
	}
	return &conditionConfig{
		variable:  variable,
		operator:  operator,
		threshold: config["threshold"],
	}, nil
}

// evaluateCondition resolves the configured variable against the run data
// and compares it to the threshold. An unknown variable name falls back to
// being parsed as a numeric literal, then to the raw string itself.
// Returns the outcome plus the evaluated expression text for the step log.
func evaluateCondition(config map[string]any, data map[string]any) (bool, string, error) {
	cond, err := parseConditionConfig(config)
	if err != nil {
		return false, "", err
	}
	value := lookupVariable(cond.variable, data)
	result, err := compare(value, cond.operator, cond.threshold)
	if err != nil {
		return false, "", err
	}
	expression := fmt.Sprintf("%v %s %v => %t", value, cond.operator, cond.threshold, result)
	return result, expression, nil
}

func lookupVariable(name string, data map[string]any) any {
	if strings.HasPrefix(name, "$") {
		if value, err := jsonpath.JsonPathLookup(data, name); err == nil {
			return value
		}
	}
	if value, ok := data[name]; ok {
		return value
	}
	if f, err := strconv.ParseFloat(name, 64); err == nil {
		return f
	}
	return name
}

func compare(value any, operator string, threshold any) (bool, error) {
	switch operator {
	case ">", "<":
		left, lok := toFloat(value)
		right, rok := toFloat(threshold)
		if !lok || !rok {
			return false, fmt.Errorf("operator %q needs numeric operands, got %v and %v", operator, value, threshold)
		}
		if operator == ">" {
			return left > right, nil
		}
		return left < right, nil
	case "==", "!=":
		equal := valuesEqual(value, threshold)
		if operator == "==" {
			return equal, nil
		}
		return !equal, nil
	case "contains":
		return strings.Contains(fmt.Sprintf("%v", value), fmt.Sprintf("%v", threshold)), nil
	}
	return false, fmt.Errorf("invalid condition operator %q", operator)
}

func valuesEqual(value any, threshold any) bool {
	left, lok := toFloat(value)
	right, rok := toFloat(threshold)
	if lok && rok {
		return left == right
	}
	return fmt.Sprintf("%v", value) == fmt.Sprintf("%v", threshold)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	}
	return 0, false
}
