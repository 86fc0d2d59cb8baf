package runner

import "fmt"

var (
	trueValues  = []string{"true", "True", "TRUE"}
	falseValues = []string{"false", "False", "FALSE"}
)

// InputError reports an action input that is not a valid boolean
type InputError struct {
	Name  string
	Value string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("Input does not meet YAML 1.2 \"Core Schema\" specification: %s\n"+
		"Support boolean input list: `true | True | TRUE | false | False | FALSE`", e.Name)
}

// ParseBool accepts only the core schema spellings. Empty is invalid because
// every input carries a default in action.yml.
func ParseBool(name, value string) (bool, error) {
	for _, v := range trueValues {
		if value == v {
			return true, nil
		}
	}
	for _, v := range falseValues {
		if value == v {
			return false, nil
		}
	}
	return false, &InputError{Name: name, Value: value}
}
