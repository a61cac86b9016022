package mcp

import "fmt"

// parseStringArg extracts a string argument from an MCP arguments map.
// Returns an error if the argument is required but missing or invalid.
func parseStringArg(argsMap map[string]any, key string, required bool) (string, error) {
	val, ok := argsMap[key]
	if !ok {
		if required {
			return "", fmt.Errorf("%s parameter is required", key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string", key)
	}

	if required && str == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}

	return str, nil
}

// parseBoolArg extracts a boolean argument from an MCP arguments map.
// Returns defaultVal if the argument is missing or invalid.
func parseBoolArg(argsMap map[string]any, key string, defaultVal bool) bool {
	val, ok := argsMap[key]
	if !ok {
		return defaultVal
	}

	switch b := val.(type) {
	case bool:
		return b
	case string:
		return b == "true"
	}
	return defaultVal
}
