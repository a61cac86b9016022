package mcp

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
)

// argumentGetter is satisfied by mcp.CallToolRequest.
type argumentGetter interface {
	GetArguments() map[string]any
}

// bindArguments decodes tool arguments into target using json tags. MCP
// clients often send every parameter as a string, so JSON-encoded arrays and
// objects, booleans and numbers inside strings are coerced to the target type.
// Extra hooks run after the JSON coercion.
func bindArguments[T any](request argumentGetter, target *T, hooks ...mapstructure.DecodeHookFunc) error {
	all := append([]mapstructure.DecodeHookFunc{jsonStringHook}, hooks...)
	all = append(all, mapstructure.StringToSliceHookFunc(","))

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(all...),
		Result:           target,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(request.GetArguments())
}

func jsonStringHook(f reflect.Type, t reflect.Type, data any) (any, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	raw := strings.TrimSpace(data.(string))
	if raw == "" {
		return data, nil
	}

	switch t.Kind() {
	case reflect.Slice:
		if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			slicePtr := reflect.New(t)
			if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err == nil {
				return slicePtr.Elem().Interface(), nil
			}
		}
	case reflect.Map, reflect.Struct:
		if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
			var result any
			if err := json.Unmarshal([]byte(raw), &result); err == nil {
				return result, nil
			}
		}
	case reflect.Bool:
		if raw == "true" || raw == "false" {
			return raw == "true", nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		var n json.Number
		if err := json.Unmarshal([]byte(raw), &n); err == nil {
			return n, nil
		}
	}
	return data, nil
}
