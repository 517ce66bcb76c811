package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// LoadWithWarnings parses config data and returns any unknown field warnings.
func LoadWithWarnings(path string, data []byte) (*Config, []string, error) {
	cfg, err := parse(data)
	if err != nil {
		return nil, nil, err
	}

	warnings := detectUnknownFields(data)

	return cfg, warnings, nil
}

// sectionTypes maps nested config sections to their struct types.
var sectionTypes = map[string]reflect.Type{
	"parser": reflect.TypeOf(ParserConfig{}),
	"report": reflect.TypeOf(ReportConfig{}),
	"build":  reflect.TypeOf(BuildConfig{}),
}

// detectUnknownFields compares raw JSON with known struct fields.
// It is called after the data parsed successfully into a Config.
func detectUnknownFields(data []byte) []string {
	var warnings []string

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return []string{"internal: failed to re-parse config for unknown field detection"}
	}

	knownTopLevel := getJSONFields(reflect.TypeOf(Config{}))
	for _, key := range sortedKeys(raw) {
		if key == "$schema" {
			continue // $schema is explicitly allowed and ignored
		}
		if !knownTopLevel[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q at root level (ignored)", key))
		}
	}

	for _, section := range []string{"parser", "report", "build"} {
		if sectionRaw, ok := raw[section]; ok {
			warnings = append(warnings, checkSectionUnknownFields(section, sectionRaw)...)
		}
	}

	return warnings
}

func checkSectionUnknownFields(section string, data json.RawMessage) []string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}

	var warnings []string
	known := getJSONFields(sectionTypes[section])
	for _, key := range sortedKeys(fields) {
		if !known[key] {
			warnings = append(warnings, fmt.Sprintf("unknown field %q in %s (ignored)", key, section))
		}
	}
	return warnings
}

// getJSONFields returns a map of known JSON field names for a struct type.
func getJSONFields(t reflect.Type) map[string]bool {
	fields := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			fields[name] = true
		}
	}
	return fields
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
