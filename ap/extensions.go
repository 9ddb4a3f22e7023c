/*
Copyright 2023 - 2025 Dima Krasner

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package ap

import "encoding/json"

// Extensions holds arbitrary JSON fields not known to a strongly-typed
// entity, keyed by field name, preserved verbatim across unmarshal/marshal.
// This is how broca:collections, broca:adminOperations and
// broca:collectionDefinition ride along on actors and activities without
// the core types needing to know about them.
type Extensions map[string]json.RawMessage

// Get unmarshals the named extension field into v, reporting whether it was present.
func (e Extensions) Get(name string, v any) (bool, error) {
	raw, ok := e[name]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// Set stores v under name, marshaling it to raw JSON.
func (e *Extensions) Set(name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if *e == nil {
		*e = Extensions{}
	}
	(*e)[name] = raw
	return nil
}

func extractExtensions(b []byte, known map[string]struct{}) (Extensions, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}

	var ext Extensions
	for k, v := range all {
		if _, isKnown := known[k]; isKnown {
			continue
		}
		if ext == nil {
			ext = Extensions{}
		}
		ext[k] = v
	}
	return ext, nil
}

// mergeExtensions re-serializes base (a JSON object) with every key in ext added,
// without clobbering fields already present in base.
func mergeExtensions(base []byte, ext Extensions) ([]byte, error) {
	if len(ext) == 0 {
		return base, nil
	}

	var m map[string]json.RawMessage
	if err := json.Unmarshal(base, &m); err != nil {
		return nil, err
	}
	for k, v := range ext {
		if _, exists := m[k]; !exists {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
