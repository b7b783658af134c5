/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package domain

// Snapshot wire codec. The serialized form is the stable contract with the
// persistence collaborator: a JSON array of element records discriminated by
// the "kind" field, floats for geometry, hex string for color, integer epoch
// milliseconds for createdAt. Saved markups from older builds must keep
// decoding, so new fields may only be added as optional.

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EmptyMarkup is the serialized form of a blueprint with no annotations.
const EmptyMarkup = "[]"

// EncodeSnapshot serializes a snapshot to the wire format. A nil snapshot
// encodes as the empty array, never as JSON null.
func EncodeSnapshot(s Snapshot) (string, error) {
	if s == nil {
		return EmptyMarkup, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}
	return string(b), nil
}

// DecodeSnapshot parses the wire format back into a snapshot. Every element
// is validated; one malformed element rejects the whole payload, since a
// partially decoded markup would silently drop annotations.
func DecodeSnapshot(raw string) (Snapshot, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == EmptyMarkup {
		return Snapshot{}, nil
	}
	var s Snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s == nil {
		// json.Unmarshal accepts "null" without error; the markup contract
		// requires an array, with "[]" as the only empty form.
		return nil, fmt.Errorf("decode snapshot: not a JSON array")
	}
	for i, e := range s {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("decode snapshot: element %d: %w", i, err)
		}
	}
	return s, nil
}
