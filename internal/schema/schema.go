/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package schema holds the JSON Schema for the serialized markup wire format
// and a validator over it. The schema is the machine-checkable form of the
// persistence contract; the backend validates incoming markup against it so
// a buggy client cannot poison stored blueprints.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed markup.schema.json
var markupSchema string

var (
	compileOnce sync.Once
	compiled    *gojsonschema.Schema
	compileErr  error
)

func loader() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiled, compileErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(markupSchema))
	})
	return compiled, compileErr
}

// ValidateMarkup checks a serialized snapshot against the wire schema and
// returns a single error naming every violation.
func ValidateMarkup(raw string) error {
	s, err := loader()
	if err != nil {
		return fmt.Errorf("compile markup schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("markup is not valid JSON: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("markup schema violation: %s", strings.Join(msgs, "; "))
}
