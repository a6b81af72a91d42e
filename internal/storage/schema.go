/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"
)

//go:embed document.schema.json
var documentSchema []byte

// ErrInvalidDocument is returned when data does not match the document schema.
var ErrInvalidDocument = errors.New("invalid document")

var (
	schemaOnce sync.Once
	schema     *gojsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*gojsonschema.Schema, error) {
	schemaOnce.Do(func() {
		schema, schemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(documentSchema))
	})
	return schema, schemaErr
}

// Validate checks data against the embedded document schema. Violations are
// reported as one error wrapping ErrInvalidDocument.
func Validate(data []byte) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("load document schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
}

// SchemaJSON returns the embedded schema, e.g. for editors offering completion.
func SchemaJSON() []byte { return append([]byte(nil), documentSchema...) }
