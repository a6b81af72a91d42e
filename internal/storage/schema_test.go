/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"testing"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"popupstudio/internal/domain"
)

func TestEmbeddedSchemaCompiles(t *testing.T) {
	if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(SchemaJSON())); err != nil {
		t.Fatalf("schema does not compile: %v", err)
	}
}

func TestSavedDocumentConformsToSchema(t *testing.T) {
	for _, c := range []domain.CanvasSettings{domain.DefaultCanvas(), domain.DefaultBanner()} {
		snap := sampleSnapshot("x")
		snap.CanvasSettings = c
		data, err := Marshal(snap)
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if err := Validate(data); err != nil {
			t.Fatalf("%s document does not conform: %v", c.Mode, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"not json":       `{`,
		"no blocks":      `{"canvasSettings":{"mode":"popup","width":450,"height":600}}`,
		"zero width":     `{"canvasSettings":{"mode":"popup","width":0,"height":600},"blocks":[]}`,
		"block w/o size": `{"canvasSettings":{"mode":"popup","width":450,"height":600},"blocks":[{"id":"a","type":"text","position":{"x":0,"y":0}}]}`,
		"bad placement":  `{"canvasSettings":{"mode":"banner","width":1200,"height":90,"placement":"left"},"blocks":[]}`,
	}
	for name, doc := range cases {
		if err := Validate([]byte(doc)); !errors.Is(err, ErrInvalidDocument) {
			t.Fatalf("%s: expected ErrInvalidDocument, got %v", name, err)
		}
	}
}
