// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package lroctl

import (
	"encoding/json"
	"fmt"

	"github.com/cbroglie/mustache"
	"github.com/iancoleman/strcase"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

const defaultFormat = "{{{name}}} {{state}}{{#error}}: {{{error}}}{{/error}}"

// view is what a format template sees for one operation.
type view struct {
	Name     string
	Done     bool
	State    string
	Err      error
	Metadata proto.Message
	Result   proto.Message
}

type formatter struct {
	tmpl *mustache.Template
}

func newFormatter(format string) (*formatter, error) {
	if format == "" {
		format = defaultFormat
	}
	tmpl, err := mustache.ParseString(format)
	if err != nil {
		return nil, fmt.Errorf("parsing format: %w", err)
	}
	return &formatter{tmpl: tmpl}, nil
}

func (f *formatter) render(v view) (string, error) {
	data := map[string]any{
		"name":  v.Name,
		"done":  v.Done,
		"state": v.State,
	}
	if v.Err != nil {
		data["error"] = v.Err.Error()
	}
	for key, msg := range map[string]proto.Message{"metadata": v.Metadata, "result": v.Result} {
		if msg == nil {
			continue
		}
		m, err := messageFields(msg)
		if err != nil {
			return "", fmt.Errorf("rendering %s of %q: %w", key, v.Name, err)
		}
		data[key] = m
	}
	return f.tmpl.Render(data)
}

// messageFields converts msg to its JSON form with snake_case keys, e.g.
// BuildOperationMetadata becomes {"build": {"id": ..., "log_url": ...}}.
// Messages of unknown type only expose their type_url.
func messageFields(msg proto.Message) (any, error) {
	if a, ok := msg.(*anypb.Any); ok {
		return map[string]any{"type_url": a.GetTypeUrl()}, nil
	}
	b, err := protojson.Marshal(msg)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return snakeKeys(v), nil
}

func snakeKeys(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[strcase.ToSnake(k)] = snakeKeys(e)
		}
		return out
	case []any:
		for i, e := range v {
			v[i] = snakeKeys(e)
		}
		return v
	default:
		return v
	}
}
