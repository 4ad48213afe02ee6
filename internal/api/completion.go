// Copyright 2025 Alan Matykiewicz
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

package api

import "github.com/alan-mat/webanswer/internal/llm"

type ChatRequest struct {
	// Required
	Messages []llm.Message

	// Optional params
	ModelName   string
	Temperature *float32

	// ResponseSchema asks providers that support structured output
	// to constrain the completion to the given schema.
	ResponseSchema *Schema

	// JSONMode asks providers that support it to emit a single JSON object.
	JSONMode bool
}

// SystemPrompt returns the concatenated text of all system messages.
func (r ChatRequest) SystemPrompt() string {
	out := ""
	for _, m := range r.Messages {
		if m.Role == llm.MessageRoleSystem {
			out += m.Text()
		}
	}
	return out
}

// Conversation returns all non-system messages in order.
func (r ChatRequest) Conversation() []llm.Message {
	msgs := make([]llm.Message, 0, len(r.Messages))
	for _, m := range r.Messages {
		if m.Role != llm.MessageRoleSystem {
			msgs = append(msgs, m)
		}
	}
	return msgs
}
