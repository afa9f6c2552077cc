// Copyright (c) 2024-2026 Vocalis AI
// Author: Vocalis Engineering <engineering@vocalis.ai>
//
// Licensed under GPL-2.0 with Vocalis Additional Terms.
// See LICENSE.md or contact sales@vocalis.ai for commercial usage.

package internal_prompt

import (
	"fmt"

	"github.com/flosch/pongo2/v6"
)

// DefaultSystemTemplate is the system prompt used when an assistant has
// no template of its own. Variables come from the call session.
const DefaultSystemTemplate = `You are {{ assistant_name|default:"a helpful voice assistant" }} on a live phone call.
Keep replies short and conversational; the caller hears them spoken aloud.
{% if caller_number %}The caller's number is {{ caller_number }}.{% endif %}`

// WorkflowSystemTemplate frames generation for sessions routed at a
// workflow graph: the model executes the entry node's instructions.
const WorkflowSystemTemplate = `You are executing workflow {{ workflow_id }} on a live phone call.
Follow the workflow instructions for the current node and reply with what should be spoken next.
Keep replies short and conversational; the caller hears them spoken aloud.
{% if caller_number %}The caller's number is {{ caller_number }}.{% endif %}`

// SquadSystemTemplate frames generation for squad-routed sessions: the
// model coordinates on behalf of the member assistants.
const SquadSystemTemplate = `You are the coordinator for assistant squad {{ squad_id }} on a live phone call.
Answer on behalf of the squad, handing the conversation to the most suitable member's expertise.
Keep replies short and conversational; the caller hears them spoken aloud.
{% if caller_number %}The caller's number is {{ caller_number }}.{% endif %}`

// Render evaluates a pongo2 template against call-scoped variables.
func Render(template string, vars map[string]interface{}) (string, error) {
	tpl, err := pongo2.FromString(template)
	if err != nil {
		return "", fmt.Errorf("prompt: unable to parse template: %w", err)
	}
	out, err := tpl.Execute(pongo2.Context(vars))
	if err != nil {
		return "", fmt.Errorf("prompt: unable to render template: %w", err)
	}
	return out, nil
}

// RenderSystem renders the assistant system prompt, falling back to the
// default template when the assistant has none.
func RenderSystem(template string, vars map[string]interface{}) (string, error) {
	if template == "" {
		template = DefaultSystemTemplate
	}
	return Render(template, vars)
}
