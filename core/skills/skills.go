package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Skills are the order and inventory operations the storefront model can
// invoke via tool_use. Each skill carries a name and description for the
// model, a JSON Schema describing its parameters, and the handler that
// runs when the model calls it. The same registry backs the HTTP tool
// endpoint, so a tool behaves identically whether the model or an
// operator invokes it.

// Skill is a model-invocable operation.
type Skill struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	InputSchema *InputSchema `json:"input_schema"`

	Handler Handler `json:"-"`

	// Usage tracking
	InvokeCount int64 `json:"invoke_count"`
}

// InputSchema defines the JSON Schema for skill inputs.
type InputSchema struct {
	Type       string               `json:"type"` // Always "object"
	Properties map[string]*Property `json:"properties,omitempty"`
	Required   []string             `json:"required,omitempty"`
}

// Property defines a single input property.
type Property struct {
	Type        string               `json:"type"`
	Description string               `json:"description,omitempty"`
	Enum        []string             `json:"enum,omitempty"`
	Items       *Property            `json:"items,omitempty"`      // For arrays
	Properties  map[string]*Property `json:"properties,omitempty"` // For nested objects
	Default     any                  `json:"default,omitempty"`
}

// Handler executes a skill with the given input.
type Handler func(ctx context.Context, input json.RawMessage) (any, error)

// Result is the result of a skill invocation.
type Result struct {
	SkillName string `json:"skill_name"`
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

// =============================================================================
// Skill Builder (Fluent API)
// =============================================================================

// Builder provides a fluent API for building skills.
type Builder struct {
	skill *Skill
}

// NewSkill creates a new skill builder.
func NewSkill(name string) *Builder {
	return &Builder{
		skill: &Skill{
			Name: name,
			InputSchema: &InputSchema{
				Type:       "object",
				Properties: make(map[string]*Property),
			},
		},
	}
}

// Description sets the skill description.
func (b *Builder) Description(desc string) *Builder {
	b.skill.Description = desc
	return b
}

// StringParam adds a string parameter.
func (b *Builder) StringParam(name, description string, required bool) *Builder {
	b.skill.InputSchema.Properties[name] = &Property{
		Type:        "string",
		Description: description,
	}
	if required {
		b.skill.InputSchema.Required = append(b.skill.InputSchema.Required, name)
	}
	return b
}

// EnumParam adds an enum parameter.
func (b *Builder) EnumParam(name, description string, values []string, required bool) *Builder {
	b.skill.InputSchema.Properties[name] = &Property{
		Type:        "string",
		Description: description,
		Enum:        values,
	}
	if required {
		b.skill.InputSchema.Required = append(b.skill.InputSchema.Required, name)
	}
	return b
}

// IntParam adds an integer parameter.
func (b *Builder) IntParam(name, description string, required bool) *Builder {
	b.skill.InputSchema.Properties[name] = &Property{
		Type:        "integer",
		Description: description,
	}
	if required {
		b.skill.InputSchema.Required = append(b.skill.InputSchema.Required, name)
	}
	return b
}

// BoolParam adds a boolean parameter.
func (b *Builder) BoolParam(name, description string, required bool) *Builder {
	b.skill.InputSchema.Properties[name] = &Property{
		Type:        "boolean",
		Description: description,
	}
	if required {
		b.skill.InputSchema.Required = append(b.skill.InputSchema.Required, name)
	}
	return b
}

// ArrayParam adds an array parameter.
func (b *Builder) ArrayParam(name, description, itemType string, required bool) *Builder {
	b.skill.InputSchema.Properties[name] = &Property{
		Type:        "array",
		Description: description,
		Items:       &Property{Type: itemType},
	}
	if required {
		b.skill.InputSchema.Required = append(b.skill.InputSchema.Required, name)
	}
	return b
}

// ObjectParam adds an object parameter.
func (b *Builder) ObjectParam(name, description string, properties map[string]*Property, required bool) *Builder {
	b.skill.InputSchema.Properties[name] = &Property{
		Type:        "object",
		Description: description,
		Properties:  properties,
	}
	if required {
		b.skill.InputSchema.Required = append(b.skill.InputSchema.Required, name)
	}
	return b
}

// Handler sets the skill handler.
func (b *Builder) Handler(h Handler) *Builder {
	b.skill.Handler = h
	return b
}

// Build returns the constructed skill.
func (b *Builder) Build() *Skill {
	return b.skill
}

// =============================================================================
// Skill Registry
// =============================================================================

// Registry manages available skills.
type Registry struct {
	mu     sync.RWMutex
	skills map[string]*Skill

	// Registration order, preserved so tool listings are stable.
	order []string
}

// NewRegistry creates a new skill registry.
func NewRegistry() *Registry {
	return &Registry{
		skills: make(map[string]*Skill),
	}
}

// Register adds a skill to the registry.
func (r *Registry) Register(skill *Skill) error {
	if skill.Name == "" {
		return fmt.Errorf("skill name is required")
	}
	if skill.Handler == nil {
		return fmt.Errorf("skill handler is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.skills[skill.Name]; !exists {
		r.order = append(r.order, skill.Name)
	}
	r.skills[skill.Name] = skill
	return nil
}

// Get returns a skill by name, or nil.
func (r *Registry) Get(name string) *Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.skills[name]
}

// Names returns registered skill names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// GetAll returns all registered skills in registration order.
func (r *Registry) GetAll() []*Skill {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Skill, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.skills[name])
	}
	return result
}

// Invoke executes a skill by name.
func (r *Registry) Invoke(ctx context.Context, name string, input json.RawMessage) *Result {
	r.mu.RLock()
	skill := r.skills[name]
	r.mu.RUnlock()

	if skill == nil {
		return &Result{
			SkillName: name,
			Success:   false,
			Error:     fmt.Sprintf("skill not found: %s", name),
		}
	}

	result, err := skill.Handler(ctx, input)

	r.mu.Lock()
	skill.InvokeCount++
	r.mu.Unlock()

	if err != nil {
		return &Result{
			SkillName: name,
			Success:   false,
			Error:     err.Error(),
		}
	}

	return &Result{
		SkillName: name,
		Success:   true,
		Data:      result,
	}
}

// =============================================================================
// Tool Definition (for Anthropic API)
// =============================================================================

// ToToolDefinition converts a skill to Anthropic tool format.
func (s *Skill) ToToolDefinition() map[string]any {
	return map[string]any{
		"name":         s.Name,
		"description":  s.Description,
		"input_schema": s.InputSchema,
	}
}

// ToolDefinitions returns tool definitions for every registered skill, in
// registration order.
func (r *Registry) ToolDefinitions() []map[string]any {
	all := r.GetAll()
	result := make([]map[string]any, len(all))
	for i, skill := range all {
		result[i] = skill.ToToolDefinition()
	}
	return result
}

// =============================================================================
// Skill Stats
// =============================================================================

// Stats contains registry statistics.
type Stats struct {
	Total      int     `json:"total"`
	TopInvoked []Usage `json:"top_invoked"`
}

// Usage tracks skill usage.
type Usage struct {
	Name        string `json:"name"`
	InvokeCount int64  `json:"invoke_count"`
}

// Stats returns skill statistics.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	usages := make([]Usage, 0, len(r.skills))
	for _, skill := range r.skills {
		if skill.InvokeCount > 0 {
			usages = append(usages, Usage{Name: skill.Name, InvokeCount: skill.InvokeCount})
		}
	}
	sortTopInvoked(usages)
	if len(usages) > 5 {
		usages = usages[:5]
	}

	return Stats{
		Total:      len(r.skills),
		TopInvoked: usages,
	}
}

func sortTopInvoked(usages []Usage) {
	for i := 0; i < len(usages) && i < 5; i++ {
		for j := i + 1; j < len(usages); j++ {
			if usages[j].InvokeCount > usages[i].InvokeCount {
				usages[i], usages[j] = usages[j], usages[i]
			}
		}
	}
}
