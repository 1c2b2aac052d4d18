package loam

// StepMetadata is the front matter of a step document. Each Markdown
// document describes one step of one form; the body becomes the step
// description.
//
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type StepMetadata struct {
	// Form names the form the step belongs to.
	Form string `json:"form" mapstructure:"form"`
	// FormTitle sets the form title. Any step of the form may carry it.
	FormTitle string `json:"form_title,omitempty" mapstructure:"form_title"`

	// ID defaults to the document name without extension.
	ID string `json:"id" mapstructure:"id"`
	// Order positions the step; ties keep document ID order.
	Order      int    `json:"order" mapstructure:"order"`
	Title      string `json:"title,omitempty" mapstructure:"title"`
	SkipIf     string `json:"skip_if,omitempty" mapstructure:"skip_if"`
	CompleteIf string `json:"complete_if,omitempty" mapstructure:"complete_if"`

	// Controls and Edges use the definition format and are decoded by it.
	Controls []any `json:"controls" mapstructure:"controls"`
	Edges    []any `json:"edges,omitempty" mapstructure:"edges"`
}
