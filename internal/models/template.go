// internal/models/template.go
package models

// MessageTemplate is an immutable outreach template keyed by name. Subject
// and body use {{placeholder}} syntax.
type MessageTemplate struct {
	Name            string `json:"name"`
	Subject         string `json:"subject"`
	Body            string `json:"body"`
	ComplianceLevel string `json:"complianceLevel"`
}

// RenderedMessage is the result of substituting a recipient's field values
// into a template. The compliance level is the one asserted by the template,
// not re-derived.
type RenderedMessage struct {
	TemplateName    string `json:"templateName"`
	Subject         string `json:"subject"`
	Body            string `json:"body"`
	ComplianceLevel string `json:"complianceLevel"`
}

// Compliance levels
const (
	ComplianceFERPA = "FERPA_COMPLIANT"
)

// Built-in template names
const (
	TemplateDefaultPrevention    = "default_prevention"
	TemplatePaymentPlan          = "payment_plan"
	TemplateCounselingInvitation = "counseling_invitation"
)
