// internal/stages/communication/render/store.go
package render

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xeipuuv/gojsonschema"

	commonerrors "finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/models"
)

const registrySchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["templates"],
	"properties": {
		"templates": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "subject", "body", "compliance_level"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"subject": {"type": "string", "minLength": 1},
					"body": {"type": "string", "minLength": 1},
					"compliance_level": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

type templateRegistry struct {
	Templates []registryEntry `json:"templates"`
}

type registryEntry struct {
	Name            string `json:"name"`
	Subject         string `json:"subject"`
	Body            string `json:"body"`
	ComplianceLevel string `json:"compliance_level"`
}

// BuiltinTemplates returns the fixed outreach template set. Bodies use
// double-brace placeholders resolved at render time.
func BuiltinTemplates() map[string]models.MessageTemplate {
	return map[string]models.MessageTemplate{
		models.TemplateDefaultPrevention: {
			Name:    models.TemplateDefaultPrevention,
			Subject: "Important: Student Loan Payment Information",
			Body: `Dear {{first_name}} {{last_name}},

We hope this message finds you well. We are reaching out regarding your federal student loan account that shows a past-due balance.

Account Information:
- Outstanding Balance: ${{outstanding_balance}}
- Days Past Due: {{days_delinquent}}
- Loan Type: {{loan_type}}

We want to help you avoid default and protect your credit. Please contact our office within 10 business days to discuss payment options, including:
- Income-driven repayment plans
- Temporary payment reductions
- Loan rehabilitation programs

Contact our Financial Aid Office at:
Phone: (555) 123-4567
Email: finaid@yourschool.edu

Best regards,
Financial Aid Office
Your Institution Name
`,
			ComplianceLevel: models.ComplianceFERPA,
		},
		models.TemplatePaymentPlan: {
			Name:    models.TemplatePaymentPlan,
			Subject: "Payment Plan Options Available",
			Body: `Dear {{first_name}} {{last_name}},

Based on your current loan status, you may qualify for alternative payment arrangements.

Current Status:
- Outstanding Balance: ${{outstanding_balance}}
- Program of Study: {{major}}

We offer several options to help manage your student loan payments:
1. Income-Based Repayment Plans
2. Extended Payment Terms
3. Temporary Forbearance Options

Please schedule an appointment with our office to discuss these options.

Financial Aid Office
(555) 123-4567
finaid@yourschool.edu
`,
			ComplianceLevel: models.ComplianceFERPA,
		},
		models.TemplateCounselingInvitation: {
			Name:    models.TemplateCounselingInvitation,
			Subject: "Financial Counseling Services Available",
			Body: `Dear {{first_name}} {{last_name}},

Our Financial Aid Office offers free financial counseling services to help you manage your student loans and plan for successful repayment.

Services Include:
- Loan counseling and education
- Budget planning assistance
- Repayment strategy development
- Default prevention guidance

To schedule a confidential consultation, please contact:
Phone: (555) 123-4567
Email: finaid@yourschool.edu

We're here to help you succeed.

Financial Aid Office
`,
			ComplianceLevel: models.ComplianceFERPA,
		},
	}
}

// LoadRegistry reads a JSON template registry from disk, validates it
// against the registry schema, and returns the template set it defines.
func LoadRegistry(path string) (map[string]models.MessageTemplate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, commonerrors.NewTemplateRegistryInvalidError(fmt.Sprintf("read %s: %v", path, err))
	}
	return ParseRegistry(data)
}

// ParseRegistry validates and decodes a JSON template registry document.
func ParseRegistry(data []byte) (map[string]models.MessageTemplate, error) {
	schemaLoader := gojsonschema.NewStringLoader(registrySchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, commonerrors.NewTemplateRegistryInvalidError(fmt.Sprintf("schema validation: %v", err))
	}
	if !result.Valid() {
		details := ""
		for _, desc := range result.Errors() {
			if details != "" {
				details += "; "
			}
			details += desc.String()
		}
		return nil, commonerrors.NewTemplateRegistryInvalidError(details)
	}

	var registry templateRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, commonerrors.NewTemplateRegistryInvalidError(fmt.Sprintf("decode: %v", err))
	}

	templates := make(map[string]models.MessageTemplate, len(registry.Templates))
	for _, entry := range registry.Templates {
		if _, exists := templates[entry.Name]; exists {
			return nil, commonerrors.NewTemplateRegistryInvalidError(fmt.Sprintf("duplicate template %q", entry.Name))
		}
		templates[entry.Name] = models.MessageTemplate{
			Name:            entry.Name,
			Subject:         entry.Subject,
			Body:            entry.Body,
			ComplianceLevel: entry.ComplianceLevel,
		}
	}
	return templates, nil
}
