// internal/stages/communication/render/service.go
package render

import (
	"regexp"
	"sort"
	"strings"

	commonerrors "finaid-pipeline/internal/common/errors"
	"finaid-pipeline/internal/common/logger"
	"finaid-pipeline/internal/common/metrics"
	"finaid-pipeline/internal/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-z_][a-z0-9_]*)\s*\}\}`)

// Service renders outreach messages from an immutable template store, with
// a compliance scan gating every render.
type Service struct {
	config    Config
	templates map[string]models.MessageTemplate
	logger    logger.Logger
}

// NewService builds a rendering service. When RegistryPath is set the
// template set is loaded from that registry, otherwise the built-in
// templates are used.
func NewService(config Config, log logger.Logger) (*Service, error) {
	templates := BuiltinTemplates()
	if config.RegistryPath != "" {
		loaded, err := LoadRegistry(config.RegistryPath)
		if err != nil {
			return nil, err
		}
		templates = loaded
	}
	return &Service{
		config:    config,
		templates: templates,
		logger:    log,
	}, nil
}

// TemplateNames lists the available templates in sorted order.
func (s *Service) TemplateNames() []string {
	names := make([]string, 0, len(s.templates))
	for name := range s.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render produces a finished message from the named template and the
// per-recipient field map. Rendering is all-or-nothing: a compliance
// violation or a missing field yields an error and no partial output.
func (s *Service) Render(name string, fields map[string]string) (*models.RenderedMessage, error) {
	tmpl, ok := s.templates[name]
	if !ok {
		metrics.MessagesRendered.WithLabelValues(name, "not_found").Inc()
		return nil, commonerrors.NewTemplateNotFoundError(name)
	}

	if violated := s.scanCompliance(tmpl); len(violated) > 0 {
		metrics.MessagesRendered.WithLabelValues(name, "compliance_violation").Inc()
		s.logger.Warn("Template failed compliance scan", map[string]interface{}{
			"template":   name,
			"categories": violated,
		})
		return nil, commonerrors.NewComplianceViolationError(name, violated)
	}

	subject, err := s.substitute(tmpl.Subject, name, fields)
	if err != nil {
		metrics.MessagesRendered.WithLabelValues(name, "missing_field").Inc()
		return nil, err
	}
	body, err := s.substitute(tmpl.Body, name, fields)
	if err != nil {
		metrics.MessagesRendered.WithLabelValues(name, "missing_field").Inc()
		return nil, err
	}

	metrics.MessagesRendered.WithLabelValues(name, "rendered").Inc()
	return &models.RenderedMessage{
		TemplateName:    name,
		Subject:         subject,
		Body:            body,
		ComplianceLevel: tmpl.ComplianceLevel,
	}, nil
}

// scanCompliance checks the template's static text against the blocklist
// and returns every violated category. The scan looks at template text
// only; recipient field values are caller data, not student records.
func (s *Service) scanCompliance(tmpl models.MessageTemplate) []string {
	text := strings.ToLower(tmpl.Subject + "\n" + tmpl.Body)
	var violated []string
	for _, category := range s.config.Blocklist {
		if strings.Contains(text, strings.ToLower(category)) {
			violated = append(violated, category)
		}
	}
	return violated
}

// substitute replaces every placeholder in text with its field value.
// The first placeholder without a field, in document order, aborts the
// render.
func (s *Service) substitute(text, template string, fields map[string]string) (string, error) {
	var missing *commonerrors.StandardError
	out := placeholderPattern.ReplaceAllStringFunc(text, func(match string) string {
		key := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := fields[key]
		if !ok && missing == nil {
			missing = commonerrors.NewMissingFieldError(template, key)
		}
		return value
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}
