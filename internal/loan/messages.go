// internal/loan/messages.go
package loan

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"loan-workers/internal/common/errors"
	"loan-workers/internal/models"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// MessageTemplate is one entry of the message catalogue. Placeholders use
// ${name} syntax.
type MessageTemplate struct {
	Title     string   `yaml:"title"`
	Message   string   `yaml:"message"`
	NextSteps []string `yaml:"next_steps"`
}

// Catalog holds the applicant-facing texts.
type Catalog struct {
	Decisions         map[string]MessageTemplate `yaml:"decisions"`
	Duplicate         MessageTemplate            `yaml:"duplicate"`
	ContactPreference map[string]MessageTemplate `yaml:"contact_preference"`
}

const (
	contactRequested = "requested"
	contactDeclined  = "declined"
)

var printer = message.NewPrinter(language.English)

// LoadCatalog reads a catalogue file; an empty path returns the built-in one.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read message catalogue %s: %w", path, err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes a YAML catalogue.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse message catalogue: %w", err)
	}
	if len(c.Decisions) == 0 {
		return nil, fmt.Errorf("message catalogue has no decisions")
	}
	return &c, nil
}

// DefaultCatalog returns the built-in catalogue.
func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

// RenderDecision renders the message for a verdict. A decision without its
// own template falls back to the rejected template.
func (c *Catalog) RenderDecision(req models.ApplicationRequest, verdict models.Verdict) (*models.DecisionMessage, error) {
	tmpl, ok := c.Decisions[string(verdict.Decision)]
	if !ok {
		tmpl, ok = c.Decisions[string(models.DecisionRejected)]
	}
	if !ok {
		return nil, errors.NewMessageTemplateNotFoundError(string(verdict.Decision))
	}

	approved := req.LoanAmount
	if verdict.Terms != nil {
		approved = verdict.Terms.ApprovedAmount
	}

	r := strings.NewReplacer(
		"${name}", req.Name,
		"${email}", req.Email,
		"${loan_amount}", FormatCurrency(req.LoanAmount),
		"${approved_amount}", FormatCurrency(approved),
		"${reason}", string(verdict.ReasonCode),
	)

	steps := make([]string, 0, len(tmpl.NextSteps))
	for _, s := range tmpl.NextSteps {
		steps = append(steps, r.Replace(s))
	}

	return &models.DecisionMessage{
		Decision:  verdict.Decision,
		Title:     r.Replace(tmpl.Title),
		Message:   r.Replace(tmpl.Message),
		NextSteps: steps,
	}, nil
}

// RenderDuplicate renders the rejection shown for a duplicate submission.
func (c *Catalog) RenderDuplicate(email string, remainingDays int) (string, string) {
	r := strings.NewReplacer(
		"${email}", email,
		"${remaining_days}", strconv.Itoa(remainingDays),
	)
	return r.Replace(c.Duplicate.Title), r.Replace(c.Duplicate.Message)
}

// RenderContactPreference renders the confirmation for a contact preference.
func (c *Catalog) RenderContactPreference(email string, requested bool) (*MessageTemplate, error) {
	key := contactDeclined
	if requested {
		key = contactRequested
	}
	tmpl, ok := c.ContactPreference[key]
	if !ok {
		return nil, errors.NewMessageTemplateNotFoundError("contact_preference." + key)
	}
	r := strings.NewReplacer("${email}", email)
	return &MessageTemplate{
		Title:   r.Replace(tmpl.Title),
		Message: r.Replace(tmpl.Message),
	}, nil
}

// FormatCurrency formats an amount in US dollars with thousands separators.
func FormatCurrency(amount float64) string {
	return printer.Sprintf("$%.2f", amount)
}
