// Package engine ties synthesis, validation and auto-fix together behind one
// service facade. The CLI, the delivery pipeline and the daemon all go through
// this package instead of wiring the stages themselves.
package engine

import (
	"github.com/emailforge/emailforge/pkg/autofix"
	"github.com/emailforge/emailforge/pkg/design"
	"github.com/emailforge/emailforge/pkg/log"
	"github.com/emailforge/emailforge/pkg/synth"
	"github.com/emailforge/emailforge/pkg/validate"
)

// Service runs the synthesis and compliance pipeline under a fixed scoring
// policy. Safe for concurrent use.
type Service struct {
	validator *validate.Validator
}

// New creates a service. Zero policy fields fall back to defaults.
func New(policy validate.Policy) *Service {
	return &Service{validator: validate.New(policy)}
}

// Default returns a service with the default scoring policy.
func Default() *Service {
	return New(validate.DefaultPolicy())
}

// Result is synthesized or repaired HTML together with its compliance report.
type Result struct {
	HTML    string            `json:"html"`
	Metrics *validate.Metrics `json:"metrics"`
}

// FixResult extends Result with the repair summary. Metrics describe the
// repaired document, not the input.
type FixResult struct {
	Result
	Summary autofix.Summary `json:"summary"`
}

// Generate synthesizes HTML from the design model and validates it in the
// same pass. A nil model falls back to the starter design.
func (s *Service) Generate(model *design.Model, opts ...synth.Option) (*Result, error) {
	html, err := synth.Synthesize(model, opts...)
	if err != nil {
		log.Warn("synthesis rejected design model", "error", err)
		return nil, err
	}

	metrics, err := s.validator.Validate(html)
	if err != nil {
		// Synthesized output always parses; reaching this means the
		// synthesis engine itself regressed.
		log.Error("synthesized document failed to parse", "error", err)
		return nil, err
	}

	log.Info("document generated",
		"reportId", metrics.ReportID,
		"quality", metrics.QualityScore,
		"bytes", len(html))

	return &Result{HTML: html, Metrics: metrics}, nil
}

// Validate produces a compliance report for existing HTML.
func (s *Service) Validate(html string) (*validate.Metrics, error) {
	return s.validator.Validate(html)
}

// AutoFix repairs the document and re-validates the result, so the returned
// metrics reflect the document the caller actually gets back.
func (s *Service) AutoFix(html string) (*FixResult, error) {
	fixed, summary, err := autofix.Fix(html)
	if err != nil {
		return nil, err
	}

	metrics, err := s.validator.Validate(fixed)
	if err != nil {
		return nil, err
	}

	log.Info("document repaired",
		"reportId", metrics.ReportID,
		"repairs", summary.Total(),
		"unresolved", len(summary.Unresolved),
		"quality", metrics.QualityScore)

	return &FixResult{
		Result:  Result{HTML: fixed, Metrics: metrics},
		Summary: summary,
	}, nil
}
