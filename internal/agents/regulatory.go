package agents

import (
	"context"
	"fmt"
	"sort"
)

// runRegulatoryWorkflow drives the regulatory agent: jurisdiction
// framework checks, compliance verification, AML screening, one approval
// message to the execution agent.
func (e *Engine) runRegulatoryWorkflow(ctx context.Context, plan *TaskPlan) (Findings, error) {
	id := AgentRegulatory

	if err := e.registry.UpdateStatus(id, StatusResearching, "Checking regulatory frameworks"); err != nil {
		return nil, err
	}
	if err := e.simulateProgress(ctx, id, "Analyzing SEC, FCA, MiCA, FSA requirements...", 40); err != nil {
		return nil, err
	}

	required := e.deps.Compliance.RequiredJurisdictions(plan.InstitutionID)
	scores, scoresErr := e.fetchJurisdictionScores(ctx, plan.Protocol.Symbol)
	screen, screenErr := e.fetchAMLScreen(ctx, plan.InstitutionID)
	degraded := scoresErr != nil || screenErr != nil
	if degraded {
		e.log.Warnf("Regulatory data fetch degraded: scores=%v aml=%v", scoresErr, screenErr)
	}

	if err := e.registry.UpdateStatus(id, StatusAnalyzing, "Verifying compliance status"); err != nil {
		return nil, err
	}
	if err := e.simulateProgress(ctx, id, "Cross-referencing with regulatory databases...", 80); err != nil {
		return nil, err
	}

	findings := synthesizeCompliance(required, scores, screen, e.decisionCfg.MinJurisdictionScore, degraded)

	if err := e.registry.SetFindings(id, findings); err != nil {
		return nil, err
	}

	content := fmt.Sprintf("Regulatory review: %s across %d jurisdictions", findings.Overall, len(required))
	if findings.Overall == ComplianceApproved {
		content = fmt.Sprintf("Regulatory approved: all %d jurisdictions compliant for execution", len(required))
	}
	e.bus.Post(id, AgentExecution, "compliance_approval", content, findings.Metrics())

	if err := e.registry.UpdateStatus(id, StatusCompleted, "Regulatory analysis complete"); err != nil {
		return nil, err
	}
	return findings, nil
}

// synthesizeCompliance compares each required jurisdiction's score against
// the minimum threshold (inclusive boundary) and combines it with the AML
// screen. Overall approval needs every jurisdiction passing and a clear
// screen.
func synthesizeCompliance(required []string, scores map[string]float64, screen AMLScreen, minScore float64, degraded bool) ComplianceFindings {
	if degraded {
		return neutralComplianceFindings(required)
	}

	jurisdictions := make(map[string]JurisdictionStatus, len(required))
	allCompliant := true
	var scoreSum float64

	for _, j := range required {
		score := scores[j] // missing jurisdiction scores zero and fails
		compliant := score >= minScore
		jurisdictions[j] = JurisdictionStatus{Score: score, Compliant: compliant}
		if !compliant {
			allCompliant = false
		}
		scoreSum += score
	}

	overall := ComplianceReview
	if allCompliant && screen.Clear() {
		overall = ComplianceApproved
	}

	confidence := 0.50
	if len(required) > 0 {
		confidence = clamp(scoreSum/float64(len(required)), 0, 0.99)
	}

	return ComplianceFindings{
		Overall:         overall,
		Jurisdictions:   jurisdictions,
		AMLRiskScore:    screen.RiskScore,
		AMLClear:        screen.Clear(),
		ConfidenceScore: confidence,
	}
}

// neutralComplianceFindings is the degraded substitute: every required
// jurisdiction is reported unverified and the overall verdict demands
// review.
func neutralComplianceFindings(required []string) ComplianceFindings {
	jurisdictions := make(map[string]JurisdictionStatus, len(required))
	for _, j := range required {
		jurisdictions[j] = JurisdictionStatus{Score: 0, Compliant: false}
	}
	return ComplianceFindings{
		Overall:         ComplianceReview,
		Jurisdictions:   jurisdictions,
		AMLRiskScore:    1.0,
		AMLClear:        false,
		ConfidenceScore: 0.50,
		Degraded:        true,
	}
}

// failedJurisdictions lists non-compliant jurisdictions in stable order.
func (f ComplianceFindings) failedJurisdictions() []string {
	var failed []string
	for j, status := range f.Jurisdictions {
		if !status.Compliant {
			failed = append(failed, j)
		}
	}
	sort.Strings(failed)
	return failed
}
