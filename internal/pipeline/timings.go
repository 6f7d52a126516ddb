package pipeline

import (
	"encoding/json"
	"fmt"

	"shrinker/internal/diag"
	"shrinker/internal/observ"
)

type timingPayload struct {
	Kind    string               `json:"kind"`
	RunID   string               `json:"run_id"`
	TotalMS float64              `json:"total_ms"`
	Phases  []observ.PhaseReport `json:"phases"`
}

// ReportTimings adds the run's phase timings to r as an info diagnostic
// whose note carries the JSON report.
func (c *Coordinator) ReportTimings(r diag.Reporter) {
	if r == nil {
		return
	}
	report := c.opts.Timer.Report()
	payload := timingPayload{Kind: "pipeline", RunID: c.runID, TotalMS: report.TotalMS, Phases: report.Phases}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	r.Report(diag.ObsTimings, diag.SevInfo,
		diag.Location{Subject: "run " + c.runID},
		fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS),
		[]diag.Note{{Msg: string(data)}})
}
