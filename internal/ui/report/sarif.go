package report

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"archlens/internal/core/errors"
	"archlens/internal/core/ports"
	"archlens/internal/engine/fitness"
	"archlens/internal/shared/version"
)

const sarifSchema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name    string      `json:"name"`
	Version string      `json:"version"`
	Rules   []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	Name             string       `json:"name,omitempty"`
	ShortDescription sarifMessage `json:"shortDescription"`
	FullDescription  sarifMessage `json:"fullDescription,omitempty"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

// RenderSARIF emits fitness violations as a SARIF 2.1.0 log, with evaluated
// policies as rules and file paths relative to the analysis root.
func RenderSARIF(rep *ports.Report) ([]byte, error) {
	if rep.Fitness == nil {
		return nil, errors.New(errors.CodeValidator, "sarif output requires a fitness run")
	}

	run := sarifRun{
		Tool: sarifTool{Driver: sarifDriver{
			Name:    version.AppName,
			Version: version.Version,
		}},
		Results: []sarifResult{},
	}

	for _, policy := range rep.Policies {
		if !policy.Enabled {
			continue
		}
		run.Tool.Driver.Rules = append(run.Tool.Driver.Rules, sarifRule{
			ID:               policy.ID,
			Name:             policy.Name,
			ShortDescription: sarifMessage{Text: policy.Name},
			FullDescription:  sarifMessage{Text: policy.Description},
		})
	}

	for _, v := range rep.Fitness.Violations {
		result := sarifResult{
			RuleID:  v.PolicyID,
			Level:   sarifLevel(v.Level),
			Message: sarifMessage{Text: v.Message},
		}
		if v.File != "" {
			region := &sarifRegion{StartLine: v.Line}
			if v.Line <= 0 {
				region = nil
			}
			result.Locations = []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: relativeURI(rep.Analysis.Root, v.File)},
					Region:           region,
				},
			}}
		}
		run.Results = append(run.Results, result)
	}

	log := sarifLog{
		Schema:  sarifSchema,
		Version: "2.1.0",
		Runs:    []sarifRun{run},
	}
	body, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "encode sarif report")
	}
	return append(body, '\n'), nil
}

func sarifLevel(level fitness.Level) string {
	switch level {
	case fitness.LevelError:
		return "error"
	case fitness.LevelWarning:
		return "warning"
	default:
		return "note"
	}
}

func relativeURI(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
