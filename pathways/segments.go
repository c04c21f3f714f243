package pathways

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

type categoricalValues struct {
	Percentage       any `json:"percentage"`
	PercentageSE     any `json:"percentage_se"`
	CategoricalLevel any `json:"categorical_level,omitempty"`
}

type numericValues struct {
	Avg    any `json:"avg"`
	Median any `json:"median"`
	Min    any `json:"min"`
	Max    any `json:"max"`
}

type standardError struct {
	AvgSE any `json:"avg_se"`
}

type metricEntry struct {
	VariableCode any `json:"variable_code"`
	VariableName any `json:"variable_name"`
	DataType     any `json:"data_type"`
	*categoricalValues
	*numericValues
	*standardError
}

// newMetricEntry picks the value fields by the variable's data type:
// percentages for categorical and binary variables, summary statistics
// otherwise.
func newMetricEntry(m gjson.Result, withSE bool) metricEntry {
	entry := metricEntry{
		VariableCode: val(m, "variable.code"),
		VariableName: val(m, "variable.name_en"),
		DataType:     val(m, "variable.data_type"),
	}

	switch m.Get("variable.data_type").String() {
	case "categorical", "binary":
		entry.categoricalValues = &categoricalValues{
			Percentage:   val(m, "percentage"),
			PercentageSE: val(m, "percentage_se"),
		}
		if lvl := m.Get("categorical_level"); lvl.IsObject() {
			entry.CategoricalLevel = val(lvl, "name_en")
		}
	default:
		entry.numericValues = &numericValues{
			Avg:    val(m, "avg"),
			Median: val(m, "median"),
			Min:    val(m, "min"),
			Max:    val(m, "max"),
		}
		if withSE {
			entry.standardError = &standardError{AvgSE: val(m, "avg_se")}
		}
	}
	return entry
}

func listSegments(ctx context.Context, c *Client, args Args) (string, error) {
	filters := Filters{
		"segmentation": CodeEq(args.String("segmentation_code")),
		"active":       Eq("true"),
	}
	if level := args.String("vulnerability_level"); level != "" {
		filters["vulnerability_level"] = Eq(level)
	}
	if stratum := args.String("stratum"); stratum != "" {
		filters["stratum"] = Eq(stratum)
	}

	page, err := c.FetchCollection(ctx, "segments", QueryOptions{
		Filters:  filters,
		PageSize: 100,
		Sort:     "code:asc",
	})
	if err != nil {
		return "", err
	}

	out := make([]segmentSummary, 0, len(page.Data))
	for _, s := range page.Data {
		out = append(out, newSegmentSummary(s))
	}
	return Format(out), nil
}

type variableInfo struct {
	themes       []string
	domain       string
	variableType string
}

// groupKey is the variable's domain, else its first theme, else "other".
func (v variableInfo) groupKey() string {
	switch {
	case v.domain != "":
		return v.domain
	case len(v.themes) > 0 && v.themes[0] != "":
		return v.themes[0]
	default:
		return "other"
	}
}

// narrativeFields lists, per narrative, the segment fields that may hold it
// in order of preference.
var narrativeFields = []struct {
	key        string
	candidates []string
}{
	{"summary", []string{"summary_en", "summary"}},
	{"health_outcomes_narrative", []string{"health_outcomes_narrative_en", "health_outcomes_narrative", "health_narrative_en"}},
	{"vulnerability_narrative", []string{"vulnerability_narrative_en", "vulnerability_narrative", "vulnerability_factors_narrative_en"}},
	{"key_characteristics", []string{"key_characteristics_en", "key_characteristics", "characteristics_en"}},
	{"recommendations", []string{"recommendations_en", "recommendations", "programmatic_recommendations_en"}},
}

type segmentProfile struct {
	Code                    any    `json:"code"`
	Label                   any    `json:"label"`
	Stratum                 any    `json:"stratum"`
	VulnerabilityLevel      any    `json:"vulnerability_level"`
	Prevalence              any    `json:"prevalence"`
	SampleSize              any    `json:"sample_size"`
	Summary                 string `json:"summary,omitempty"`
	HealthOutcomesNarrative string `json:"health_outcomes_narrative,omitempty"`
	VulnerabilityNarrative  string `json:"vulnerability_narrative,omitempty"`
	KeyCharacteristics      string `json:"key_characteristics,omitempty"`
	Recommendations         string `json:"recommendations,omitempty"`
}

func (p *segmentProfile) setNarrative(key, text string) {
	switch key {
	case "summary":
		p.Summary = text
	case "health_outcomes_narrative":
		p.HealthOutcomesNarrative = text
	case "vulnerability_narrative":
		p.VulnerabilityNarrative = text
	case "key_characteristics":
		p.KeyCharacteristics = text
	case "recommendations":
		p.Recommendations = text
	}
}

func getSegmentProfile(ctx context.Context, c *Client, args Args) (string, error) {
	segmentationCode := args.String("segmentation_code")
	segmentCode := args.String("segment_code")

	segPage, err := c.FetchCollection(ctx, "segments", QueryOptions{
		Filters: Filters{
			"segmentation": CodeEq(segmentationCode),
			"code":         Eq(segmentCode),
			"active":       Eq("true"),
		},
	})
	if err != nil {
		return "", err
	}
	if len(segPage.Data) == 0 {
		return errorJSON(fmt.Sprintf("Segment '%s' not found in segmentation '%s'.", segmentCode, segmentationCode)), nil
	}
	segment := segPage.Data[0]

	metrics, err := c.FetchAll(ctx, "metrics", QueryOptions{
		Filters: Filters{
			"segment":  CodeEq(segmentCode),
			"variable": Filters{"segmentation": CodeEq(segmentationCode)},
		},
		PopulateList: []string{"variable", "categorical_level"},
		PageSize:     100,
	}, 2000)
	if err != nil {
		return "", err
	}

	variables, err := c.FetchAll(ctx, "variables", QueryOptions{
		Filters:      Filters{"segmentation": CodeEq(segmentationCode)},
		PopulateList: []string{"themes", "domain", "variable_type"},
		PageSize:     100,
	}, 2000)
	if err != nil {
		return "", err
	}

	lookup := make(map[string]variableInfo, len(variables))
	for _, v := range variables {
		info := variableInfo{
			domain:       v.Get("domain.code").String(),
			variableType: v.Get("variable_type.code").String(),
		}
		for _, t := range v.Get("themes").Array() {
			info.themes = append(info.themes, t.Get("code").String())
		}
		lookup[v.Get("code").String()] = info
	}

	outcomes := map[string][]metricEntry{}
	vulnerabilities := map[string][]metricEntry{}
	for _, m := range metrics {
		info := lookup[m.Get("variable.code").String()]
		key := info.groupKey()
		if info.variableType == "outcome" {
			outcomes[key] = append(outcomes[key], newMetricEntry(m, false))
		} else {
			vulnerabilities[key] = append(vulnerabilities[key], newMetricEntry(m, false))
		}
	}

	profile := segmentProfile{
		Code:               val(segment, "code"),
		Label:              val(segment, "label"),
		Stratum:            val(segment, "stratum"),
		VulnerabilityLevel: val(segment, "vulnerability_level"),
		Prevalence:         val(segment, "prevalence"),
		SampleSize:         val(segment, "sample_size"),
	}
	for _, nf := range narrativeFields {
		for _, field := range nf.candidates {
			raw := segment.Get(field)
			if !raw.Exists() || raw.Type == gjson.Null {
				continue
			}
			if text, ok := textField(raw); ok {
				profile.setNarrative(nf.key, text)
				break
			}
		}
	}

	return Format(struct {
		Segment              segmentProfile           `json:"segment"`
		HealthOutcomes       map[string][]metricEntry `json:"health_outcomes"`
		VulnerabilityFactors map[string][]metricEntry `json:"vulnerability_factors"`
	}{
		Segment:              profile,
		HealthOutcomes:       outcomes,
		VulnerabilityFactors: vulnerabilities,
	}), nil
}
