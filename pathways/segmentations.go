package pathways

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

type segmentationSummary struct {
	Code           any `json:"code"`
	Description    any `json:"description"`
	Country        any `json:"country"`
	CountryCode    any `json:"country_code"`
	Source         any `json:"source"`
	PopulationSize any `json:"population_size"`
	SampleSize     any `json:"sample_size"`
	Active         any `json:"active"`
}

type segmentSummary struct {
	Code               any `json:"code"`
	Label              any `json:"label"`
	Stratum            any `json:"stratum"`
	VulnerabilityLevel any `json:"vulnerability_level"`
	Prevalence         any `json:"prevalence"`
	SampleSize         any `json:"sample_size"`
	Active             any `json:"active"`
}

func newSegmentSummary(s gjson.Result) segmentSummary {
	return segmentSummary{
		Code:               val(s, "code"),
		Label:              val(s, "label"),
		Stratum:            val(s, "stratum"),
		VulnerabilityLevel: val(s, "vulnerability_level"),
		Prevalence:         val(s, "prevalence"),
		SampleSize:         val(s, "sample_size"),
		Active:             val(s, "active"),
	}
}

func listSegmentations(ctx context.Context, c *Client, _ Args) (string, error) {
	page, err := c.FetchCollection(ctx, "segmentations", QueryOptions{
		Filters:  Filters{"active": Eq("true")},
		Populate: "geography",
		PageSize: 100,
	})
	if err != nil {
		return "", err
	}

	out := make([]segmentationSummary, 0, len(page.Data))
	for _, item := range page.Data {
		out = append(out, segmentationSummary{
			Code:           val(item, "code"),
			Description:    val(item, "description_en"),
			Country:        val(item, "geography.name_en"),
			CountryCode:    val(item, "geography.country_code"),
			Source:         val(item, "source_en"),
			PopulationSize: val(item, "population_size"),
			SampleSize:     val(item, "sample_size"),
			Active:         val(item, "active"),
		})
	}
	return Format(out), nil
}

func getSegmentation(ctx context.Context, c *Client, args Args) (string, error) {
	code := args.String("code")

	segPage, err := c.FetchCollection(ctx, "segmentations", QueryOptions{
		Filters:  CodeEq(code),
		Populate: "geography",
	})
	if err != nil {
		return "", err
	}
	if len(segPage.Data) == 0 {
		return errorJSON(fmt.Sprintf("Segmentation '%s' not found.", code)), nil
	}
	seg := segPage.Data[0]

	segments, err := c.FetchCollection(ctx, "segments", QueryOptions{
		Filters: Filters{
			"segmentation": CodeEq(code),
			"active":       Eq("true"),
		},
		PageSize: 100,
		Sort:     "code:asc",
	})
	if err != nil {
		return "", err
	}

	summaries := make([]segmentSummary, 0, len(segments.Data))
	for _, s := range segments.Data {
		summaries = append(summaries, newSegmentSummary(s))
	}

	return Format(struct {
		Code               any              `json:"code"`
		Description        any              `json:"description"`
		Country            any              `json:"country"`
		CountryCode        any              `json:"country_code"`
		Source             any              `json:"source"`
		Methodology        any              `json:"methodology"`
		PopulationSize     any              `json:"population_size"`
		SampleSize         any              `json:"sample_size"`
		GeographicCoverage any              `json:"geographic_coverage"`
		Representativeness any              `json:"representativeness"`
		Active             any              `json:"active"`
		Segments           []segmentSummary `json:"segments"`
	}{
		Code:               val(seg, "code"),
		Description:        val(seg, "description_en"),
		Country:            val(seg, "geography.name_en"),
		CountryCode:        val(seg, "geography.country_code"),
		Source:             val(seg, "source_en"),
		Methodology:        val(seg, "methodology_en"),
		PopulationSize:     val(seg, "population_size"),
		SampleSize:         val(seg, "sample_size"),
		GeographicCoverage: val(seg, "geographic_coverage_en"),
		Representativeness: val(seg, "representativeness_en"),
		Active:             val(seg, "active"),
		Segments:           summaries,
	}), nil
}
