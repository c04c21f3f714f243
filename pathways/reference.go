package pathways

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"
)

type referenceItem struct {
	Code        any `json:"code"`
	Name        any `json:"name"`
	Order       any `json:"order"`
	Description any `json:"description,omitempty"`
}

type referenceGroup struct {
	Description string          `json:"description"`
	Items       []referenceItem `json:"items"`
}

func referenceItems(data []gjson.Result) []referenceItem {
	items := make([]referenceItem, 0, len(data))
	for _, d := range data {
		item := referenceItem{Code: val(d, "code"), Name: val(d, "name_en"), Order: val(d, "order")}
		if desc := d.Get("description_en").String(); desc != "" {
			item.Description = desc
		}
		items = append(items, item)
	}
	return items
}

func listThemesAndDomains(ctx context.Context, c *Client, _ Args) (string, error) {
	themes, err := c.FetchCollection(ctx, "themes", QueryOptions{PageSize: 100, Sort: "order:asc"})
	if err != nil {
		return "", err
	}
	domains, err := c.FetchCollection(ctx, "domains", QueryOptions{PageSize: 100, Sort: "order:asc"})
	if err != nil {
		return "", err
	}

	return Format(struct {
		Themes  referenceGroup `json:"themes"`
		Domains referenceGroup `json:"domains"`
	}{
		Themes: referenceGroup{
			Description: "Health Outcomes — measurable health results. Use theme codes to filter health outcome metrics.",
			Items:       referenceItems(themes.Data),
		},
		Domains: referenceGroup{
			Description: "Vulnerability Factors — structural and social determinants of vulnerability. Use domain codes to filter vulnerability factor metrics.",
			Items:       referenceItems(domains.Data),
		},
	}), nil
}

type region struct {
	Code   any `json:"code"`
	Name   any `json:"name"`
	Active any `json:"active"`
}

func listRegions(ctx context.Context, c *Client, args Args) (string, error) {
	code := args.String("segmentation_code")

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

	geo := segPage.Data[0].Get("geography")
	geoCode := geo.Get("code").String()
	if geoCode == "" {
		return errorJSON("Segmentation has no associated geography."), nil
	}

	// Geometry is left out by selecting fields explicitly.
	data, err := c.FetchAll(ctx, "regions", QueryOptions{
		Filters: Filters{
			"geography": CodeEq(geoCode),
			"active":    Eq("true"),
		},
		Fields:   []string{"code", "name_en", "name_fr", "active"},
		PageSize: 100,
	}, 0)
	if err != nil {
		return "", err
	}

	regions := make([]region, 0, len(data))
	for _, r := range data {
		regions = append(regions, region{Code: val(r, "code"), Name: val(r, "name_en"), Active: val(r, "active")})
	}

	return Format(struct {
		Segmentation string   `json:"segmentation"`
		Country      any      `json:"country"`
		CountryCode  string   `json:"country_code"`
		Regions      []region `json:"regions"`
	}{
		Segmentation: code,
		Country:      val(geo, "name_en"),
		CountryCode:  geoCode,
		Regions:      regions,
	}), nil
}

type distribution struct {
	SegmentCode        any `json:"segment_code"`
	SegmentLabel       any `json:"segment_label"`
	VulnerabilityLevel any `json:"vulnerability_level"`
	Stratum            any `json:"stratum"`
	RegionCode         any `json:"region_code"`
	RegionName         any `json:"region_name"`
	Percentage         any `json:"percentage"`
}

// getGeographicDistribution lists what share of each region belongs to each
// segment, highest concentration first.
func getGeographicDistribution(ctx context.Context, c *Client, args Args) (string, error) {
	limit, offset, page := pageWindow(args)

	segment := Filters{
		"segmentation": CodeEq(args.String("segmentation_code")),
		"active":       Eq("true"),
	}
	filters := Filters{"segment": segment}
	if code := args.String("segment_code"); code != "" {
		segment["code"] = Eq(code)
	}
	if code := args.String("region_code"); code != "" {
		filters["region"] = CodeEq(code)
	}

	result, err := c.FetchCollection(ctx, "geographic-distributions", QueryOptions{
		Filters:      filters,
		PopulateList: []string{"segment", "region"},
		Page:         page,
		PageSize:     limit,
		Sort:         "percentage:desc",
	})
	if err != nil {
		return "", err
	}

	out := make([]distribution, 0, len(result.Data))
	for _, item := range result.Data {
		out = append(out, distribution{
			SegmentCode:        val(item, "segment.code"),
			SegmentLabel:       val(item, "segment.label"),
			VulnerabilityLevel: val(item, "segment.vulnerability_level"),
			Stratum:            val(item, "segment.stratum"),
			RegionCode:         val(item, "region.code"),
			RegionName:         val(item, "region.name_en"),
			Percentage:         val(item, "percentage"),
		})
	}

	total := result.Pagination.Total
	return Format(struct {
		Distributions []distribution `json:"distributions"`
		Pagination    struct {
			Total   int  `json:"total"`
			Offset  int  `json:"offset"`
			Limit   int  `json:"limit"`
			HasMore bool `json:"has_more"`
		} `json:"pagination"`
	}{
		Distributions: out,
		Pagination: struct {
			Total   int  `json:"total"`
			Offset  int  `json:"offset"`
			Limit   int  `json:"limit"`
			HasMore bool `json:"has_more"`
		}{Total: total, Offset: offset, Limit: limit, HasMore: offset+limit < total},
	}), nil
}

type caseStudySummary struct {
	Title           any `json:"title"`
	Slug            any `json:"slug"`
	Authors         any `json:"authors"`
	PublicationDate any `json:"publication_date"`
	Headline        any `json:"headline"`
}

func newCaseStudySummary(cs gjson.Result) caseStudySummary {
	return caseStudySummary{
		Title:           val(cs, "title"),
		Slug:            val(cs, "slug"),
		Authors:         val(cs, "authors"),
		PublicationDate: val(cs, "publication_date"),
		Headline:        val(cs, "headline"),
	}
}

// getCaseStudies returns one case study with its rendered content, or the
// list of all case studies when slug is omitted.
func getCaseStudies(ctx context.Context, c *Client, args Args) (string, error) {
	slug := args.String("slug")

	if slug == "" {
		result, err := c.FetchCollection(ctx, "case-studies", QueryOptions{PageSize: 100})
		if err != nil {
			return "", err
		}
		list := make([]caseStudySummary, 0, len(result.Data))
		for _, cs := range result.Data {
			list = append(list, newCaseStudySummary(cs))
		}
		return Format(struct {
			CaseStudies []caseStudySummary `json:"case_studies"`
		}{list}), nil
	}

	result, err := c.FetchCollection(ctx, "case-studies", QueryOptions{
		Filters: Filters{"slug": Eq(slug)},
	})
	if err != nil {
		return "", err
	}
	if len(result.Data) == 0 {
		return errorJSON(fmt.Sprintf("Case study '%s' not found.", slug)), nil
	}

	cs := result.Data[0]
	return Format(struct {
		caseStudySummary
		Content  any `json:"content"`
		Location any `json:"location"`
	}{
		caseStudySummary: newCaseStudySummary(cs),
		Content:          textOrNil(cs.Get("content")),
		Location:         val(cs, "location"),
	}), nil
}
