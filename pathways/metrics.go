package pathways

import (
	"context"
)

type pageInfo struct {
	Total     int `json:"total"`
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
	PageCount int `json:"page_count"`
}

func newPageInfo(p Pagination) pageInfo {
	return pageInfo{Total: p.Total, Page: p.Page, PageSize: p.PageSize, PageCount: p.PageCount}
}

// getSegmentMetrics returns segment-level metrics, or the sample-total
// baseline (metrics with no segment) when segment_code is omitted.
func getSegmentMetrics(ctx context.Context, c *Client, args Args) (string, error) {
	segmentCode := args.String("segment_code")
	limit, _, page := pageWindow(args)

	variable := Filters{"segmentation": CodeEq(args.String("segmentation_code"))}
	filters := Filters{"variable": variable}

	level := "segment"
	var segment any = segmentCode
	if segmentCode != "" {
		filters["segment"] = CodeEq(segmentCode)
	} else {
		filters["segment"] = Filters{"$null": "true"}
		level = "sample_total"
		segment = nil
	}

	if theme := args.String("theme_code"); theme != "" {
		variable["themes"] = CodeEq(theme)
	}
	if domain := args.String("domain_code"); domain != "" {
		variable["domain"] = CodeEq(domain)
	}
	if codes := args.Strings("variable_codes"); len(codes) > 0 {
		variable["code"] = Filters{"$in": codes}
	}

	result, err := c.FetchCollection(ctx, "metrics", QueryOptions{
		Filters:      filters,
		PopulateList: []string{"variable", "categorical_level"},
		Page:         page,
		PageSize:     limit,
	})
	if err != nil {
		return "", err
	}

	metrics := make([]metricEntry, 0, len(result.Data))
	for _, m := range result.Data {
		metrics = append(metrics, newMetricEntry(m, true))
	}

	return Format(struct {
		Level       string        `json:"level"`
		SegmentCode any           `json:"segment_code"`
		Metrics     []metricEntry `json:"metrics"`
		Pagination  pageInfo      `json:"pagination"`
	}{
		Level:       level,
		SegmentCode: segment,
		Metrics:     metrics,
		Pagination:  newPageInfo(result.Pagination),
	}), nil
}

type themeRef struct {
	Code any `json:"code"`
	Name any `json:"name"`
}

type variableSummary struct {
	Code         any        `json:"code"`
	Name         any        `json:"name"`
	Description  any        `json:"description"`
	DataType     any        `json:"data_type"`
	VariableType any        `json:"variable_type"`
	Themes       []themeRef `json:"themes"`
	Domain       any        `json:"domain"`
	DomainCode   any        `json:"domain_code"`
}

func searchVariables(ctx context.Context, c *Client, args Args) (string, error) {
	limit, _, page := pageWindow(args)

	filters := Filters{
		"segmentation": CodeEq(args.String("segmentation_code")),
		"active":       Eq("true"),
	}
	if search := args.String("search"); search != "" {
		filters["name_en"] = Filters{"$containsi": search}
	}
	if theme := args.String("theme_code"); theme != "" {
		filters["themes"] = CodeEq(theme)
	}
	if domain := args.String("domain_code"); domain != "" {
		filters["domain"] = CodeEq(domain)
	}
	if dataType := args.String("data_type"); dataType != "" {
		filters["data_type"] = Eq(dataType)
	}

	result, err := c.FetchCollection(ctx, "variables", QueryOptions{
		Filters:      filters,
		PopulateList: []string{"themes", "domain", "variable_type"},
		Page:         page,
		PageSize:     limit,
		Sort:         "order:asc",
	})
	if err != nil {
		return "", err
	}

	variables := make([]variableSummary, 0, len(result.Data))
	for _, v := range result.Data {
		summary := variableSummary{
			Code:         val(v, "code"),
			Name:         val(v, "name_en"),
			Description:  val(v, "description_en"),
			DataType:     val(v, "data_type"),
			VariableType: val(v, "variable_type.name_en"),
			Domain:       val(v, "domain.name_en"),
			DomainCode:   val(v, "domain.code"),
		}
		for _, t := range v.Get("themes").Array() {
			summary.Themes = append(summary.Themes, themeRef{Code: val(t, "code"), Name: val(t, "name_en")})
		}
		variables = append(variables, summary)
	}

	return Format(struct {
		Variables  []variableSummary `json:"variables"`
		Pagination pageInfo          `json:"pagination"`
	}{
		Variables:  variables,
		Pagination: newPageInfo(result.Pagination),
	}), nil
}
