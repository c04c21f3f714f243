package pathways

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler answers one tool call. Not-found conditions are reported in
// the returned text; a non-nil error becomes an error result.
type toolHandler func(ctx context.Context, c *Client, args Args) (string, error)

type toolDef struct {
	tool    mcp.Tool
	handler toolHandler
}

const segmentationCodeDesc = `Segmentation code (e.g., "SEN_2019DHS8_v1"). Use list_segmentations to find available codes.`

func pagingOptions(noun string) []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of "+noun+" to return (default 50, max 100)."),
			mcp.DefaultNumber(50),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of "+noun+" to skip for pagination (default 0)."),
			mcp.DefaultNumber(0),
		),
	}
}

func withOptions(name string, opts []mcp.ToolOption, extra ...mcp.ToolOption) mcp.Tool {
	return mcp.NewTool(name, append(opts, extra...)...)
}

// tools returns every tool the server registers, in registration order.
func tools() []toolDef {
	return []toolDef{
		{
			tool: mcp.NewTool("list_segmentations",
				mcp.WithDescription("List all available Pathways segmentations (country-level studies). "+
					"Each segmentation represents a population segmentation study for a specific country, "+
					"based on survey data (e.g., DHS). Use this to discover which countries and studies are "+
					"available. Only returns active, published segmentations."),
			),
			handler: listSegmentations,
		},
		{
			tool: mcp.NewTool("get_segmentation",
				mcp.WithDescription("Get full details of a segmentation including all its segments. "+
					"Returns segmentation metadata (country, source, methodology) plus a list of all "+
					"population segments with their vulnerability levels and prevalence."),
				mcp.WithString("code", mcp.Required(), mcp.Description(segmentationCodeDesc)),
			),
			handler: getSegmentation,
		},
		{
			tool: mcp.NewTool("list_segments",
				mcp.WithDescription("List population segments within a segmentation. Each segment represents "+
					"a distinct group of women identified through cluster analysis, with a vulnerability "+
					"level (least/less/more/most) and stratum (urban/rural)."),
				mcp.WithString("segmentation_code", mcp.Required(), mcp.Description(segmentationCodeDesc)),
				mcp.WithString("vulnerability_level",
					mcp.Description("Filter by vulnerability level."),
					mcp.Enum("least", "less", "more", "most"),
				),
				mcp.WithString("stratum",
					mcp.Description("Filter by stratum."),
					mcp.Enum("urban", "rural"),
				),
			),
			handler: listSegments,
		},
		{
			tool: mcp.NewTool("get_segment_profile",
				mcp.WithDescription("Get a comprehensive profile for a specific population segment: its "+
					"vulnerability level, prevalence, narratives and key metrics organized into "+
					"health_outcomes (metrics linked to Themes) and vulnerability_factors (metrics linked "+
					"to Domains). To compare a segment against the sample total, call get_segment_metrics "+
					"without a segment_code."),
				mcp.WithString("segmentation_code", mcp.Required(), mcp.Description(segmentationCodeDesc)),
				mcp.WithString("segment_code", mcp.Required(),
					mcp.Description(`Segment code (e.g., "R4" for Rural-4).`)),
			),
			handler: getSegmentProfile,
		},
		{
			tool: withOptions("get_segment_metrics", pagingOptions("metrics"),
				mcp.WithDescription("Get quantitative metrics (indicators, prevalence) for a segment or the "+
					"sample total. Omit segment_code to retrieve sample-total metrics: the weighted aggregate "+
					"across all sample respondents, useful as a baseline. Health Outcome metrics are linked to "+
					"Themes (filter with theme_code); Vulnerability Factor metrics are linked to Domains "+
					"(filter with domain_code). Use list_themes_and_domains to discover codes."),
				mcp.WithString("segmentation_code", mcp.Required(), mcp.Description(segmentationCodeDesc)),
				mcp.WithString("segment_code",
					mcp.Description(`Segment code (e.g., "R4"). Omit to get sample-total metrics.`)),
				mcp.WithString("theme_code",
					mcp.Description(`Theme code to filter Health Outcome metrics (e.g., "nutrition", "maternal_health").`)),
				mcp.WithString("domain_code",
					mcp.Description(`Domain code to filter Vulnerability Factor metrics (e.g., "household_economics").`)),
				mcp.WithArray("variable_codes",
					mcp.Description("Specific variable codes to filter by."),
					mcp.Items(map[string]any{"type": "string"}),
				),
			),
			handler: getSegmentMetrics,
		},
		{
			tool: withOptions("search_variables", pagingOptions("variables"),
				mcp.WithDescription("Search and filter variables (indicators) for a segmentation. Variables are "+
					"quantitative indicators measured in a segmentation study. They can be health outcomes "+
					`(e.g., "No current modern FP use") or vulnerability factors (e.g., "Education level").`),
				mcp.WithString("segmentation_code", mcp.Required(), mcp.Description(segmentationCodeDesc)),
				mcp.WithString("search",
					mcp.Description("Case-insensitive text search on the variable name. Without it, all active "+
						"variables matching the other filters are returned.")),
				mcp.WithString("theme_code",
					mcp.Description("Theme code to filter by health theme. Use list_themes_and_domains for available codes.")),
				mcp.WithString("domain_code",
					mcp.Description("Domain code to filter by vulnerability domain.")),
				mcp.WithString("data_type",
					mcp.Description("Data type filter."),
					mcp.Enum("binary", "categorical", "integer", "continuous"),
				),
			),
			handler: searchVariables,
		},
		{
			tool: mcp.NewTool("list_themes_and_domains",
				mcp.WithDescription("List all health themes (Health Outcomes) and vulnerability domains "+
					"(Vulnerability Factors). Use theme codes to filter health outcome metrics and domain "+
					"codes to filter vulnerability factor metrics in get_segment_metrics."),
			),
			handler: listThemesAndDomains,
		},
		{
			tool: mcp.NewTool("list_regions",
				mcp.WithDescription("List sub-national regions for a segmentation's country. Regions are "+
					"administrative areas within a country. Geometry is excluded to keep the response small."),
				mcp.WithString("segmentation_code", mcp.Required(), mcp.Description(segmentationCodeDesc)),
			),
			handler: listRegions,
		},
		{
			tool: withOptions("get_geographic_distribution", pagingOptions("records"),
				mcp.WithDescription("Get the geographic distribution of population segments across regions. "+
					"Each record shows what percentage of a region's population belongs to a given segment. "+
					"Filter by segment_code to rank regions for one segment, by region_code to see the segment "+
					"breakdown within one region, or both. Results are sorted by percentage, highest first."),
				mcp.WithString("segmentation_code", mcp.Required(), mcp.Description(segmentationCodeDesc)),
				mcp.WithString("segment_code",
					mcp.Description(`Segment code to filter by (e.g., "R4"). Use list_segments to find codes.`)),
				mcp.WithString("region_code",
					mcp.Description(`Region code to filter by (e.g., "dakar"). Use list_regions to find codes.`)),
			),
			handler: getGeographicDistribution,
		},
		{
			tool: mcp.NewTool("get_case_studies",
				mcp.WithDescription("Get qualitative case study content from Pathways. Case studies provide "+
					"real-world examples of how Pathways segmentation data has been applied. If no slug is "+
					"given, lists all available case studies."),
				mcp.WithString("slug",
					mcp.Description("Case study slug. Omit to list all case studies with titles and slugs.")),
			),
			handler: getCaseStudies,
		},
	}
}
