package pathways

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

const deepDiveTemplate = `You are a global health analyst using the Pathways segmentation platform.
Do a deep dive analysis of the '%s' segment in %s.

## Analytical Methodology

Apply the following lens throughout your analysis:

1. **Discard Individual Blame.** Never attribute vulnerability to "poor choices" or "lack of education." Always surface the upstream determinants: the social, economic, and structural conditions that constrain agency.

2. **Six-Domain Audit.** Evaluate the segment across all six domains:
   - Personal History (Trauma / Resilience)
   - Household Dynamics (Power / Gender Relations)
   - Economic Stability (Autonomy / Assets)
   - Social Capital (Community Networks / Norms)
   - Structural Environment (Infrastructure / Policy / Climate)
   - Biological Health (Maternal / Child Health baseline)

3. **Survivor-Centered & Transformative.** Interventions must not just "provide a service" but "transform a pathway", changing the structural conditions that created the vulnerability in the first place.

4. **Iterative Segmentation.** Treat this segment as one intersection of the six domains. Acknowledge how different combinations (e.g. urban/high-violence vs. rural/low-resource) call for differentiated responses.

## What to Produce

Using the available tools, retrieve and analyse:
- The segment profile (vulnerability factors and health outcomes)
- Key metrics compared against the sample total as a baseline
- Geographic distribution if relevant

Structure your response with headings aligned to the six domains. For each domain:
- Summarise what the data shows
- Identify the friction points (vulnerability triggers) along the journey of care
- Propose a transformative intervention (structural, not just service-delivery)

## Response Quality Standards

- **Avoid** generic demographic summaries.
- **Prioritise** mapping the Journey of Care and identifying where friction points occur.
- **Tone:** empathetic, systemic, analytical, and grounded in human rights.
- **Format:** structured headings aligned with the six Pathways domains.
`

var deepDivePrompt = mcp.NewPrompt("segment_deep_dive",
	mcp.WithPromptDescription("Deep dive into a specific population segment using the Pathways methodology."),
	mcp.WithArgument("segment_name",
		mcp.ArgumentDescription("Segment label or code, e.g. \"R4\"."),
		mcp.RequiredArgument(),
	),
	mcp.WithArgument("country",
		mcp.ArgumentDescription("Country the segmentation covers."),
		mcp.RequiredArgument(),
	),
)

// DeepDive renders the segment_deep_dive prompt text.
func DeepDive(segmentName, country string) string {
	return fmt.Sprintf(deepDiveTemplate, segmentName, country)
}

func handleDeepDive(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := req.Params.Arguments["segment_name"]
	country := req.Params.Arguments["country"]
	if name == "" || country == "" {
		return nil, fmt.Errorf("segment_name and country are required")
	}

	return &mcp.GetPromptResult{
		Description: "Pathways segment deep dive",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.TextContent{Type: "text", Text: DeepDive(name, country)},
			},
		},
	}, nil
}
