package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `captionlog serves the activity log of a subtitling platform: who did what to which video, team or language.

Streams (all read only, newest first, paginated):
- user_activity: what one user did.
- video_activity: a video's history; pass team_id to see it as a former or current team saw it.
- team_activity: stream=video for everything but membership, stream=team for joins and leaves.
- activity_feed: your own activity plus your teams' activity.

Every item carries html (links kept) and text (plain) messages rendered for you.
Streams you may not see come back empty rather than failing.
Page with next_cursor; limit is capped by the server.

Docs:
- captionlog://kinds (registered activity types)
- captionlog://docs/moves (how team moves show up in streams)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "captionlog://docs/moves",
		Name:        "docs_moves",
		Title:       "Team moves",
		Description: "How moving a video between teams changes each team's stream.",
		Content: `# Team moves

When a video moves from team A to team B:

- Its history now belongs to B and shows up in B's streams.
- A keeps a copy of every entry it could see before, so its stream does not lose history.
- A gets a private "moved to" entry and B a private "moved from" entry. These never appear in user or video streams.
- The other team's name is only shown to viewers who may see that team.

Moving the video back to A re-uses A's history instead of duplicating it. No team ever holds two copies of one entry.
`,
	},
}

func registerDocResources(server *sdkmcp.Server, h *Handler) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}

	server.AddResource(&sdkmcp.Resource{
		URI:         "captionlog://kinds",
		Name:        "kinds",
		Title:       "Activity types",
		Description: "Every registered activity type with its label and flags.",
		MIMEType:    "application/json",
	}, func(_ context.Context, _ *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		data, err := json.MarshalIndent(h.Kinds(), "", "  ")
		if err != nil {
			return nil, err
		}
		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{{
				URI:      "captionlog://kinds",
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	})
}
