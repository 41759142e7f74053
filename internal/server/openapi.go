package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

type healthResponse map[string]struct {
	Status string `json:"status"`
}

type operation struct {
	method, path, summary, description string
	req                                any
	resp                               any
	status                             int
	errors                             []int
}

var operations = []operation{
	{
		method: http.MethodGet, path: "/healthz",
		summary:     "Health check",
		description: "Returns the health status of backend dependencies.",
		resp:        healthResponse{}, status: http.StatusOK,
		errors: []int{http.StatusServiceUnavailable},
	},
	{
		method: http.MethodGet, path: "/api/challenge",
		summary:     "Today's challenge",
		description: "Returns today's challenge. The clue text, true location and distances are revealed once it is completed.",
		resp:        ChallengeResponse{}, status: http.StatusOK,
	},
	{
		method: http.MethodGet, path: "/api/challenge/progress",
		summary:     "Entry progress",
		description: "Counts entries against the conversation's roster and lists who is still to guess. Pass conversation as a query parameter; the bound team is used when it is omitted.",
		resp:        ProgressResponse{}, status: http.StatusOK,
	},
	{
		method: http.MethodPost, path: "/api/challenge/guesses",
		summary:     "Submit guess",
		description: "Submits a participant's guess. A message containing \"check results\" closes the challenge instead.",
		req:         GuessRequest{},
		resp:        GuessResponse{}, status: http.StatusCreated,
		errors: []int{http.StatusBadRequest, http.StatusConflict, http.StatusUnprocessableEntity},
	},
	{
		method: http.MethodPost, path: "/api/challenge/propose",
		summary:     "Propose image",
		description: "Starts image selection and proposes the current candidate. Requires X-Operator-Key.",
		resp:        ImageResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/challenge/next-image",
		summary:     "Next image",
		description: "Rotates to the next palette entry and proposes it. Requires X-Operator-Key.",
		resp:        ImageResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/challenge/source",
		summary:     "Switch image source",
		description: "Switches between the primary (Bing) and secondary (Google) image providers. Unknown names are rejected. Requires X-Operator-Key.",
		req:         SourceRequest{},
		resp:        ImageResponse{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized, http.StatusConflict},
	},
	{
		method: http.MethodPost, path: "/api/challenge/choose",
		summary:     "Choose image",
		description: "Commits the current candidate as today's clue and opens guessing. Requires X-Operator-Key.",
		resp:        ChallengeResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusConflict, http.StatusUnprocessableEntity},
	},
	{
		method: http.MethodPost, path: "/api/challenge/results",
		summary:     "Check results",
		description: "Closes entries now and announces the winner to the conversation query parameter, or to the bound team. Requires X-Operator-Key.",
		resp:        ChallengeResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusConflict},
	},
	{
		method: http.MethodPut, path: "/api/team",
		summary:     "Bind team",
		description: "Records the team and channel the challenge is played in. Requires X-Operator-Key.",
		req:         TeamRequest{},
		resp:        TeamRequest{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized},
	},
	{
		method: http.MethodPut, path: "/api/conversations/{id}/members",
		summary:     "Replace roster",
		description: "Replaces the conversation's member roster. Requires X-Operator-Key.",
		req:         MembersRequest{},
		resp:        MembersResponse{}, status: http.StatusOK,
		errors: []int{http.StatusBadRequest, http.StatusUnauthorized},
	},
	{
		method: http.MethodPost, path: "/api/triggers/challenge",
		summary:     "Daily challenge trigger",
		description: "Reminds the team to pick an image when none is chosen yet. Requires X-Operator-Key.",
		resp:        TriggerResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized},
	},
	{
		method: http.MethodPost, path: "/api/triggers/reminder",
		summary:     "Reminder trigger",
		description: "Re-posts the clue while guessing is open. Requires X-Operator-Key.",
		resp:        TriggerResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized},
	},
	{
		method: http.MethodPost, path: "/api/triggers/results",
		summary:     "Results trigger",
		description: "Forces today's results while guessing is open. Requires X-Operator-Key.",
		resp:        TriggerResponse{}, status: http.StatusOK,
		errors: []int{http.StatusUnauthorized, http.StatusConflict},
	},
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Where On Earth API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the daily where on earth challenge.")

	for _, op := range operations {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		if op.req != nil {
			oc.AddReqStructure(op.req)
		}
		oc.AddRespStructure(op.resp, openapi.WithHTTPStatus(op.status))
		for _, status := range op.errors {
			oc.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(status))
		}
		_ = r.AddOperation(oc)
	}

	// Streams.
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/events")
	getEvents.SetSummary("SSE announcement stream")
	getEvents.SetDescription("Server-Sent Events stream of announcements. Pass conversation as a query parameter to narrow it.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	getFeed, _ := r.NewOperationContext(http.MethodGet, "/ws/feed")
	getFeed.SetSummary("WebSocket announcement feed")
	getFeed.SetDescription("Upgrades to a WebSocket connection that receives announcements as JSON text frames.")
	getFeed.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getFeed)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
