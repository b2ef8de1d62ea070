package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/macrat/ssdash/internal/reconcile"
	"github.com/macrat/ssdash/lib-ssdash"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Backend is the source of the data that the MCP tools expose.
// *reconcile.Controller implements this.
type Backend interface {
	// Snapshot returns the current state of the dashboard.
	Snapshot() reconcile.Snapshot

	// TriggerCheck asks the checker server to check an endpoint right now.
	TriggerCheck(ctx context.Context, id string) (ssdash.CheckResult, error)

	// ReportInternalError reports ssdash internal error.
	ReportInternalError(scope, message string)
}

// QueryInput is the input for query_endpoints tool.
type QueryInput struct {
	JQ string `json:"jq,omitempty" jsonschema:"A jq query string to filter and/or aggregate endpoints. Query receives an array. Each object is like '{\"id\": \"...\", \"name\": \"...\", \"status\": \"up|degraded|down|pending|disabled\", \"last_checked\": \"{RFC 3339 or null}\", \"tcp_latency_ms\": ..., \"uptime_pct\": ..., \"avg_latency_ms\": ..., \"tags\": [...], ...}'. Host, port, and password are included only if the dashboard is logged in. You can use 'age' filter to get seconds since a time. For example, '.[] | select(.status != \"up\") | {name, status, since: (.last_checked | age)}' to get endpoints that are not up."`
}

// FetchEndpointsByJQ projects the current statuses and applies jq query.
func FetchEndpointsByJQ(ctx context.Context, b Backend, input QueryInput) (Output, error) {
	jq, err := ParseJQ(input.JQ)
	if err != nil {
		return Output{}, fmt.Errorf("failed to parse jq query: %w", err)
	}

	records, err := ToJQValue(b.Snapshot().Records())
	if err != nil {
		b.ReportInternalError("mcp/query_endpoints", fmt.Sprintf("failed to convert records: %v", err))
		return Output{}, errors.New("internal server error")
	}

	return jq.Run(ctx, records)
}

// CheckInput is the input for check_endpoint tool.
type CheckInput struct {
	ID string `json:"id" jsonschema:"The ID of the endpoint to check. You can get IDs by query_endpoints tool."`
}

// CheckOutput is the output of check_endpoint tool.
type CheckOutput struct {
	Result map[string]any `json:"result" jsonschema:"The check result. It is also delivered to the dashboard via the push stream."`
}

// CheckEndpoint asks the checker server to check an endpoint.
// It fails if the dashboard is not logged in.
func CheckEndpoint(ctx context.Context, b Backend, input CheckInput) (CheckOutput, error) {
	if input.ID == "" {
		return CheckOutput{}, errors.New("id is required")
	}

	r, err := b.TriggerCheck(ctx, input.ID)
	if err != nil {
		return CheckOutput{}, err
	}

	v, err := ToJQValue(r)
	if err != nil {
		b.ReportInternalError("mcp/check_endpoint", fmt.Sprintf("failed to convert result: %v", err))
		return CheckOutput{}, errors.New("internal server error")
	}
	m, _ := v.(map[string]any)

	return CheckOutput{Result: m}, nil
}

// AddTools adds the tools to the MCP server.
// These tools are: query_endpoints, check_endpoint.
func AddTools(server *mcp.Server, b Backend) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_endpoints",
		Title:       "Query endpoints",
		Description: "Fetch the current status and metrics of each endpoint.",
		Annotations: &mcp.ToolAnnotations{
			IdempotentHint: true,
			ReadOnlyHint:   true,
		},
	}, func(ctx context.Context, req *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, Output, error) {
		output, err := FetchEndpointsByJQ(ctx, b, input)
		return nil, output, err
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "check_endpoint",
		Title:       "Check endpoint",
		Description: "Check an endpoint right now. This requires that the dashboard is logged in to the checker server.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, input CheckInput) (*mcp.CallToolResult, CheckOutput, error) {
		output, err := CheckEndpoint(ctx, b, input)
		return nil, output, err
	})
}
