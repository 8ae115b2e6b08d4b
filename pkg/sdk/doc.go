// Package sdk provides a typed Go client for the carwash MCP server.
//
// The client wraps mcp-go/client.CallTool with one method per MCP tool and
// retries transient failures via fortify.
//
// Usage:
//
//	transport, _ := client.NewStdioTransport("carwash", "mcp")
//	c := sdk.NewClient(transport)
//	defer c.Close()
//
//	info, _ := c.Initialize(ctx)
//	est, _ := c.EstimatePrice(ctx, booking)
//	fmt.Println(est.Price)
package sdk
