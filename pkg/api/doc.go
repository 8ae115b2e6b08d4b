// Package api provides a typed Go client for the car-wash booking backend.
//
// The client exposes one method per REST operation, attaches the persisted
// bearer token to every request, and bounds every call with a fixed timeout
// via fortify. A 401 from any endpoint evicts the stored token and invokes
// the unauthorized handler.
//
// Usage:
//
//	c := api.New(api.DefaultBaseURL, api.WithTokenStore(creds))
//	est, _ := c.EstimatePrice(ctx, req)
//	o, _ := c.CreateOrder(ctx, req)
//	fmt.Println(o.ID, est.Price)
package api
