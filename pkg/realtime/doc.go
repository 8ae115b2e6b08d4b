// Package realtime is the client side of the booking backend's live status
// channel.
//
// A Conn is an explicitly owned websocket connection. Views subscribe to the
// orders they display; the first subscriber of an order joins its room and
// the last one to leave sends the leave signal. Inbound events are routed to
// handlers registered by event type.
//
//	conn := realtime.New(realtime.DefaultURL, realtime.WithLogger(log))
//	conn.Handle("tracker", onStatus, realtime.EventStatusUpdate)
//	_ = conn.Connect(ctx)
//	conn.Subscribe(orderID)
//	defer conn.Unsubscribe(orderID)
package realtime
