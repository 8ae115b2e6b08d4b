// Package store is the client's application state: an order slice, an admin
// slice and a UI slice, changed only by dispatching typed actions through
// pure reducers.
//
// Controllers (Orders, Admin) run the asynchronous request lifecycles: each
// call dispatches a Pending action, performs the API round trip and then
// dispatches the typed fulfilled action or Rejected. Every lifecycle stamps
// its target slot with a request token so that only the most recently issued
// request for a slot may commit.
//
//	s := store.New()
//	orders := store.NewOrders(s, client)
//	unsub := s.Subscribe(func(st store.State) { render(st.Order) })
//	defer unsub()
//	_, err := orders.Create(ctx, req)
package store
