// Package server is a demo host for urlstate: a search page whose form
// fields are bound to the browser's query string.
//
// The browser mirrors its address bar over a WebSocket. Each connection gets
// a Session owning a urlstate.Scope. The scope reads the tab's last reported
// location through a history.Navigator and commits by sending it a push
// frame, which the page applies with history.pushState.
//
// # Protocol
//
// Client frames:
//
//	{"type":"location","search":"?q=shoes"}   after back/forward navigation
//	{"type":"set","key":"page","value":2}     user edited a field
//	{"type":"clear","key":"q"}                user reset a field
//
// Server frames:
//
//	{"type":"state","values":{...}}           after every client frame
//	{"type":"push","search":"q=shoes&page=2"} after the quiet window
//	{"type":"error","code":"E203","message":"..."}
//
// # Usage
//
//	srv := server.New(server.Config{Address: ":3000"})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
