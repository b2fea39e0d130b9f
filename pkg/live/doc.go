// Package live serves a bound template to browsers over WebSocket.
//
// A page request renders the template with a fresh model. The page loads a
// small client that opens a connection to the server; the connection owns
// its own engine. Browser events on interactive elements are sent as JSON
// frames carrying the element id and the state of form controls. The server
// applies that state, dispatches the event and sends the mount node's
// markup back when it changed.
//
// When a connection drops, the model is snapshotted and the session kept
// for a resume window. A client reconnecting with the same session id gets
// its model back. Snapshots are written to a session.Store, so a BoltStore
// lets sessions survive restarts.
//
// Frames:
//
//	client -> server  {"type":"event","target":"n3","event":"input","value":"abc"}
//	                  {"type":"ping"}
//	server -> client  {"type":"session","session":"..."}
//	                  {"type":"render","root":"app","html":"..."}
//	                  {"type":"error","code":"E202","message":"..."}
//	                  {"type":"pong"}
package live
