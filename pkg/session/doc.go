// Package session keeps live sessions resumable.
//
// The live server attaches a session per connected client. When the client
// goes away the session's model is encoded as a Snapshot and the session is
// detached; a reconnect within the resume window gets the snapshot back:
//
//	m := session.NewManager(store, session.DefaultManagerConfig(), rec, logger)
//	m.Attach(id, ip)
//	...
//	data, _ := session.NewSnapshot(id, engine.Model().ToPlain()).Encode()
//	m.Detach(id, data)
//	...
//	data, err := m.Resume(ctx, id, ip)
//
// Snapshots are also written to a Store, so they outlive evictions and
// restarts when the store does. MemoryStore keeps them in process;
// BoltStore keeps them in a bbolt file:
//
//	store, err := session.OpenBoltStore("sessions.db")
package session
