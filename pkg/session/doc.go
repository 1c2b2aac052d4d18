/*
Package session implements session management and persistence orchestration.

It serialises access to a session across goroutines (and, with a distributed
locker, across replicas), and moves forms in and out of a ports.SessionStore
as snapshots.
*/
package session
