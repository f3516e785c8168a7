// Package netutil holds the loopback addressing shared by the supervisor and
// the reference worker: the worker binds a kernel-assigned port on 127.0.0.1
// and the supervisor turns the reported port back into a dialable address.
package netutil
