// Package ports defines the interfaces between the application core and its
// adapters. Service ports are implemented by the application layer and called
// by inbound adapters; store, directory, notifier and transaction ports are
// implemented by outbound adapters and called by the application layer.
package ports
