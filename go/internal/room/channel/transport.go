package channel

import "errors"

// ErrTransportClosed is returned by Subscribe after the transport shut down.
var ErrTransportClosed = errors.New("transport closed")

// DeliverFunc receives one raw event from a channel.
type DeliverFunc func(event string, data []byte)

// Transport is a push connection that can multiplex channel subscriptions.
type Transport interface {
	// Subscribe starts delivering events published on channel. The returned
	// function releases the subscription and is safe to call more than once.
	Subscribe(channel string, deliver DeliverFunc) (func(), error)
}
