// Package gochannel provides the in-process event transport.
package gochannel

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// DefaultBuffer bounds how many lifecycle events may queue per subscriber
// before Publish starts blocking.
const DefaultBuffer int64 = 1000

// CreateChannel returns one GoChannel acting as both publisher and
// subscriber. Events are lost on restart and visible only inside the process.
func CreateChannel(logger watermill.LoggerAdapter) (*gochannel.GoChannel, *gochannel.GoChannel, error) {
	if logger == nil {
		logger = watermill.NopLogger{}
	}

	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: DefaultBuffer}, logger)

	return pubSub, pubSub, nil
}
