package ws

import (
	"context"
	"errors"
	"sync"

	"pulse/internal/models"
)

type wsConnection interface {
	Close() error
	WriteJSON(v interface{}) error
	ReadJSON(v interface{}) error
}

// eventSession is what the connection needs from the engine: a handle
// that accepts inbound events and streams outbound ones.
type eventSession interface {
	Events() <-chan models.ServerEvent
	Handle(ev models.ClientEvent)
	Close()
}

type Connection struct {
	ws         wsConnection
	session    eventSession
	fromClient chan models.ClientEvent
	errorCh    chan error
}

func NewConnection(
	session eventSession,
	ws wsConnection,
) *Connection {
	return &Connection{
		ws:         ws,
		session:    session,
		fromClient: make(chan models.ClientEvent),
		errorCh:    make(chan error, 2),
	}
}

// Handle runs the connection until the socket fails or ctx is
// cancelled. Whatever ends it, the session is closed exactly once, so
// every room the session was in gets its offline fan-out.
func (c *Connection) Handle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer func() {
		close(c.fromClient)
		close(c.errorCh)
		c.session.Close()
	}()

	var wg sync.WaitGroup
	wg.Go(func() {
		c.errorCh <- c.pumpEvents(ctx)
		cancel()
	})

	wg.Go(func() {
		c.errorCh <- c.mainLoop(ctx)
		cancel()
	})

	var err error
	select {
	case err = <-c.errorCh:
	case <-ctx.Done():
	}
	c.ws.Close()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	return nil
}

func (c *Connection) pumpEvents(ctx context.Context) error {
	for {
		var ev models.ClientEvent
		if err := c.ws.ReadJSON(&ev); err != nil {
			return err
		}
		select {
		case c.fromClient <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Connection) mainLoop(ctx context.Context) error {
	for {
		select {
		case ev := <-c.fromClient:
			c.session.Handle(ev)
		case ev := <-c.session.Events():
			if err := c.ws.WriteJSON(ev); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}
