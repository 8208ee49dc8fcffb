package engine

import (
	"context"
	"errors"

	"pulse/internal/content"
	"pulse/internal/models"
)

type relayOp int

const (
	opCreate relayOp = iota
	opUpdate
	opDelete
)

// relayJob is one unit of work for a room's relay worker. Jobs for the
// same room run in submission order on a single goroutine, so persist
// and broadcast never interleave within a room.
type relayJob struct {
	op        relayOp
	sessionID string
	author    models.Identity
	room      models.RoomID
	streamID  string
	content   string
	messageID int64
}

func (e *Engine) handleMessage(sessionID string, ev models.ClientEvent) {
	author, ok := e.roster.Identity(sessionID)
	if !ok {
		return
	}
	room, ok := messageRoom(ev)
	if !ok {
		e.sendTo(sessionID, errorEvent(ev, "message is missing a destination"))
		return
	}
	clean, err := content.PrepareMessage(ev.Content)
	if err != nil {
		e.sendTo(sessionID, errorEvent(ev, "message content is empty"))
		return
	}
	e.enqueue(room, relayJob{
		op:        opCreate,
		sessionID: sessionID,
		author:    author,
		room:      room,
		streamID:  streamOf(ev),
		content:   clean,
	})
}

func (e *Engine) handleUpdateMessage(sessionID string, ev models.ClientEvent) {
	author, ok := e.roster.Identity(sessionID)
	if !ok {
		return
	}
	room, ok := messageRoom(ev)
	if !ok || ev.MessageID <= 0 {
		e.sendTo(sessionID, errorEvent(ev, "update is missing a message id or destination"))
		return
	}
	clean, err := content.PrepareMessage(ev.Content)
	if err != nil {
		e.sendTo(sessionID, errorEvent(ev, "message content is empty"))
		return
	}
	e.enqueue(room, relayJob{
		op:        opUpdate,
		sessionID: sessionID,
		author:    author,
		room:      room,
		streamID:  streamOf(ev),
		content:   clean,
		messageID: ev.MessageID,
	})
}

func (e *Engine) handleDeleteMessage(sessionID string, ev models.ClientEvent) {
	author, ok := e.roster.Identity(sessionID)
	if !ok {
		return
	}
	room, ok := messageRoom(ev)
	if !ok || ev.MessageID <= 0 {
		e.sendTo(sessionID, errorEvent(ev, "delete is missing a message id or destination"))
		return
	}
	e.enqueue(room, relayJob{
		op:        opDelete,
		sessionID: sessionID,
		author:    author,
		room:      room,
		streamID:  streamOf(ev),
		messageID: ev.MessageID,
	})
}

// messageRoom resolves the destination room of a message event. A set
// conversation id wins; otherwise the server id is required.
func messageRoom(ev models.ClientEvent) (models.RoomID, bool) {
	if ev.ConversationID != "" {
		return models.ConversationRoom(ev.ConversationID), true
	}
	if ev.ServerID != "" {
		return models.ServerRoom(ev.ServerID), true
	}
	return models.RoomID{}, false
}

func streamOf(ev models.ClientEvent) string {
	if ev.StreamID != "" {
		return ev.StreamID
	}
	return ev.ChannelID
}

func errorEvent(ev models.ClientEvent, msg string) models.ServerEvent {
	return models.ServerEvent{
		Event:          models.ServerMessageError,
		ServerID:       ev.ServerID,
		ConversationID: ev.ConversationID,
		MessageID:      ev.MessageID,
		Error:          msg,
	}
}

// enqueue hands a job to the room's relay worker, starting one lazily
// on the room's first message. Workers are keyed per room, so a slow
// store call for one room never delays another room's traffic.
func (e *Engine) enqueue(room models.RoomID, job relayJob) {
	e.relayMu.Lock()
	ch, ok := e.relays[room]
	if !ok {
		ch = make(chan relayJob, e.cfg.RelayBuffer)
		e.relays[room] = ch
		go e.relayWorker(ch)
	}
	e.relayMu.Unlock()

	select {
	case ch <- job:
	case <-e.ctx.Done():
	}
}

func (e *Engine) relayWorker(jobs <-chan relayJob) {
	for {
		select {
		case job := <-jobs:
			e.runRelay(job)
		case <-e.ctx.Done():
			return
		}
	}
}

func (e *Engine) runRelay(job relayJob) {
	ctx, cancel := context.WithTimeout(e.ctx, e.cfg.StoreTimeout)
	defer cancel()

	switch job.op {
	case opCreate:
		e.relayCreate(ctx, job)
	case opUpdate:
		e.relayUpdate(ctx, job)
	case opDelete:
		e.relayDelete(ctx, job)
	}
}

func (e *Engine) relayCreate(ctx context.Context, job relayJob) {
	msg, err := e.store.CreateMessage(ctx, models.Message{
		Room:       job.room,
		StreamID:   job.streamID,
		AuthorID:   job.author.UserID,
		AuthorName: job.author.DisplayName,
		Content:    job.content,
	})
	if err != nil {
		e.log.Warn("message persist failed", "room", job.room.String(), "error", err)
		e.sendTo(job.sessionID, models.ServerEvent{
			Event: models.ServerMessageError,
			Error: "failed to save message, please retry",
		})
		return
	}
	e.hist.Append(msg)

	ev := models.ServerEvent{Event: models.ServerMessage, Message: &msg, StreamID: msg.StreamID}
	tagRoom(&ev, job.room)
	// The author already renders its own message optimistically.
	e.broadcast(job.room, job.sessionID, ev)
}

func (e *Engine) relayUpdate(ctx context.Context, job relayJob) {
	msg, err := e.store.UpdateMessage(ctx, job.room, job.messageID, job.author.UserID, job.content)
	if err != nil {
		e.relayError(job, err, "failed to update message")
		return
	}
	e.hist.Update(job.room, job.messageID, msg.Content, msg.EditedAt)

	ev := models.ServerEvent{
		Event:     models.ServerUpdateMessage,
		MessageID: job.messageID,
		StreamID:  job.streamID,
		Content:   msg.Content,
	}
	tagRoom(&ev, job.room)
	// Edits go to everyone, author included, so all views converge.
	e.broadcast(job.room, "", ev)
}

func (e *Engine) relayDelete(ctx context.Context, job relayJob) {
	if err := e.store.DeleteMessage(ctx, job.room, job.messageID, job.author.UserID); err != nil {
		e.relayError(job, err, "failed to delete message")
		return
	}
	e.hist.Remove(job.room, job.messageID)

	ev := models.ServerEvent{
		Event:     models.ServerDeleteMessage,
		MessageID: job.messageID,
		StreamID:  job.streamID,
	}
	tagRoom(&ev, job.room)
	e.broadcast(job.room, "", ev)
}

func (e *Engine) relayError(job relayJob, err error, fallback string) {
	msg := fallback
	switch {
	case errors.Is(err, models.ErrNotFound):
		msg = "message not found"
	case errors.Is(err, models.ErrNotAuthor):
		msg = "only the author can change a message"
	default:
		e.log.Warn("message mutation failed", "room", job.room.String(), "message_id", job.messageID, "error", err)
	}
	e.sendTo(job.sessionID, models.ServerEvent{
		Event:     models.ServerMessageError,
		MessageID: job.messageID,
		Error:     msg,
	})
}
