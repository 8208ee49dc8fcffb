package engine

import (
	"context"

	"pulse/internal/models"
)

type videoAction int

const (
	videoJoin videoAction = iota
	videoLeave
)

// handleVideoJoined records video room membership and lets the server's
// members know somebody stepped into a call. The payload names the room
// only; who joined is the video service's business.
func (e *Engine) handleVideoJoined(sessionID string, ev models.ClientEvent) {
	if ev.Room == "" {
		return
	}
	e.roster.Join(sessionID, models.VideoRoom(ev.Room))
	e.videoNotifyAsync(videoJoin, ev.Room)

	if ev.ServerID != "" {
		e.broadcast(models.ServerRoom(ev.ServerID), sessionID, models.ServerEvent{
			Event: models.ServerNotifyUserJoined,
			Room:  ev.Room,
		})
	}
}

func (e *Engine) handleVideoLeft(sessionID string, ev models.ClientEvent) {
	if ev.Room == "" {
		return
	}
	e.roster.Leave(sessionID, models.VideoRoom(ev.Room))
	e.videoNotifyAsync(videoLeave, ev.Room)

	if ev.ServerID != "" {
		e.broadcast(models.ServerRoom(ev.ServerID), sessionID, models.ServerEvent{
			Event: models.ServerNotifyUserLeft,
			Room:  ev.Room,
		})
	}
}

// handleListRooms answers only the requester with participant counts.
// A degraded video service yields whatever counts the cache still has;
// it is never an error on the wire.
func (e *Engine) handleListRooms(sessionID string, rooms []string) {
	ctx, cancel := context.WithTimeout(e.ctx, e.cfg.VideoTimeout)
	defer cancel()

	counts, err := e.video.ListParticipantCounts(ctx, rooms)
	if err != nil {
		e.log.Warn("participant counts degraded", "error", err)
	}
	if counts == nil {
		counts = map[string]int{}
	}
	e.sendTo(sessionID, models.ServerEvent{Event: models.ServerRoomsList, Counts: counts})
}

// videoNotifyAsync fires a join/leave notification at the video service
// without making the caller wait on it.
func (e *Engine) videoNotifyAsync(action videoAction, room string) {
	go func() {
		ctx, cancel := context.WithTimeout(e.ctx, e.cfg.VideoTimeout)
		defer cancel()

		var err error
		if action == videoJoin {
			err = e.video.JoinNotify(ctx, room)
		} else {
			err = e.video.LeaveNotify(ctx, room)
		}
		if err != nil {
			e.log.Warn("video notification failed", "room", room, "error", err)
		}
	}()
}
