package socket

import (
	"context"
	"log"

	socketio "github.com/googollee/go-socket.io"

	"scoresheet_server/models"
	"scoresheet_server/services"
)

// NewSocketServer wires the live match channel. A client joins the room of
// its match by presenting its session credential; lifecycle intents arrive
// as events and every committed transition is broadcast back to the room.
func NewSocketServer(reservations *services.ReservationService, play *services.PlayService) *socketio.Server {
	server := socketio.NewServer(nil)

	broadcast := func(matchID string, match *models.LiveMatch) {
		view := match.ViewFor("")
		server.BroadcastToRoom("/", matchID, "match_update", view)
		if match.IsTerminal() {
			server.BroadcastToRoom("/", matchID, "match_finished", matchID)
		}
	}

	credential := func(s socketio.Conn) *models.MatchTokenPayload {
		payload, ok := s.Context().(*models.MatchTokenPayload)
		if !ok {
			s.Emit("error", "join a match first")
			return nil
		}
		return payload
	}

	server.OnConnect("/", func(s socketio.Conn) error {
		log.Println("socket connected:", s.ID())
		return nil
	})

	server.OnEvent("/", "join", func(s socketio.Conn, token string) {
		payload, err := reservations.ValidateCredential(context.Background(), token)
		if err != nil {
			s.Emit("error", "invalid match token")
			return
		}
		s.SetContext(payload)
		s.Join(payload.MatchUUID)
		log.Printf("user %s joined match %s", payload.UserUUID, payload.MatchUUID)
	})

	server.OnEvent("/", "ready", func(s socketio.Conn) {
		payload := credential(s)
		if payload == nil {
			return
		}
		match, err := play.SetReady(context.Background(), payload.MatchUUID, payload.UserUUID)
		if err != nil {
			s.Emit("error", err.Error())
			return
		}
		broadcast(payload.MatchUUID, match)
	})

	server.OnEvent("/", "submit_end", func(s socketio.Conn, scores []models.Score) {
		payload := credential(s)
		if payload == nil {
			return
		}
		match, err := play.SubmitEnd(context.Background(), payload.MatchUUID, payload.UserUUID, scores)
		if err != nil {
			s.Emit("error", err.Error())
			return
		}
		broadcast(payload.MatchUUID, match)
	})

	server.OnEvent("/", "confirm_end", func(s socketio.Conn) {
		payload := credential(s)
		if payload == nil {
			return
		}
		match, err := play.ConfirmEnd(context.Background(), payload.MatchUUID, payload.UserUUID)
		if err != nil {
			s.Emit("error", err.Error())
			return
		}
		broadcast(payload.MatchUUID, match)
	})

	server.OnEvent("/", "pause", func(s socketio.Conn) {
		payload := credential(s)
		if payload == nil {
			return
		}
		match, err := play.Pause(context.Background(), payload.MatchUUID, payload.UserUUID)
		if err != nil {
			s.Emit("error", err.Error())
			return
		}
		broadcast(payload.MatchUUID, match)
	})

	server.OnEvent("/", "resume", func(s socketio.Conn) {
		payload := credential(s)
		if payload == nil {
			return
		}
		match, err := play.Resume(context.Background(), payload.MatchUUID, payload.UserUUID)
		if err != nil {
			s.Emit("error", err.Error())
			return
		}
		broadcast(payload.MatchUUID, match)
	})

	server.OnError("/", func(s socketio.Conn, err error) {
		log.Println("socket error:", err)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Println("socket disconnected:", s.ID(), reason)
	})

	return server
}
