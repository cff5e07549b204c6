package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rfialho/paddle/internal/domain/auction"
	"github.com/rfialho/paddle/internal/domain/roster"
)

// Client is one WebSocket connection to the auction
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// writePump drains the send queue to the connection and keeps it alive with
// pings
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if !ok {
				// Hub dropped us
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads client frames and dispatches them to the coordinator
func (c *Client) readPump() {
	defer func() {
		c.hub.inbox <- unregister{client: c}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Error("unexpected WebSocket close",
					slog.String("client_id", c.id),
					slog.Any("error", err),
				)
			}
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(c.hub.config.ReadTimeout))

		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			c.reply(encodeError(MsgError, "bad json"))
			continue
		}

		c.dispatch(msg)
	}
}

func (c *Client) dispatch(msg ClientMessage) {
	switch msg.Type {
	case MsgPlaceBid:
		// Rejections are silent: the incumbent leader keeps the floor and
		// nothing is broadcast.
		c.hub.coordinator.ProposeBid(auction.BidProposal{
			Team:    msg.Team,
			Captain: msg.Captain,
			Amount:  msg.Bid,
		})

	case MsgCloseBid:
		playerID, err := uuid.Parse(msg.PlayerID)
		if err != nil {
			c.reply(encodeError(MsgCloseError, "invalid playerId"))
			return
		}
		gender := roster.Gender(msg.Gender)
		if !gender.IsValid() {
			c.reply(encodeError(MsgCloseError, "gender must be \"male\" or \"female\""))
			return
		}

		// The close runs to completion even if this client disconnects
		// mid-operation, so it is not tied to the connection's context.
		_, err = c.hub.coordinator.CloseBid(context.Background(), auction.CloseCommand{
			PlayerID: playerID,
			Gender:   gender,
		})
		if err != nil {
			// Only the closer hears about the failure; everyone else just
			// sees the reset broadcast.
			c.reply(encodeError(MsgCloseError, err.Error()))
		}

	case MsgReset:
		c.hub.coordinator.Reset()

	default:
		c.reply(encodeError(MsgError, "unknown type"))
	}
}

// reply queues a frame for this client only. It goes through the hub so the
// send queue is only ever written by the hub goroutine.
func (c *Client) reply(payload []byte) {
	c.hub.inbox <- direct{client: c, payload: payload}
}
