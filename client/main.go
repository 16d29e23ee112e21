package main

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

const (
	MsgTypeJoinQueue  = 101
	MsgTypeLeaveQueue = 102
	MsgTypePlayCard   = 201
)

// send formats and sends a message to the WebSocket server.
func send(c *websocket.Conn, msgID uint16, data []byte) error {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)

	return c.WriteMessage(websocket.BinaryMessage, packet)
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: client <jwt-token>")
	}
	token := os.Args[1]

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	u := url.URL{Scheme: "ws", Host: "localhost:8080", Path: "/ws", RawQuery: "token=" + url.QueryEscape(token)}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			if len(message) < 4 {
				log.Printf("Received invalid packet of size %d", len(message))
				continue
			}
			msgID := binary.BigEndian.Uint16(message[0:2])
			data := message[4:]
			log.Printf("<- RECV (ID: %d): %s", msgID, string(data))
		}
	}()

	log.Println("Commands: join | leave | play <card-id>")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			text = strings.TrimSpace(text)

			switch {
			case text == "join":
				if err := send(c, MsgTypeJoinQueue, []byte("{}")); err != nil {
					log.Println("Write error:", err)
					return
				}
				log.Println("-> SENT: join queue")
			case text == "leave":
				if err := send(c, MsgTypeLeaveQueue, []byte("{}")); err != nil {
					log.Println("Write error:", err)
					return
				}
				log.Println("-> SENT: leave queue")
			case strings.HasPrefix(text, "play "):
				cardID := strings.TrimSpace(strings.TrimPrefix(text, "play "))
				payload, _ := json.Marshal(map[string]string{"card_id": cardID})
				if err := send(c, MsgTypePlayCard, payload); err != nil {
					log.Println("Write error:", err)
					return
				}
				log.Printf("-> SENT: play %s", cardID)
			}
		}
	}
}
