package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/gorilla/websocket"
)

// Minimal emulator client: connect to the bot's /ws endpoint, type
// messages, and answer prompt cards with "play <Rock|Paper|Scissors>
// [as robo]".

type frame struct {
	Event    string          `json:"event"`
	Activity json.RawMessage `json:"activity"`
}

type activity struct {
	Type string `json:"type,omitempty"`
	Text string `json:"text,omitempty"`
	From *struct {
		ID string `json:"id"`
	} `json:"from,omitempty"`
	Value map[string]string `json:"value,omitempty"`
}

type inboundActivity struct {
	Text         string `json:"text"`
	Conversation struct {
		ID string `json:"id"`
	} `json:"conversation"`
	Attachments []struct {
		Content map[string]interface{} `json:"content"`
	} `json:"attachments"`
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	addr := "localhost:8080"
	if len(os.Args) > 1 {
		addr = os.Args[1]
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	// Remembered from the last prompt card so "play" can echo it back.
	var lastSession, lastConversation string

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var f frame
			if err := c.ReadJSON(&f); err != nil {
				log.Println("Read error:", err)
				return
			}
			var in inboundActivity
			if err := json.Unmarshal(f.Activity, &in); err != nil {
				continue
			}
			if in.Text != "" {
				log.Printf("<- [%s] %s: %s", f.Event, in.Conversation.ID, in.Text)
			}
			for _, att := range in.Attachments {
				data, _ := json.Marshal(att.Content)
				log.Printf("<- [%s] %s card: %s", f.Event, in.Conversation.ID, string(data))
				if session, conversation, ok := promptIDs(att.Content); ok {
					lastSession, lastConversation = session, conversation
					log.Printf("   (answer with: play Rock|Paper|Scissors [as robo])")
				}
			}
		}
	}()

	log.Println("Connected. Type a message, or 'play <choice> [as robo]' to answer a prompt.")

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		default:
			text, _ := reader.ReadString('\n')
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}

			var out activity
			if choice, asBuddy, ok := parsePlay(text); ok {
				if lastSession == "" {
					log.Println("No prompt card received yet.")
					continue
				}
				out = activity{
					Type: "message",
					Value: map[string]string{
						"sessionId":      lastSession,
						"conversationId": lastConversation,
						"choice":         choice,
					},
				}
				if asBuddy {
					out.From = &struct {
						ID string `json:"id"`
					}{ID: "robo"}
				}
			} else {
				out = activity{Type: "message", Text: text}
			}

			payload, _ := json.Marshal(map[string]interface{}{"activity": out})
			if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}

// promptIDs digs the routing ids out of a prompt card's submit action.
func promptIDs(content map[string]interface{}) (session, conversation string, ok bool) {
	actions, _ := content["actions"].([]interface{})
	for _, a := range actions {
		action, _ := a.(map[string]interface{})
		data, _ := action["data"].(map[string]interface{})
		if data == nil {
			continue
		}
		session, _ = data["sessionId"].(string)
		conversation, _ = data["conversationId"].(string)
		if session != "" {
			return session, conversation, true
		}
	}
	return "", "", false
}

func parsePlay(text string) (choice string, asBuddy bool, ok bool) {
	fields := strings.Fields(text)
	if len(fields) < 2 || !strings.EqualFold(fields[0], "play") {
		return "", false, false
	}
	choice = strings.ToUpper(fields[1][:1]) + strings.ToLower(fields[1][1:])
	asBuddy = len(fields) >= 4 && strings.EqualFold(fields[2], "as") && strings.EqualFold(fields[3], "robo")
	if choice != "Rock" && choice != "Paper" && choice != "Scissors" {
		fmt.Println("Choice must be Rock, Paper, or Scissors.")
		return "", false, false
	}
	return choice, asBuddy, true
}
