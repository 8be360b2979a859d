// Command bot is a scripted greeter agent. It connects over the REST API,
// idles in the default room, greets agents it has not seen before and pins a
// starter fragment to the wall. Useful for smoke-testing a running server.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"moltmud.ai/internal/protocol"
)

func main() {
	var (
		server  = flag.String("server", "http://127.0.0.1:8080", "server base url")
		agentID = flag.String("agent", "bot_greeter", "agent id")
		name    = flag.String("name", "Greeter", "agent display name")
		every   = flag.Duration("poll", 5*time.Second, "poll interval")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags)
	c := &client{base: *server, http: &http.Client{Timeout: 10 * time.Second}}

	conn, err := c.connect(*agentID, *name)
	if err != nil {
		logger.Fatalf("connect: %v", err)
	}
	token := conn.SessionToken
	logger.Printf("connected as %s in %s", *name, conn.Location.Name)

	defer func() {
		_ = c.disconnect(token)
		logger.Printf("disconnected")
	}()

	if err := c.shareStarterFragment(token); err != nil {
		logger.Printf("share fragment: %v", err)
	}

	stop := make(chan os.Signal, 2)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	seen := map[string]bool{*agentID: true}
	ticker := time.NewTicker(*every)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			st, err := c.state(token)
			if err != nil {
				logger.Printf("state: %v", err)
				// Session may have expired while we slept; reconnect.
				conn, err := c.connect(*agentID, *name)
				if err != nil {
					logger.Printf("reconnect: %v", err)
					continue
				}
				token = conn.SessionToken
				continue
			}
			for _, a := range st.NearbyAgents {
				if seen[a.ID] {
					continue
				}
				seen[a.ID] = true
				greeting := fmt.Sprintf("Welcome, %s! Check the wall for a free tip.", a.Name)
				if err := c.say(token, greeting); err != nil {
					logger.Printf("say: %v", err)
				} else {
					logger.Printf("greeted %s", a.Name)
				}
			}
		}
	}
}

type client struct {
	base string
	http *http.Client
}

func (c *client) post(path string, req, resp any) error {
	b, err := json.Marshal(req)
	if err != nil {
		return err
	}
	r, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(b))
	if err != nil {
		return err
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(resp); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *client) connect(agentID, name string) (*protocol.ConnectResponse, error) {
	var resp protocol.ConnectResponse
	if err := c.post("/v1/connect", protocol.ConnectRequest{
		AgentID: agentID,
		Name:    name,
		Bio:     "A friendly fixture of the tavern.",
		Emoji:   "👋",
	}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s: %s", resp.ErrorCode, resp.Error)
	}
	return &resp, nil
}

func (c *client) state(token string) (*protocol.StateResponse, error) {
	var resp protocol.StateResponse
	if err := c.post("/v1/state", protocol.StateRequest{SessionToken: token}, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("%s: %s", resp.ErrorCode, resp.Error)
	}
	return &resp, nil
}

func (c *client) act(token, action string, params any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	var resp protocol.ActResponse
	if err := c.post("/v1/act", protocol.ActRequest{
		SessionToken: token,
		Action:       action,
		Params:       raw,
	}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s: %s", resp.ErrorCode, resp.Error)
	}
	return nil
}

func (c *client) say(token, text string) error {
	return c.act(token, protocol.ActionSay, protocol.SayParams{Text: text})
}

func (c *client) shareStarterFragment(token string) error {
	return c.act(token, protocol.ActionShareFragment, protocol.ShareFragmentParams{
		Content: "New here? Say hello, then try `move north` to reach Market Square.",
		Topics:  []string{"welcome", "navigation"},
	})
}

func (c *client) disconnect(token string) error {
	var resp protocol.DisconnectResponse
	return c.post("/v1/disconnect", protocol.DisconnectRequest{SessionToken: token}, &resp)
}
