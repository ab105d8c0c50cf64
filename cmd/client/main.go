// Command client is a terminal chat client built on the session core: it
// creates or joins a room, prints history and live messages, and sends each
// stdin line as a message.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/substringlabs/roomchat/internal/apiclient"
	"github.com/substringlabs/roomchat/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// wsEndpoint derives the websocket URL from the server base URL, escaping
// the display name for the query string.
func wsEndpoint(server, name string) string {
	return "ws" + strings.TrimPrefix(server, "http") + "/ws?user=" + url.QueryEscape(name)
}

func run() error {
	server := flag.String("server", "http://localhost:8080", "server base URL")
	room := flag.String("room", "", "room id to join")
	name := flag.String("name", "", "display name")
	create := flag.Bool("create", false, "create the room before joining")
	flag.Parse()

	if *room == "" || *name == "" {
		return errors.New("-room and -name are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := apiclient.New(*server)

	if *create {
		if _, err := api.CreateRoom(ctx, *room); err != nil {
			if !errors.Is(err, apiclient.ErrRoomExists) {
				return err
			}
			log.Printf("room %s already exists, joining", *room)
		}
	}
	if _, err := api.JoinRoom(ctx, *room); err != nil {
		return err
	}

	wsURL := wsEndpoint(*server, *name)

	var (
		mu      sync.Mutex
		printed int
		sess    *session.Session
	)
	printNew := func() {
		msgs := sess.Messages()
		mu.Lock()
		defer mu.Unlock()
		for ; printed < len(msgs); printed++ {
			m := msgs[printed]
			fmt.Printf("[%s] %s: %s\n", m.Timestamp.Local().Format("15:04:05"), m.Sender, m.Content)
		}
	}
	sess = session.New(wsURL, api, session.WithNotify(printNew))

	if err := sess.Enter(ctx, *room, *name); err != nil {
		return err
	}
	defer sess.Leave()
	fmt.Printf("joined %s as %s (ctrl+d to leave)\n", *room, *name)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if err := sess.SendMessage(line); err != nil {
				log.Printf("send: %v", err)
			}
		}
	}
}
