//nolint:all
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/http/cookiejar"
	"time"

	"github.com/google/uuid"

	"github.com/castlemere/estately/client"
	"github.com/castlemere/estately/internal/model"
)

// Smoke-tests the full path against a running server: sign up two users, open
// a chat, connect both sockets and push one message end to end.
func main() {
	base := flag.String("base", "http://localhost:8080", "server base URL")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	suffix := uuid.New().String()[:8]
	alice, aliceClient := mustSignupAndLogin(ctx, *base, "alice-"+suffix)
	bob, bobClient := mustSignupAndLogin(ctx, *base, "bob-"+suffix)

	chat := mustCreateChat(ctx, *base, aliceClient, bob.ID)
	log.Printf("chat created: %s", chat.ID)

	wsURL := "ws" + (*base)[len("http"):] + "/ws"

	aliceSock, err := client.Dial(ctx, wsURL, alice.ID, aliceClient)
	if err != nil {
		log.Fatalf("alice dial: %v", err)
	}
	defer aliceSock.Close()

	bobSock, err := client.Dial(ctx, wsURL, bob.ID, bobClient)
	if err != nil {
		log.Fatalf("bob dial: %v", err)
	}
	defer bobSock.Close()

	received := make(chan model.Message, 1)
	go func() {
		_ = bobSock.Listen(ctx, client.Handlers{
			OnMessage: func(msg model.Message) {
				select {
				case received <- msg:
				default:
				}
			},
		})
	}()

	if err := aliceSock.Announce(ctx); err != nil {
		log.Fatalf("alice announce: %v", err)
	}
	if err := bobSock.Announce(ctx); err != nil {
		log.Fatalf("bob announce: %v", err)
	}

	// Persist first, then fan out, same order the web client uses.
	msg := mustPostMessage(ctx, *base, aliceClient, chat.ID, "hello from loadtest")
	if err := aliceSock.SendMessage(ctx, bob.ID, msg); err != nil {
		log.Fatalf("send message: %v", err)
	}

	select {
	case got := <-received:
		log.Printf("message delivered: %q", got.Text)
	case <-time.After(5 * time.Second):
		log.Fatal("timed out waiting for delivery")
	}

	log.Println("smoke test passed")
}

func mustSignupAndLogin(ctx context.Context, base, username string) (model.PublicUser, *http.Client) {
	jar, _ := cookiejar.New(nil)
	httpClient := &http.Client{Jar: jar}

	email := username + "@example.com"
	signupBody, _ := json.Marshal(map[string]string{
		"username": username,
		"email":    email,
		"password": "loadtest-password",
	})
	var user model.PublicUser
	mustPost(ctx, httpClient, base+"/api/auth/signup", signupBody, &user)

	loginBody, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": "loadtest-password",
	})
	mustPost(ctx, httpClient, base+"/api/auth/login", loginBody, nil)

	log.Printf("logged in as %s (%s)", username, user.ID)
	return user, httpClient
}

func mustCreateChat(ctx context.Context, base string, httpClient *http.Client, receiverID uuid.UUID) model.Chat {
	body, _ := json.Marshal(map[string]string{"receiverId": receiverID.String()})
	var chat model.Chat
	mustPost(ctx, httpClient, base+"/api/chats", body, &chat)
	return chat
}

func mustPostMessage(ctx context.Context, base string, httpClient *http.Client, chatID uuid.UUID, text string) model.Message {
	body, _ := json.Marshal(map[string]string{"text": text})
	var msg model.Message
	mustPost(ctx, httpClient, fmt.Sprintf("%s/api/messages/%s", base, chatID), body, &msg)
	return msg
}

func mustPost(ctx context.Context, httpClient *http.Client, url string, body []byte, out any) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Fatalf("build request for [%s]: %v", url, err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := httpClient.Do(req)
	if err != nil {
		log.Fatalf("failed to send POST request to [%s]: %v", url, err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		log.Fatalf("POST [%s] returned %d", url, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("decode response from [%s]: %v", url, err)
		}
	}
}
