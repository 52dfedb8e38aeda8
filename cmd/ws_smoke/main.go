package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"clicker_empire/internal/logger"
	"clicker_empire/internal/service"
	"clicker_empire/internal/ws"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), false)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	addr := flag.String("addr", "127.0.0.1:"+port, "server host:port")
	token := flag.String("token", "", "player JWT (minted from JWT_SECRET and -player when empty)")
	playerID := flag.Int64("player", 0, "player id to mint a token for")
	taps := flag.Int("taps", 10, "number of taps to send")
	enc := flag.String("enc", ws.EncodingJSON, "frame encoding: json or msgpack")
	flag.Parse()

	if *token == "" {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" || *playerID == 0 {
			logger.Fatal("either -token or JWT_SECRET with -player is required")
		}
		service.InitJWT(secret)
		t, err := service.GenerateJWT(*playerID)
		if err != nil {
			logger.Fatal("generate token", "error", err)
		}
		*token = t
	}

	codec, err := ws.CodecFor(*enc)
	if err != nil {
		logger.Fatal("codec", "error", err)
	}

	q := url.Values{"token": {*token}, "enc": {codec.Name()}}
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws", RawQuery: q.Encode()}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Fatal("dial", "url", u.Redacted(), "error", err)
	}
	defer conn.Close()

	read := func() (ws.Envelope, bool) {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Error("read", "error", err)
			return ws.Envelope{}, false
		}
		env, err := codec.Decode(msg)
		if err != nil {
			logger.Error("decode", "error", err)
			return ws.Envelope{}, false
		}
		return env, true
	}
	send := func(t string) {
		b, err := codec.Encode(ws.Envelope{T: t})
		if err != nil {
			logger.Fatal("encode", "error", err)
		}
		if err := conn.WriteMessage(codec.FrameType(), b); err != nil {
			logger.Fatal("write", "error", err)
		}
	}

	if env, ok := read(); !ok || env.T != ws.MsgReady {
		logger.Fatal("no ready frame", "got", env.T)
	}

	accepted := 0
	for i := 0; i < *taps; i++ {
		send(ws.MsgTap)
		env, ok := read()
		if !ok {
			break
		}
		if d, ok := env.D.(map[string]any); ok && env.T == ws.MsgTap && d["accepted"] == true {
			accepted++
		}
		fmt.Printf("%s %v\n", env.T, env.D)
	}

	send(ws.MsgState)
	if env, ok := read(); ok {
		fmt.Printf("%s %v\n", env.T, env.D)
	}

	logger.Info("smoke test finished", "taps", *taps, "accepted", accepted)
}
