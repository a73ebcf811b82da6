package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd(g *globals) *cobra.Command {
	var (
		wsURL   string
		tcpAddr string
		pretty  bool
		once    bool
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow catalog events from a running api-server",
		Long: `watch prints inventory.synced and motor.updated events as they arrive.
It reconnects after a dropped connection unless --once is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			for {
				var err error
				if tcpAddr != "" {
					err = watchTCP(ctx, tcpAddr, out, pretty)
				} else {
					err = watchWS(ctx, wsURL, out, pretty)
				}
				if once || ctx.Err() != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}
				g.log.Warn().Err(err).Msg("disconnected, retrying")
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}
	cmd.Flags().StringVar(&wsURL, "url", "ws://127.0.0.1:8080/ws", "api-server websocket url")
	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "read the TCP event stream at this address instead")
	cmd.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")
	cmd.Flags().BoolVar(&once, "once", false, "exit when the connection drops")
	return cmd
}

func watchWS(ctx context.Context, url string, out io.Writer, pretty bool) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer ws.Close()

	go func() {
		<-ctx.Done()
		_ = ws.Close()
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		printEvent(out, msg, pretty)
	}
}

func watchTCP(ctx context.Context, addr string, out io.Writer, pretty bool) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEvent(out, sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return errors.New("connection closed")
}

func printEvent(out io.Writer, line []byte, pretty bool) {
	line = []byte(strings.TrimSpace(string(line)))
	if !pretty {
		fmt.Fprintln(out, string(line))
		return
	}

	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		fmt.Fprintln(out, string(line))
		return
	}
	if t, ok := obj["type"].(string); ok {
		labelColor.Fprintln(out, t)
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Fprintln(out, string(b))
}
