// Command kvs is a client for kvs-server: get/set/rm subcommands that open
// one connection per invocation, speaking the same Request/Response wire
// protocol the server decodes.
package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/apostoln/kvs/internal/config"
	"github.com/apostoln/kvs/internal/protocol"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addr string

	root := &cobra.Command{
		Use:   "kvs",
		Short: "Client for kvs-server",
	}
	root.PersistentFlags().StringVar(&addr, "addr", config.DefaultAddr, "server address")

	root.AddCommand(
		newGetCmd(&addr),
		newSetCmd(&addr),
		newRmCmd(&addr),
	)
	return root
}

func newGetCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:  "get KEY",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(*addr, protocol.GetRequest(args[0]))
			if err != nil {
				return err
			}
			if resp.IsErr() {
				fmt.Println(*resp.Err)
				return nil
			}
			if resp.Value == nil {
				fmt.Println(protocol.ErrKeyNotFoundMessage)
				return nil
			}
			fmt.Println(*resp.Value)
			return nil
		},
	}
}

func newSetCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:  "set KEY VALUE",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(*addr, protocol.SetRequest(args[0], args[1]))
			if err != nil {
				return err
			}
			if resp.IsErr() {
				fmt.Fprintln(os.Stderr, *resp.Err)
				os.Exit(1)
			}
			return nil
		},
	}
}

func newRmCmd(addr *string) *cobra.Command {
	return &cobra.Command{
		Use:  "rm KEY",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := roundTrip(*addr, protocol.RmRequest(args[0]))
			if err != nil {
				return err
			}
			if resp.IsErr() {
				fmt.Fprintln(os.Stderr, *resp.Err)
				os.Exit(1)
			}
			return nil
		},
	}
}

func roundTrip(addr string, req protocol.Request) (protocol.Response, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return protocol.Response{}, err
	}
	defer conn.Close()

	if err := protocol.EncodeRequest(conn, req); err != nil {
		return protocol.Response{}, err
	}

	return protocol.DecodeResponse(json.NewDecoder(conn))
}
