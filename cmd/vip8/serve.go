/*
 *   Copyright (c) 2024 Gustavo Lopez <git.gustavolopez.xyz@gmail.com>
 *   All rights reserved.
 */
package main

import (
	"github.com/guslan/vip8"
	"github.com/guslan/vip8/audio"
	"github.com/guslan/vip8/web"
	"github.com/spf13/cobra"
)

var (
	port        int
	useDebugger bool
	staticDir   string
	serveSound  bool
)

// serveCmd exposes the console over HTTP and websockets
var serveCmd = &cobra.Command{
	Use:   "serve [path/to/rom]",
	Short: "serve the console over HTTP",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runServer,
}

func init() {
	serveCmd.Flags().IntVar(&port, "port", 9999, "the port of the server")
	serveCmd.Flags().BoolVar(&useDebugger, "debugger", false, "stream the cpu state at /debugger, slowing the cpu down")
	serveCmd.Flags().StringVar(&staticDir, "static", "", "directory served at /")
	serveCmd.Flags().BoolVar(&serveSound, "sound", false, "play the buzzer through the speaker")
}

func runServer(cmd *cobra.Command, args []string) error {
	config, err := cpuConfig()
	if err != nil {
		return err
	}

	server := web.NewServer(vip8.NewMemory(), func(c *web.ServerConfig) {
		c.UseDebugger = useDebugger
		c.StaticDir = staticDir
		c.Cpu = append(c.Cpu, config)
		if serveSound {
			c.Buzzer = audio.NewBeepBuzzer()
		}
	})

	if len(args) > 0 {
		program, err := readProgram(args[0])
		if err != nil {
			return err
		}
		if err := server.LoadProgram(program); err != nil {
			return err
		}
	}

	return server.Listen(cmd.Context(), port)
}
