package main

import (
	"github.com/alecthomas/kingpin/v2"

	"github.com/rebeliceyang/lazytable/internal/server"
)

var (
	serveCommand = app.Command("serve", "Serve records and saved views over HTTP.")
	serveAddr    = serveCommand.Flag("addr", "Listen address (overrides server.addr).").String()
)

func doServe() {
	ctx, cancel := signalContext()
	defer cancel()

	e, err := newEnv(ctx)
	kingpin.FatalIfError(err, "Unable to start")
	defer e.Close()

	addr := e.cfg.Server.Addr
	if *serveAddr != "" {
		addr = *serveAddr
	}

	srv := server.NewServer(server.Options{
		Source:    e.source,
		Store:     e.store,
		Views:     e.views,
		Evaluator: e.evaluator,
		Suggester: e.suggester(),
		Log:       e.log.WithField("component", "server"),
	})
	kingpin.FatalIfError(srv.ListenAndServe(ctx, addr), "Server failed")
}

func init() {
	commandHandlers = append(commandHandlers, func(command string) bool {
		if command == serveCommand.FullCommand() {
			doServe()
			return true
		}
		return false
	})
}
