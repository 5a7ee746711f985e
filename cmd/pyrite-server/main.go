package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/markramm/pyrite/internal/app"
)

func main() {
	configPath := flag.String("config", "", "path to pyrite.toml")
	flag.Parse()

	application, err := app.Bootstrap(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "pyrite-server: "+err.Error())
		os.Exit(1)
	}
	defer application.Close()

	srv := &server{app: application}
	addr := fmt.Sprintf("%s:%d", application.Config.Server.Host, application.Config.Server.Port)

	application.Logger.Info().Str("addr", addr).Msg("pyrite-server listening")
	if err := http.ListenAndServe(addr, srv.routes()); err != nil {
		application.Logger.Error().Err(err).Msg("pyrite-server: server stopped")
		os.Exit(1)
	}
}
