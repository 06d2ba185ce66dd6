package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/mwantia/x4vfs/cmd"
	"github.com/mwantia/x4vfs/log"
	"github.com/mwantia/x4vfs/server"
)

type ServeCommand struct {
	Logger *log.Logger
}

func (s *ServeCommand) Name() string {
	return "serve"
}

func (s *ServeCommand) Description() string {
	return "Serve files and merged documents over HTTP until interrupted"
}

func (s *ServeCommand) Usage() string {
	return "serve [-a :8080]"
}

func (s *ServeCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	logger := s.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	listener, err := net.Listen("tcp", args.String("addr"))
	if err != nil {
		return 1, err
	}

	srv := &http.Server{
		Handler:           server.New(api, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	fmt.Fprintf(writer, "Listening on %s\n", listener.Addr())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return 0, nil
		}
		return 1, err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return 1, err
	}
	return 0, nil
}

func (s *ServeCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"addr": {
				Name:        "addr",
				Short:       "a",
				Type:        "string",
				Default:     ":8080",
				Description: "Listen address",
			},
		},
	}
}
