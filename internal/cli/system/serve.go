package system

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitual/internal/api"
	"github.com/julianstephens/habitual/internal/cli"
)

type ServeCmd struct {
	Addr string `help:"Address to listen on." default:"${server_addr}"`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx.Printf("Serving habitual API on http://%s (Ctrl+C to stop)\n", c.Addr)
	return api.NewServer(ctx.Service).ListenAndServe(sigCtx, c.Addr)
}
