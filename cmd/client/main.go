package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/klass-lk/postboard/internal/client"
)

func main() {
	if err := mainInner(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}

func mainInner() error {
	addrVar := flag.String("addr", "http://127.0.0.1:8080/api/v1", "the base url of the post store")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-addr URL] list | create -title T -body B -author A\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		return fmt.Errorf("missing command")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	c := client.New(client.NewHTTPBackend(*addrVar), logger)

	switch cmd := flag.Arg(0); cmd {
	case "list":
		if err := c.Load(ctx); err != nil {
			return err
		}
	case "create":
		fs := flag.NewFlagSet("create", flag.ContinueOnError)
		title := fs.String("title", "", "post title")
		body := fs.String("body", "", "post body")
		author := fs.String("author", "", "post author")
		if err := fs.Parse(flag.Args()[1:]); err != nil {
			return err
		}

		c.OpenForm()
		if err := c.SetForm(client.Form{Title: *title, Body: *body, Author: *author}); err != nil {
			return err
		}
		post, err := c.Submit(ctx)
		if err != nil {
			return err
		}
		logger.Info("created post", "id", post.ID)
		if state, err := c.ListState(); err != nil {
			logger.Warn("post list may be stale", "state", state, "err", err)
		}
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}

	return client.Render(os.Stdout, c.Snapshot(), nil)
}
