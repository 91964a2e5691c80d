/*
Redditlive inspects and posts to a Reddit live thread.

Credentials come from a YAML config file or REDDIT_* environment variables
(a .env file in the working directory is loaded first).

Example:

	go run ./cmd/redditlive -thread ukaeu1ik4sw5
	go run ./cmd/redditlive -config reddit.yaml -thread ukaeu1ik4sw5 -post "polls are closed"
*/
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	reddit "github.com/anatolykoptev/go-reddit"
)

var (
	configPath   = flag.String("config", "", "YAML config file; REDDIT_* variables override it")
	threadID     = flag.String("thread", "", "live thread id")
	post         = flag.String("post", "", "post an update with this body")
	strike       = flag.String("strike", "", "strike the update with this id")
	closeThread  = flag.Bool("close", false, "close the thread")
	contributors = flag.Bool("contributors", false, "list contributors")
	timeout      = flag.Duration("timeout", 2*time.Minute, "overall timeout")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	if *threadID == "" {
		slog.Error("-thread is required")
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		slog.Error("config", slog.Any("error", err))
		os.Exit(1)
	}
	client, err := reddit.NewClient(cfg)
	if err != nil {
		slog.Error("client", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, client); err != nil {
		slog.Error("failed", slog.String("thread", *threadID), slog.Any("error", err))
		os.Exit(1)
	}
}

func loadConfig() (reddit.ClientConfig, error) {
	if *configPath != "" {
		return reddit.LoadConfig(*configPath)
	}
	return reddit.ConfigFromEnv()
}

func run(ctx context.Context, client *reddit.Client) error {
	thread, err := client.LiveThread(*threadID)
	if err != nil {
		return err
	}

	title, err := thread.Title(ctx)
	if err != nil {
		return err
	}
	state, _ := thread.State(ctx)
	viewers, _ := thread.ViewerCount(ctx)
	slog.Info("live thread",
		slog.String("id", thread.ID),
		slog.String("title", title),
		slog.String("state", state),
		slog.Int("viewers", viewers))

	if *contributors {
		list, err := thread.Contributor().List(ctx)
		if err != nil {
			return err
		}
		for _, c := range list {
			slog.Info("contributor",
				slog.String("name", c.Redditor.Name),
				slog.Any("permissions", c.Permissions),
				slog.Bool("invited", c.Invited))
		}
	}

	if *post != "" {
		if err := thread.Contrib().Add(ctx, *post); err != nil {
			return err
		}
		slog.Info("update posted")
	}

	if *strike != "" {
		update, err := thread.Update(*strike)
		if err != nil {
			return err
		}
		if err := update.Contrib().Strike(ctx); err != nil {
			return err
		}
		slog.Info("update stricken", slog.String("update", *strike))
	}

	if *closeThread {
		if err := thread.Contrib().Close(ctx); err != nil {
			return err
		}
		slog.Info("thread closed")
	}
	return nil
}
