// Command tangle is a demo CLI for the Tangle client SDK: it logs in,
// shows the neighborhood feed (cached first, then fresh), and can stay
// attached to the notification stream.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tangle/internal/api"
	"tangle/internal/config"
	"tangle/internal/feed"
	"tangle/internal/notify"
	"tangle/internal/realtime"
	"tangle/internal/session"
	"tangle/internal/store"
)

func main() {
	email := flag.String("email", "", "account email (omit for a read-only feed)")
	password := flag.String("password", "", "account password")
	follow := flag.Bool("follow", false, "stay attached to the notification stream")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := session.New()
	client := api.NewClient(cfg, sess)

	center := notify.NewCenter()
	center.Subscribe(func(n notify.Notice) {
		fmt.Printf("[%s] %s\n", n.Level, n.Message)
	})

	opts := []feed.Option{feed.WithNotifier(center)}
	if cfg.OfflineStorePath != "" {
		snapshot, err := store.Open(cfg.OfflineStorePath)
		if err != nil {
			log.Printf("offline store unavailable: %v", err)
		} else {
			opts = append(opts, feed.WithSnapshot(snapshot))
		}
	}
	feedStore := feed.NewStore(client, opts...)

	if *email != "" {
		res, err := client.Login(ctx, *email, *password)
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		sess.SetCredentials(res.Token, res.User)
		fmt.Printf("Logged in as %s\n\n", res.User.Name)
	}

	// Cached posts render immediately; the fetch below replaces them.
	_ = feedStore.LoadCached(ctx)
	printFeed(feedStore)

	_ = feedStore.FetchPosts(ctx)
	if msg := feedStore.LastError(); msg != "" {
		fmt.Fprintln(os.Stderr, msg)
	} else {
		printFeed(feedStore)
	}

	if *follow && cfg.NotificationsURL != "" {
		fmt.Println("Following notifications (Ctrl-C to stop)...")
		stream := realtime.NewClient(cfg.NotificationsURL, sess, func(n realtime.Notification) {
			fmt.Printf("* %s\n", n.Message)
		})
		_ = stream.Run(ctx)
	}
}

func printFeed(s *feed.Store) {
	posts := s.Posts()
	if len(posts) == 0 {
		fmt.Println("No posts yet.")
		return
	}
	for _, p := range posts {
		liked := " "
		if p.ViewerHasLiked {
			liked = "♥"
		}
		desc := p.Description
		if len(desc) > 72 {
			desc = desc[:69] + "..."
		}
		fmt.Printf("%s %-14s %-20s %s\n", liked, p.PostType, p.Author.Name, desc)
		fmt.Printf("    %d likes · %d comments", p.LikeCount, p.CommentCount)
		if len(p.Tags) > 0 {
			fmt.Printf(" · #%s", strings.Join(p.Tags, " #"))
		}
		fmt.Println()
	}
	fmt.Println()
}
