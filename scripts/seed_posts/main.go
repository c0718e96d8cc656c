package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/blogdesk/internal/blob"
	"github.com/blogdesk/internal/config"
	"github.com/blogdesk/internal/db"
	"github.com/blogdesk/internal/logging"
	"github.com/blogdesk/internal/service"
	"github.com/blogdesk/internal/store"
)

type samplePost struct {
	title   string
	content string
	format  string
}

// 示例文章，覆盖富文本和 Markdown 两种编辑格式
var samplePosts = []samplePost{
	{
		title:   "Welcome to the blog",
		content: `<h2>Hello!</h2><p style="text-align: center">This is the first post on the site.</p>`,
		format:  "html",
	},
	{
		title:   "Writing with the editor",
		content: "## Formatting\n\nThe editor supports **bold**, _italic_ and [links](https://example.com).\n\n- lists\n- and more",
		format:  "markdown",
	},
	{
		title:   "Uploading images",
		content: "<p>Pick an image in the form and it is stored next to the post.</p>",
		format:  "html",
	},
	{
		title:   "Keeping pages fresh",
		content: "<p>Edited posts are marked in the admin panel until they are revalidated.</p>",
		format:  "html",
	},
}

func main() {
	cfg := config.Load()

	var dbPath string
	var edited int
	flag.StringVar(&dbPath, "db", cfg.DatabasePath, "sqlite db path")
	flag.IntVar(&edited, "edited", 1, "number of seeded posts to leave flagged as edited")
	flag.Parse()

	logging.Setup(cfg.LogLevel, "console")

	gdb, err := db.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init db: %v\n", err)
		os.Exit(1)
	}

	posts := store.NewGormStore(gdb)
	created, err := seedPosts(context.Background(), posts, edited)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed posts: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("done: created %d posts\n", created)
}

// seedPosts 仅在博客为空时写入示例文章，返回写入数量。
func seedPosts(ctx context.Context, posts store.PostStore, edited int) (int, error) {
	existing, err := posts.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}

	// 示例文章不带图片，blob 存储不会被调用
	svc := service.NewPostService(posts, blob.NewMemoryStore(""), service.PostServiceOptions{})

	created := 0
	for i, sample := range samplePosts {
		post, err := svc.Submit(ctx, service.CreateDraft{
			Title:         sample.title,
			Content:       sample.content,
			ContentFormat: sample.format,
		}, service.Confirmed)
		if err != nil {
			return created, err
		}
		created++

		if i < edited {
			_, err := svc.Submit(ctx, service.EditDraft{
				ID:            post.ID,
				Title:         sample.title + " (updated)",
				Content:       post.Content,
				ContentFormat: "html",
			}, service.Confirmed)
			if err != nil {
				return created, err
			}
		}
	}
	return created, nil
}
